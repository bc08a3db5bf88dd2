package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mikeboe/uniq-chat/pkg/clients"
	"github.com/mikeboe/uniq-chat/pkg/rag"
)

const streamChunkSize = 4096

var internalError = gin.H{"detail": "Internal server error"}

type Handler struct {
	Forwarder *Forwarder
	// Answerer and Tools are nil when no document store is configured.
	Answerer  *rag.Answerer
	Tools     *rag.Toolset
	OllamaURL string
	Logger    *slog.Logger

	mcpHandler http.Handler
}

func NewHandler(fwd *Forwarder, answerer *rag.Answerer, tools *rag.Toolset, ollamaURL string) *Handler {
	h := &Handler{
		Forwarder: fwd,
		Answerer:  answerer,
		Tools:     tools,
		OllamaURL: ollamaURL,
		Logger:    slog.Default(),
	}
	h.mcpHandler = h.newMCPHandler()
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Any("/mcp", gin.WrapH(h.mcpHandler))
	api := r.Group("/api")
	{
		api.POST("/auth/login", h.proxy("/auth/login"))
		api.POST("/research/plan", h.proxy("/research/plan"))
		api.POST("/research/execute", h.proxy("/research/execute"))
		api.POST("/research/stream", h.proxyStream("/research/stream"))

		api.POST("/chat", h.chat)
		api.GET("/health", h.health)
	}
}

// forward sends the request body to the backend. On failure it has already
// answered the client.
func (h *Handler) forward(c *gin.Context, path string) (*http.Response, bool) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Logger.ErrorContext(ctx, "Failed to read request body", "path", path, "error", err)
		c.JSON(http.StatusInternalServerError, internalError)
		return nil, false
	}

	resp, err := h.Forwarder.Forward(ctx, path, body, c.Request.Header)
	if err != nil {
		h.Logger.ErrorContext(ctx, "Backend request failed", "path", path, "error", err)
		c.JSON(http.StatusInternalServerError, internalError)
		return nil, false
	}
	return resp, true
}

// proxy relays status, content type and body of a buffered backend call.
func (h *Handler) proxy(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, ok := h.forward(c, path)
		if !ok {
			return
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			h.Logger.ErrorContext(c.Request.Context(), "Failed to read backend response", "path", path, "error", err)
			c.JSON(http.StatusInternalServerError, internalError)
			return
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		c.Data(resp.StatusCode, contentType, data)
	}
}

// proxyStream copies the backend body to the client as it arrives, flushing
// after every chunk.
func (h *Handler) proxyStream(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, ok := h.forward(c, path)
		if !ok {
			return
		}
		defer resp.Body.Close()

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		c.Header("Content-Type", contentType)
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(resp.StatusCode)

		buf := make([]byte, streamChunkSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				if _, werr := c.Writer.Write(buf[:n]); werr != nil {
					h.Logger.WarnContext(c.Request.Context(), "Client went away during stream", "path", path, "error", werr)
					return
				}
				c.Writer.Flush()
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				h.Logger.ErrorContext(c.Request.Context(), "Backend stream broke", "path", path, "error", err)
				abortStream(c)
				return
			}
		}
	}
}

type chatRequest struct {
	Question string `json:"question"`
}

// chat streams a document-grounded answer as plain text.
func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	if h.Answerer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document chat is not configured"})
		return
	}

	started := false
	err := h.Answerer.Answer(c.Request.Context(), req.Question, func(chunk string) error {
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err == nil {
		if !started {
			c.Status(http.StatusOK)
		}
		return
	}

	h.Logger.ErrorContext(c.Request.Context(), "Chat answer failed", "error", err, "streamed", started)
	if !started {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	abortStream(c)
}

// abortStream drops the connection of a response whose headers are already
// out, so the client reads a truncated body instead of a clean end.
func abortStream(c *gin.Context) {
	var w http.ResponseWriter = c.Writer
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		w = u.Unwrap()
	}
	conn, _, err := http.NewResponseController(w).Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ollama": clients.OllamaReachable(c.Request.Context(), h.OllamaURL),
	})
}
