package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/mikeboe/uniq-chat/pkg/chat"
	"github.com/mikeboe/uniq-chat/pkg/research"
	"github.com/mikeboe/uniq-chat/pkg/session"
	"github.com/mikeboe/uniq-chat/pkg/ui"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE")).
			Bold(true)

	researchPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F59E0B")).
				Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8"))
)

const helpText = `Commands:
  /research        toggle research mode
  /plan            show the pending research plan
  /edit [json]     replace the plan (opens $EDITOR without an argument)
  /execute         run the pending plan and synthesize the findings
  /render          reprint the last answer as formatted markdown
  /whoami          show the signed-in student
  /logout          sign out and quit
  /help            show this help
  /quit            leave the chat
Ctrl+C cancels a streaming answer.`

func newChatCmd() *cobra.Command {
	var researchMode bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), researchMode)
		},
	}
	cmd.Flags().BoolVarP(&researchMode, "research", "r", false, "Start in research mode")
	return cmd
}

type chatREPL struct {
	app         *app
	controller  *chat.Controller
	line        *liner.State
	historyFile string
}

func runChat(ctx context.Context, researchMode bool) error {
	a := newApp()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	repl := &chatREPL{
		app:         a,
		controller:  chat.NewController(a.client, a.client),
		line:        line,
		historyFile: filepath.Join(a.cfg.StorageDir, "chat_history"),
	}
	repl.loadHistory()
	defer repl.close()

	if !a.gate.Authenticated() {
		if err := promptLogin(ctx, line, a.gate); err != nil {
			return err
		}
	}

	repl.controller.Session.Observe(ui.NewRenderer(os.Stdout).Handle)
	if researchMode {
		repl.controller.ToggleResearchMode()
	}

	// Ctrl+C outside the prompt cancels the streaming answer.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if !repl.controller.Cancel() {
				fmt.Fprintln(os.Stderr, dimStyle.Render("\nNothing to cancel."))
			}
		}
	}()

	user, _ := a.gate.User()
	fmt.Println(highlightStyle.Render("Uniq Chat") + dimStyle.Render(" signed in as "+user.Name+". Type /help for commands."))

	for {
		input, err := line.Prompt(repl.prompt())
		if errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println(dimStyle.Render("Use /quit to leave."))
			continue
		}
		if err != nil {
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !repl.command(ctx, input) {
				return nil
			}
			continue
		}

		repl.send(ctx, input)
	}
}

func (r *chatREPL) prompt() string {
	if r.controller.ResearchMode() {
		return researchPromptStyle.Render("research> ")
	}
	return promptStyle.Render("you> ")
}

// send hands input to the controller. Request failures already show up as
// chat messages, so only errors without one are printed here.
func (r *chatREPL) send(ctx context.Context, input string) {
	err := r.controller.Send(ctx, input)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, session.ErrBusy), errors.Is(err, chat.ErrEmptyInput):
		fmt.Println(errorStyle.Render(err.Error()))
	default:
		slog.Debug("Send failed", "error", err)
	}
}

// command runs a slash command and reports whether the REPL should continue.
func (r *chatREPL) command(ctx context.Context, input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Println(helpText)
	case "/research":
		if r.controller.ToggleResearchMode() {
			fmt.Println(successStyle.Render("Research mode on.") + dimStyle.Render(" Your next message becomes a research plan."))
		} else {
			fmt.Println(successStyle.Render("Research mode off.") + dimStyle.Render(" Asking your documents."))
		}
	case "/plan":
		plan, ok := r.controller.Session.Plan()
		if !ok {
			fmt.Println(dimStyle.Render("No pending research plan."))
			return true
		}
		fmt.Println(ui.FormatPlan(plan))
	case "/edit":
		r.editPlan(arg)
	case "/execute":
		err := r.controller.ExecutePlan(ctx)
		if errors.Is(err, research.ErrNoPlan) || errors.Is(err, session.ErrBusy) {
			fmt.Println(errorStyle.Render(err.Error()))
		}
	case "/render":
		r.renderLast()
	case "/whoami":
		if user, ok := r.app.gate.User(); ok {
			printStudent(user)
		}
	case "/logout":
		r.app.gate.Logout()
		fmt.Println(successStyle.Render("Logged out."))
		return false
	default:
		fmt.Println(errorStyle.Render("Unknown command " + name + ". Type /help."))
	}
	return true
}

func (r *chatREPL) renderLast() {
	msgs := r.controller.Session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != session.RoleBot || msgs[i].Content == "" {
			continue
		}
		out, err := ui.RenderMarkdown(msgs[i].Content, 80)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			return
		}
		fmt.Print(out)
		return
	}
	fmt.Println(dimStyle.Render("Nothing to render yet."))
}

func (r *chatREPL) editPlan(inline string) {
	current, ok := r.controller.Session.Plan()
	if !ok {
		fmt.Println(errorStyle.Render(research.ErrNoPlan.Error()))
		return
	}

	data := []byte(inline)
	if inline == "" {
		edited, err := editInEditor(current)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			return
		}
		data = edited
	}

	var plan session.ResearchPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		fmt.Println(errorStyle.Render("Invalid plan JSON: " + err.Error()))
		return
	}
	if err := r.controller.EditPlan(plan); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	fmt.Println(successStyle.Render("Plan updated."))
	fmt.Println(ui.FormatPlan(plan.Normalized()))
}

// editInEditor opens the plan as indented JSON in $EDITOR and returns the
// saved file.
func editInEditor(plan session.ResearchPlan) ([]byte, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	f, err := os.CreateTemp("", "uniq-plan-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create plan file: %w", err)
	}
	defer os.Remove(f.Name())

	data, err := json.MarshalIndent(plan.Normalized(), "", "  ")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write plan file: %w", err)
	}
	f.Close()

	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], f.Name())...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("editor exited: %w", err)
	}

	return os.ReadFile(f.Name())
}

func (r *chatREPL) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

func (r *chatREPL) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

func (r *chatREPL) close() {
	r.saveHistory()
	r.line.Close()
}
