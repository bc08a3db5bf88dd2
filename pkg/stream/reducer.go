// Package stream folds a streamed text response into the last bot message of
// a session.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mikeboe/uniq-chat/pkg/session"
)

const (
	CancelledMarker = "Response cancelled."
	FailureMarker   = "⚠️ Failed to get response from model. Please try again."
)

const readSize = 4096

// Target is the part of the session the reducer writes to.
type Target interface {
	UpdateLast(typ session.MessageType, content string) bool
}

// Reduce reads r until EOF, appending each decoded chunk to the last bot
// message of type typ. On cancellation of ctx the content becomes
// CancelledMarker; on any other read error it becomes FailureMarker. The
// accumulated text is returned together with the error that stopped the loop.
func Reduce(ctx context.Context, r io.Reader, target Target, typ session.MessageType) (string, error) {
	var (
		text    strings.Builder
		pending []byte
		buf     = make([]byte, readSize)
	)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			var chunk string
			chunk, pending = decode(append(pending, buf[:n]...))
			if chunk != "" {
				text.WriteString(chunk)
				target.UpdateLast(typ, text.String())
			}
		}

		if errors.Is(err, io.EOF) {
			if len(pending) > 0 {
				// Invalid trailing bytes are kept as replacement characters.
				text.WriteString(strings.ToValidUTF8(string(pending), string(utf8.RuneError)))
				target.UpdateLast(typ, text.String())
			}
			return text.String(), nil
		}

		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		if err != nil {
			if isCancellation(ctx, err) {
				target.UpdateLast(typ, CancelledMarker)
				return text.String(), context.Canceled
			}
			target.UpdateLast(typ, FailureMarker)
			return text.String(), err
		}
	}
}

// Fail writes the failure or cancellation marker for an error that happened
// before any stream was available.
func Fail(ctx context.Context, target Target, typ session.MessageType, err error) {
	if isCancellation(ctx, err) {
		target.UpdateLast(typ, CancelledMarker)
		return
	}
	target.UpdateLast(typ, FailureMarker)
}

func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}

// decode splits b into the longest prefix of complete UTF-8 sequences and
// the trailing bytes of an unfinished rune.
func decode(b []byte) (string, []byte) {
	cut := len(b)
	// A rune is at most utf8.UTFMax bytes, so only the tail needs checking.
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				cut = i
			}
			break
		}
	}
	rest := append([]byte(nil), b[cut:]...)
	return strings.ToValidUTF8(string(b[:cut]), string(utf8.RuneError)), rest
}
