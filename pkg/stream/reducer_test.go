package stream

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/uniq-chat/pkg/session"
)

// chunkReader returns one chunk per Read, then err (io.EOF by default).
type chunkReader struct {
	chunks [][]byte
	err    error
	onRead func(i int)
	i      int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.onRead != nil {
		r.onRead(r.i)
	}
	if r.i >= len(r.chunks) {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.i])
	r.i++
	return n, nil
}

func chunks(parts ...string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}

func newTarget(typ session.MessageType) *session.Session {
	s := session.New()
	s.Append(session.Message{Role: session.RoleUser, Content: "q"})
	s.Append(session.Message{Role: session.RoleBot, Type: typ})
	return s
}

func TestReduceConcatenatesChunksInOrder(t *testing.T) {
	tests := []struct {
		name   string
		chunks [][]byte
		want   string
	}{
		{"photosynthesis", chunks("Photo", "synthesis is..."), "Photosynthesis is..."},
		{"single", chunks("hello"), "hello"},
		{"empty stream", nil, ""},
		{"split multibyte rune", [][]byte{[]byte("caf"), {0xC3}, {0xA9, '!'}}, "café!"},
		{"split emoji", [][]byte{{0xF0, 0x9F}, {0x98}, {0x80}}, "😀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTarget(session.TypePlain)
			var updates []string
			s.Observe(func(ev session.Event) {
				if ev.Kind == session.EventUpdated {
					updates = append(updates, ev.Message.Content)
				}
			})

			got, err := Reduce(context.Background(), &chunkReader{chunks: tt.chunks}, s, session.TypePlain)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			last, _ := s.Last()
			assert.Equal(t, tt.want, last.Content)
			for i := 1; i < len(updates); i++ {
				assert.True(t, len(updates[i]) >= len(updates[i-1]), "content only grows")
			}
		})
	}
}

func TestReduceCancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &chunkReader{
		chunks: chunks("partial ", "answer ", "never seen"),
		onRead: func(i int) {
			if i == 2 {
				cancel()
			}
		},
	}
	s := newTarget(session.TypePlain)

	_, err := Reduce(ctx, r, s, session.TypePlain)
	assert.ErrorIs(t, err, context.Canceled)

	last, _ := s.Last()
	assert.Equal(t, CancelledMarker, last.Content)
}

func TestReduceCancelledReadError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTarget(session.TypePlain)

	_, err := Reduce(ctx, &chunkReader{err: context.Canceled}, s, session.TypePlain)
	assert.ErrorIs(t, err, context.Canceled)

	last, _ := s.Last()
	assert.Equal(t, CancelledMarker, last.Content)
}

func TestReduceReadFailure(t *testing.T) {
	boom := errors.New("connection reset")
	s := newTarget(session.TypeSynthesis)

	got, err := Reduce(context.Background(), &chunkReader{chunks: chunks("some "), err: boom}, s, session.TypeSynthesis)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "some ", got)

	last, _ := s.Last()
	assert.Equal(t, FailureMarker, last.Content)
}

func TestReduceIgnoresNonMatchingTarget(t *testing.T) {
	s := newTarget(session.TypePlain)
	_, err := Reduce(context.Background(), &chunkReader{chunks: chunks("x")}, s, session.TypeSynthesis)
	require.NoError(t, err)

	last, _ := s.Last()
	assert.Empty(t, last.Content)
}

func TestFail(t *testing.T) {
	s := newTarget(session.TypePlain)
	Fail(context.Background(), s, session.TypePlain, errors.New("dial tcp: refused"))
	last, _ := s.Last()
	assert.Equal(t, FailureMarker, last.Content)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Fail(ctx, s, session.TypePlain, ctx.Err())
	last, _ = s.Last()
	assert.Equal(t, CancelledMarker, last.Content)
}
