package streaming

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/gateway"
)

type scriptedStream struct {
	mu        sync.Mutex
	fragments []string
	err       error
	read      int
	closed    bool
}

func (s *scriptedStream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.read < len(s.fragments) {
		f := s.fragments[s.read]
		s.read++
		return f, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptedStream) position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read
}

type streamGateway struct {
	stream      *scriptedStream
	err         error
	temperature *float64
}

func (g *streamGateway) InvokeSync(context.Context, string, string, *float64) (string, error) {
	panic("not used by streaming")
}

func (g *streamGateway) InvokeStream(_ context.Context, _, _ string, temperature *float64) (gateway.Stream, error) {
	g.temperature = temperature
	if g.err != nil {
		return nil, g.err
	}
	return g.stream, nil
}

func collect(ch <-chan Chunk) []Chunk {
	var out []Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestStreamGenerate_EmitsObjectsThenCloses(t *testing.T) {
	stream := &scriptedStream{fragments: []string{"[{\"title\":", "\"Q1\"},{\"ti", "tle\":\"Q2\"},{\"tit"}}
	gw := &streamGateway{stream: stream}

	got := collect(StreamGenerate(context.Background(), gw, "sys", "user"))

	assert.Equal(t, []Chunk{{JSON: `{"title":"Q1"}`}, {JSON: `{"title":"Q2"}`}}, got)
	assert.True(t, stream.closed)
	assert.Nil(t, gw.temperature, "question streams use the provider default temperature")
}

func TestStreamGenerate_UpstreamErrorEndsStream(t *testing.T) {
	boom := errors.NewProviderError("genai", stderrors.New("connection reset"))
	stream := &scriptedStream{fragments: []string{"{a:1}", "{b:"}, err: boom}

	got := collect(StreamGenerate(context.Background(), &streamGateway{stream: stream}, "sys", "user"))

	require.Len(t, got, 2)
	assert.Equal(t, "{a:1}", got[0].JSON)
	assert.Empty(t, got[1].JSON, "partial object is not flushed")
	assert.ErrorIs(t, got[1].Err, errors.ErrProvider)
}

func TestStreamGenerate_InvokeFailure(t *testing.T) {
	boom := errors.NewProviderError("genai", stderrors.New("401"))

	got := collect(StreamGenerate(context.Background(), &streamGateway{err: boom}, "sys", "user"))

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, errors.ErrProvider)
}

func TestStreamGenerate_Backpressure(t *testing.T) {
	stream := &scriptedStream{fragments: []string{"{a:1}", "{b:2}", "{c:3}", "{d:4}"}}
	ch := StreamGenerate(context.Background(), &streamGateway{stream: stream}, "sys", "user")

	// Nobody reads: the producer parks on the first object instead of racing ahead.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, stream.position())

	var got []string
	for c := range ch {
		require.NoError(t, c.Err)
		got = append(got, c.JSON)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, []string{"{a:1}", "{b:2}", "{c:3}", "{d:4}"}, got)
}

func TestStreamGenerate_CancelStopsProducer(t *testing.T) {
	stream := &scriptedStream{fragments: []string{"{a:1}", "{b:2}", "{c:3}"}}
	ctx, cancel := context.WithCancel(context.Background())
	ch := StreamGenerate(ctx, &streamGateway{stream: stream}, "sys", "user")

	first := <-ch
	assert.Equal(t, "{a:1}", first.JSON)
	cancel()

	// The producer is parked on {b:2} with no reader, so cancellation is its only way out.
	time.Sleep(50 * time.Millisecond)

	rest := collect(ch)
	assert.Empty(t, rest)
	assert.Equal(t, 2, stream.position())
	assert.True(t, stream.closed)
}
