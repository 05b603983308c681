package streaming

import (
	"context"
	"io"

	"quiz-scoring/internal/common/metrics"
	"quiz-scoring/internal/gateway"
)

// Chunk is one complete JSON object, or the error that ended the stream.
type Chunk struct {
	JSON string
	Err  error
}

// StreamGenerate streams a completion at the provider's default temperature and
// sends every complete JSON object on the returned channel as soon as it closes.
//
// The channel is unbuffered: a slow reader suspends the producer and nothing
// is dropped. An upstream error is sent as a final Chunk before the channel
// closes; a partial object is never flushed. Cancelling ctx stops the producer.
func StreamGenerate(ctx context.Context, gw gateway.Gateway, systemPrompt, userPrompt string) <-chan Chunk {
	out := make(chan Chunk)

	go func() {
		defer close(out)

		stream, err := gw.InvokeStream(ctx, systemPrompt, userPrompt, nil)
		if err != nil {
			send(ctx, out, Chunk{Err: err})
			return
		}
		defer stream.Close()

		seg := NewSegmenter()
		for {
			fragment, err := stream.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				send(ctx, out, Chunk{Err: err})
				return
			}

			for _, obj := range seg.Feed(fragment) {
				if !send(ctx, out, Chunk{JSON: obj}) {
					return
				}
				metrics.StreamObjectsEmitted.Inc()
			}
		}
	}()

	return out
}

func send(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
