// Package gateway invokes the text generation model, either synchronously or
// as a stream of incremental fragments.
package gateway

import "context"

// Sampling temperatures. Stable is used for scoring; unstable suits free-form
// generation that should vary between calls.
const (
	StableTemperature   = 0.05
	UnstableTemperature = 0.99
)

// Temperature returns a pointer for use as an explicit sampling temperature.
// A nil temperature leaves the provider default in place.
func Temperature(v float64) *float64 {
	return &v
}

type Gateway interface {
	// InvokeSync returns the full completion text. Failures are ProviderErrors.
	InvokeSync(ctx context.Context, systemPrompt, userPrompt string, temperature *float64) (string, error)
	// InvokeStream starts a streamed completion.
	InvokeStream(ctx context.Context, systemPrompt, userPrompt string, temperature *float64) (Stream, error)
}

// Stream is a finite sequence of text fragments. Next returns io.EOF once the
// model completes; any other error ends the stream.
type Stream interface {
	Next() (string, error)
	Close() error
}
