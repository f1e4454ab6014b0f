// Package tts produces synthesized speech for translated text via an
// external text-to-speech service.
package tts

import "context"

// Synthesizer converts text in a given language to a base64-encoded audio
// payload. The payload's internal audio format is opaque to the rest of the
// system; it is stored and delivered as-is.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (string, error)
}
