// Package asr turns recorded audio into text via an external speech-to-text
// service.
package asr

import "context"

// Recognizer converts one recorded utterance into its transcript.
type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
