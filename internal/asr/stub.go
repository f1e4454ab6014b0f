package asr

import (
	"context"
	"sync"
)

// Stub is a deterministic Recognizer for development and tests.
type Stub struct {
	// Text is returned for every transcription.
	Text string
	// Err, if set, fails every call.
	Err error

	mu    sync.Mutex
	calls int
}

func (s *Stub) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

// Calls reports how many transcriptions were requested.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
