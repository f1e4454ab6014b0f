package tts

import (
	"context"
	"encoding/base64"
	"sync"
)

// Stub is a deterministic Synthesizer for development and tests. It encodes
// the language and text into the payload so tests can assert on it.
type Stub struct {
	// FailFor maps a language to an error for that language's calls.
	FailFor map[string]error

	mu    sync.Mutex
	calls []string
}

func (s *Stub) Synthesize(_ context.Context, text, language string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, language)
	s.mu.Unlock()

	if err, ok := s.FailFor[language]; ok {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(language + ":" + text)), nil
}

// Calls returns the languages synthesized, in completion order.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
