package translate

import (
	"context"
	"sync"
)

// Stub is a deterministic Translator for development and tests. Lookups not
// covered by the dictionary return the text prefixed with the target
// language, so output stays distinguishable per language.
type Stub struct {
	// Dictionary maps targetLang -> sourceText -> translation.
	Dictionary map[string]map[string]string
	// FailFor maps a target language to an error for that language's calls.
	FailFor map[string]error

	mu    sync.Mutex
	calls []string
}

func (s *Stub) Translate(_ context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang {
		return text, nil
	}

	s.mu.Lock()
	s.calls = append(s.calls, targetLang)
	s.mu.Unlock()

	if err, ok := s.FailFor[targetLang]; ok {
		return "", err
	}
	if byText, ok := s.Dictionary[targetLang]; ok {
		if translated, ok := byText[text]; ok {
			return translated, nil
		}
	}
	return "[" + targetLang + "] " + text, nil
}

// Calls returns the target languages of all network-equivalent calls made,
// in completion order.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
