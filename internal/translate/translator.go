// Package translate converts text between supported languages via an
// external chat-completion service.
package translate

import "context"

// Translator converts text from one language to another. Implementations
// must short-circuit same-language requests locally: translating text into
// its own language never touches the network.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
