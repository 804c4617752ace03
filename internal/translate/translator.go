package translate

import (
	"context"
	"strings"
)

// Translator translates English text into a target language.
type Translator interface {
	// Translate returns the translated text. A response without text is
	// reported as ErrNoTranslation; transport and decoding problems are
	// reported as *Error.
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

func validate(text, targetLang string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if strings.TrimSpace(targetLang) == "" {
		return ErrNoLanguage
	}
	return nil
}
