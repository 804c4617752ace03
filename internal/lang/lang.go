// Package lang describes the target languages a sentence can be translated
// into.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultCodes are the target languages offered when none are configured.
var DefaultCodes = []string{"en", "es", "fr", "de", "ar", "hi", "zh", "ja"}

// ErrUnknownLanguage is returned when a code cannot be parsed.
var ErrUnknownLanguage = errors.New("unknown language")

// Language is a selectable translation target.
type Language struct {
	Code string // BCP 47 code as sent to the backend, e.g. "fr"
	Name string // English display name, e.g. "French"
}

// String returns "Name (code)".
func (l Language) String() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Code)
}

// Parse validates code and resolves its display name. The code is kept as
// written (lower-cased) since that is what the backend and speech engines
// expect.
func Parse(code string) (Language, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Language{}, fmt.Errorf("%w: empty code", ErrUnknownLanguage)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, fmt.Errorf("%w: %q: %v", ErrUnknownLanguage, code, err)
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		name = code
	}
	return Language{Code: code, Name: name}, nil
}

// DisplayName returns the English name for code, or code itself when it
// cannot be resolved.
func DisplayName(code string) string {
	l, err := Parse(code)
	if err != nil {
		return code
	}
	return l.Name
}

// Catalogue parses codes into languages, dropping duplicates.
func Catalogue(codes []string) ([]Language, error) {
	if len(codes) == 0 {
		codes = DefaultCodes
	}
	seen := make(map[string]bool, len(codes))
	out := make([]Language, 0, len(codes))
	for _, c := range codes {
		l, err := Parse(c)
		if err != nil {
			return nil, err
		}
		if seen[l.Code] {
			continue
		}
		seen[l.Code] = true
		out = append(out, l)
	}
	return out, nil
}

// Index returns the position of code in langs, or -1.
func Index(langs []Language, code string) int {
	code = strings.ToLower(code)
	for i, l := range langs {
		if l.Code == code {
			return i
		}
	}
	return -1
}

// Find resolves a user query against langs. An exact code wins; otherwise
// the best fuzzy match on the display name is returned.
func Find(query string, langs []Language) (Language, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Language{}, false
	}
	if i := Index(langs, query); i >= 0 {
		return langs[i], true
	}

	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = l.Name
	}
	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return Language{}, false
	}
	return langs[matches[0].Index], true
}
