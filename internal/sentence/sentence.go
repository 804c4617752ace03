package sentence

import "strings"

// Sentence is an ordered list of recognized words. A word is never stored
// twice in a row.
type Sentence struct {
	words []string
}

// Append adds word to the end of the sentence unless it equals the last
// word or is empty. It reports whether the sentence changed.
func (s *Sentence) Append(word string) bool {
	if word == "" || word == s.Last() {
		return false
	}
	s.words = append(s.words, word)
	return true
}

// Last returns the most recent word, or "" for an empty sentence.
func (s *Sentence) Last() string {
	if len(s.words) == 0 {
		return ""
	}
	return s.words[len(s.words)-1]
}

// Words returns a copy of the words in insertion order.
func (s *Sentence) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Len returns the number of words.
func (s *Sentence) Len() int {
	return len(s.words)
}

// String joins the words with single spaces.
func (s *Sentence) String() string {
	return strings.Join(s.words, " ")
}

// Clear empties the sentence.
func (s *Sentence) Clear() {
	s.words = nil
}
