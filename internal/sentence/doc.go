// Package sentence holds the words recognized so far and the short list of
// recently displayed gestures.
package sentence
