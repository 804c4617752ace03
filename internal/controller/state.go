package controller

import (
	"fmt"
	"time"
)

// Prediction is one gesture recognized by the backend.
type Prediction struct {
	Gesture    string
	Confidence float64 // percent, 0-100
}

// ImagePath returns the path of the gesture's image asset.
func (p Prediction) ImagePath() string {
	if p.Gesture == "" {
		return ""
	}
	return fmt.Sprintf("/static/images/%s.png", p.Gesture)
}

// State is a snapshot of everything the user sees.
type State struct {
	// Version increases with every snapshot; views drop older ones.
	Version uint64

	Status   Status
	Language string

	// Last prediction and how many have been received.
	Gesture     Prediction
	Predictions uint64
	LastEventAt time.Time

	Sentence     []string
	SentenceText string
	History      []string
	Translation  string
}

// View receives a snapshot after every change. Render is called without
// the controller lock held and may be called from timer goroutines.
type View interface {
	Render(State)
}

// ViewFunc adapts a function to View.
type ViewFunc func(State)

// Render calls f(s).
func (f ViewFunc) Render(s State) { f(s) }
