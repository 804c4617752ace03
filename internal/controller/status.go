package controller

// Status is what the controller is currently doing.
type Status int

const (
	// StatusIdle indicates nothing is pending
	StatusIdle Status = iota

	// StatusListening indicates predictions are arriving
	StatusListening

	// StatusPaused indicates the user paused and translation is imminent
	StatusPaused

	// StatusTranslating indicates a translation request is in flight or
	// its result is being shown
	StatusTranslating
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusListening:
		return "listening"
	case StatusPaused:
		return "paused"
	case StatusTranslating:
		return "translating"
	default:
		return "unknown"
	}
}

// Label returns the text shown to the user for the status.
func (s Status) Label() string {
	switch s {
	case StatusListening:
		return "Listening..."
	case StatusPaused:
		return "Paused, waiting to translate..."
	case StatusTranslating:
		return "Translating..."
	default:
		return "Idle"
	}
}
