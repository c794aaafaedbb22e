// Package quiz runs multiple-choice quizzes generated from a note's action
// items and keeps the graded history on the note.
package quiz

import (
	"errors"
	"fmt"
)

// State is the phase of a single quiz attempt.
type State int

const (
	Idle State = iota
	Generating
	InProgress
	Scoring
	Complete
)

var stateNames = [...]string{"idle", "generating", "in_progress", "scoring", "complete"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event drives a transition.
type Event int

const (
	EventStart Event = iota
	EventGenerated
	EventGenerateFailed
	EventAnswer
	EventNext
	EventPrevious
	EventFinish
	EventScored
	EventRetake
	EventClose
)

var eventNames = [...]string{
	"start", "generated", "generate_failed", "answer", "next",
	"previous", "finish", "scored", "retake", "close",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// ErrIllegalTransition is returned for an event the current state does not accept.
var ErrIllegalTransition = errors.New("quiz: illegal transition")

// Transition returns the state that follows event in state s.
//
// A Start while Generating supersedes the running generation. Close is
// accepted from every live state and abandons the attempt.
func Transition(s State, ev Event) (State, error) {
	switch s {
	case Idle:
		if ev == EventStart {
			return Generating, nil
		}
	case Generating:
		switch ev {
		case EventStart:
			return Generating, nil
		case EventGenerated:
			return InProgress, nil
		case EventGenerateFailed, EventClose:
			return Idle, nil
		}
	case InProgress:
		switch ev {
		case EventAnswer, EventNext, EventPrevious:
			return InProgress, nil
		case EventFinish:
			return Scoring, nil
		case EventClose:
			return Idle, nil
		}
	case Scoring:
		if ev == EventScored {
			return Complete, nil
		}
	case Complete:
		switch ev {
		case EventRetake:
			return Generating, nil
		case EventClose:
			return Idle, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s)
}
