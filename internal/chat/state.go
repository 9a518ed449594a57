package chat

import (
	"slices"

	"github.com/happylearn/buddy/internal/tutor"
)

// WelcomeMessage is the assistant greeting every session starts with.
const WelcomeMessage = "Habari! I'm Happy, your friendly CBC tutor! 😊 I'm here to help you learn using the Kenyan Competency-Based Curriculum. What would you like to explore today?"

// State is a snapshot of a chat session.
type State struct {
	Messages []tutor.Message

	// Busy is true while a send is in flight.
	Busy bool

	// Input holds text handed back to the composer, e.g. by RetryLast.
	Input string

	Progress  tutor.Progress
	LastError string

	// streaming is true while Messages ends with the in-progress
	// assistant placeholder.
	streaming bool
}

// Streaming reports whether the last message is still being written.
func (s State) Streaming() bool {
	return s.streaming
}

func (s State) clone() State {
	s.Messages = slices.Clone(s.Messages)
	return s
}

func initialState(ctx tutor.Context) State {
	return State{
		Messages: []tutor.Message{{Role: tutor.RoleAssistant, Content: WelcomeMessage}},
		Progress: tutor.Progress{Context: ctx.WithDefaults()},
	}
}

// action is a single state transition. All mutation goes through
// Session.dispatch.
type action interface {
	apply(*State)
}

type appendUser struct{ text string }

func (a appendUser) apply(s *State) {
	s.Messages = append(s.Messages, tutor.Message{Role: tutor.RoleUser, Content: a.text})
	s.Progress.QuestionsAsked++
}

type appendPlaceholder struct{}

func (appendPlaceholder) apply(s *State) {
	s.Messages = append(s.Messages, tutor.Message{Role: tutor.RoleAssistant})
	s.streaming = true
}

type appendDelta struct{ text string }

func (a appendDelta) apply(s *State) {
	if !s.streaming || len(s.Messages) == 0 {
		return
	}
	last := &s.Messages[len(s.Messages)-1]
	last.Content += a.text
}

type finishPlaceholder struct{}

func (finishPlaceholder) apply(s *State) {
	s.streaming = false
}

type rollbackPlaceholder struct{}

func (rollbackPlaceholder) apply(s *State) {
	if !s.streaming {
		return
	}
	s.Messages = s.Messages[:len(s.Messages)-1]
	s.streaming = false
}

type setBusy struct{ busy bool }

func (a setBusy) apply(s *State) {
	s.Busy = a.busy
}

type setError struct{ msg string }

func (a setError) apply(s *State) {
	s.LastError = a.msg
}

type setInput struct{ text string }

func (a setInput) apply(s *State) {
	s.Input = a.text
}

type dropLastUser struct{}

func (dropLastUser) apply(s *State) {
	n := len(s.Messages)
	if n > 1 && s.Messages[n-1].Role == tutor.RoleUser {
		s.Messages = s.Messages[:n-1]
	}
}

type setContext struct{ ctx tutor.Context }

func (a setContext) apply(s *State) {
	s.Progress.Context = a.ctx.WithDefaults()
}

type replaceMessages struct{ messages []tutor.Message }

func (a replaceMessages) apply(s *State) {
	s.Messages = slices.Clone(a.messages)
	s.streaming = false
}
