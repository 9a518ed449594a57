// Package chat is the conversation screen: it renders the session and
// streams the tutor's replies as they arrive.
package chat

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"

	sess "github.com/happylearn/buddy/internal/chat"
	"github.com/happylearn/buddy/internal/router"
	"github.com/happylearn/buddy/internal/screen"
	"github.com/happylearn/buddy/internal/screens/gradepicker"
	"github.com/happylearn/buddy/internal/tutor"
	"github.com/happylearn/buddy/internal/ui/components"
	"github.com/happylearn/buddy/internal/ui/layout"
)

// ChatScreen implements screen.Screen for the tutor conversation.
type ChatScreen struct {
	session     *sess.Session
	updates     chan sess.State
	unsubscribe func()
	state       sess.State
	input       components.TextInput
	quote       string
	notice      string

	// cancel stops the in-flight send started by this screen; nil when
	// none is running. sendID tags that send.
	cancel context.CancelFunc
	sendID int
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.StatusProvider = (*ChatScreen)(nil)

// New creates a ChatScreen for session. notice, if set, is shown above the
// composer until the first message is sent.
func New(session *sess.Session, notice string) *ChatScreen {
	return &ChatScreen{
		session: session,
		updates: make(chan sess.State, 1),
		state:   session.State(),
		input:   components.NewTextInput("Ask Happy anything...", 0),
		quote:   sess.RandomQuote(),
		notice:  notice,
	}
}

func (s *ChatScreen) Init() tea.Cmd {
	if s.unsubscribe == nil {
		s.unsubscribe = s.session.Subscribe(s.publish)
	}
	return tea.Batch(
		waitForState(s.updates),
		s.input.Init(),
	)
}

// publish hands the newest snapshot to the UI. Older undelivered snapshots
// are dropped.
func (s *ChatScreen) publish(st sess.State) {
	for {
		select {
		case s.updates <- st:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func waitForState(ch <-chan sess.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func (s *ChatScreen) Title() string {
	return "Chat with Happy"
}

func (s *ChatScreen) HeaderStatus() layout.HeaderStatus {
	return layout.HeaderStatus{
		Grade:          s.state.Progress.Context.Grade,
		Subject:        s.state.Progress.Context.Subject,
		QuestionsAsked: s.state.Progress.QuestionsAsked,
	}
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.sending() {
		return []layout.KeyHint{
			{Key: "Ctrl+X", Description: "Stop"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+G", Description: "Grade & subject"},
	}
	if s.canRetry() {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "Retry"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *ChatScreen) canRetry() bool {
	last, ok := tutor.Conversation(s.state.Messages).Last()
	return ok && len(s.state.Messages) > 1 && last.Role == tutor.RoleUser
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		s.state = sess.State(msg)
		return s, waitForState(s.updates)

	case sendDoneMsg:
		if msg.ID != s.sendID {
			return s, nil
		}
		s.cancel = nil
		if msg.Refused && s.input.Value() == "" {
			s.input.SetValue(msg.Text)
		}
		return s, nil

	case ContextChosenMsg:
		ctx := s.session.SetContext(msg.Context.Grade, msg.Context.Subject)
		s.notice = sess.LearningPathNotice(ctx)
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ChatScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := s.input.Value()
		if strings.TrimSpace(text) == "" || s.sending() {
			return s, nil
		}
		s.input.Reset()
		s.notice = ""
		return s, s.send(text)

	case "ctrl+r":
		if text, ok := s.session.RetryLast(); ok {
			s.input.SetValue(text)
		}
		return s, nil

	case "ctrl+x":
		if s.cancel != nil {
			s.cancel()
		}
		return s, nil

	case "ctrl+g":
		if s.sending() {
			return s, nil
		}
		picker := gradepicker.New(s.state.Progress.Context, func(ctx tutor.Context) tea.Cmd {
			return tea.Sequence(
				func() tea.Msg { return router.PopScreenMsg{} },
				func() tea.Msg { return ContextChosenMsg{Context: ctx} },
			)
		})
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: picker} }
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// sending reports whether a send is in flight. The last delivered
// snapshot can lag behind a send this screen has already started.
func (s *ChatScreen) sending() bool {
	return s.cancel != nil || s.state.Busy
}

// send runs Session.Send off the UI goroutine. Progress arrives through
// the subscription.
func (s *ChatScreen) send(text string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	s.sendID++
	s.cancel = cancel
	id, session := s.sendID, s.session
	return func() tea.Msg {
		defer cancel()
		done := sendDoneMsg{ID: id, Text: text}
		err := session.Send(ctx, text)
		if errors.Is(err, sess.ErrEmptyInput) || errors.Is(err, sess.ErrBusy) {
			done.Refused = true
			err = nil
		}
		done.Err = err
		return done
	}
}

// Close removes the session subscription.
func (s *ChatScreen) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
}
