// Package chat holds the client-side tutoring session: the conversation,
// the in-flight send and the learner's progress.
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/happylearn/buddy/internal/client"
	"github.com/happylearn/buddy/internal/sse"
	"github.com/happylearn/buddy/internal/store"
	"github.com/happylearn/buddy/internal/tutor"
)

// Streamer opens a tutor stream. *client.Client implements it.
type Streamer interface {
	Stream(ctx context.Context, req client.Request) (io.ReadCloser, error)
}

// Options configure a Session.
type Options struct {
	// UserID keys persisted history. Empty disables persistence.
	UserID string

	// History persists the conversation after each successful reply.
	History store.HistoryRepo

	// WindowSize is the number of prior messages sent with each question.
	// Default: tutor.DefaultWindowSize.
	WindowSize int

	Logger *zap.Logger
}

// Session is one learner's conversation with the tutor. It is safe for
// concurrent use; at most one Send runs at a time.
type Session struct {
	streamer Streamer
	opts     Options
	logger   *zap.Logger

	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

// NewSession creates a session starting with the welcome message.
func NewSession(streamer Streamer, ctx tutor.Context, opts Options) *Session {
	if opts.WindowSize <= 0 {
		opts.WindowSize = tutor.DefaultWindowSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		streamer: streamer,
		opts:     opts,
		logger:   logger,
		state:    initialState(ctx),
		subs:     make(map[int]func(State)),
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every mutation. It
// returns a function that removes the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// dispatch applies actions atomically and notifies subscribers.
func (s *Session) dispatch(actions ...action) {
	_, _ = s.update(nil, actions...)
}

// update applies actions atomically when check (if any) accepts the current
// state. It returns the state as it was before the actions.
func (s *Session) update(check func(State) error, actions ...action) (State, error) {
	s.mu.Lock()
	if check != nil {
		if err := check(s.state); err != nil {
			s.mu.Unlock()
			return State{}, err
		}
	}
	before := s.state.clone()
	for _, a := range actions {
		a.apply(&s.state)
	}
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return before, nil
}

// Send asks the tutor text and streams the reply into the conversation.
// Blank text returns ErrEmptyInput and a send already in flight returns
// ErrBusy; neither changes state. On a failed exchange the user message
// stays in the conversation, any partial reply is removed and LastError
// describes the failure.
func (s *Session) Send(ctx context.Context, text string) error {
	before, err := s.update(func(st State) error {
		if strings.TrimSpace(text) == "" {
			return ErrEmptyInput
		}
		if st.Busy {
			return ErrBusy
		}
		return nil
	}, appendUser{text: text}, setBusy{busy: true}, setInput{}, setError{})
	if err != nil {
		return err
	}

	userMsg := tutor.Message{Role: tutor.RoleUser, Content: text}
	tc := before.Progress.Context
	window := tutor.Window(before.Messages, userMsg, s.opts.WindowSize)

	reply, err := s.stream(ctx, client.Request{
		Messages: window,
		Grade:    tc.Grade,
		Subject:  tc.Subject,
	})
	if err != nil {
		s.logger.Warn("tutor exchange failed", zap.Error(err))
		s.dispatch(rollbackPlaceholder{}, setError{msg: userError(err)}, setBusy{busy: false})
		return err
	}

	final := s.State()
	s.persist(ctx, tc, final.Messages)
	s.logger.Debug("tutor exchange complete",
		zap.Int("reply_bytes", len(reply)),
		zap.Int("window", len(window)))
	s.dispatch(finishPlaceholder{}, setBusy{busy: false})
	return nil
}

// stream runs one request and feeds the deltas into the placeholder. It
// returns the full reply.
func (s *Session) stream(ctx context.Context, req client.Request) (string, error) {
	body, err := s.streamer.Stream(ctx, req)
	if err != nil {
		return "", err
	}
	defer body.Close()

	s.dispatch(appendPlaceholder{})

	onMalformed := func(payload string) {
		s.logger.Warn("skipping malformed stream event", zap.String("payload", payload))
	}

	var reply strings.Builder
	for delta, err := range sse.Deltas(body, onMalformed) {
		if err != nil {
			return "", err
		}
		reply.WriteString(delta)
		s.dispatch(appendDelta{text: delta})
	}

	if reply.Len() == 0 {
		return "", ErrEmptyReply
	}
	return reply.String(), nil
}

// persist saves the conversation. Failures are logged; the exchange itself
// already succeeded.
func (s *Session) persist(ctx context.Context, tc tutor.Context, messages []tutor.Message) {
	if s.opts.History == nil || s.opts.UserID == "" {
		return
	}
	err := s.opts.History.Upsert(context.WithoutCancel(ctx), store.ChatHistory{
		UserID:    s.opts.UserID,
		Grade:     tc.Grade,
		Subject:   tc.Subject,
		Messages:  messages,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to save chat history",
			zap.String("user_id", s.opts.UserID),
			zap.Error(err))
	}
}

// RetryLast removes a trailing unanswered user message and hands its text
// back as Input. It reports whether anything was removed.
func (s *Session) RetryLast() (string, bool) {
	var text string
	_, err := s.update(func(st State) error {
		n := len(st.Messages)
		if st.Busy || n <= 1 || st.Messages[n-1].Role != tutor.RoleUser {
			return errNothingToRetry
		}
		text = st.Messages[n-1].Content
		return nil
	}, dropLastUser{}, setError{})
	if err != nil {
		return "", false
	}
	s.dispatch(setInput{text: text})
	return text, true
}

var errNothingToRetry = errors.New("nothing to retry")

// SetContext changes the grade and subject sent with later questions.
func (s *Session) SetContext(grade, subject string) tutor.Context {
	ctx := tutor.Context{Grade: grade, Subject: subject}.WithDefaults()
	s.dispatch(setContext{ctx: ctx})
	return ctx
}

// Resume loads the learner's saved conversation, if any. It reports
// whether a conversation was restored.
func (s *Session) Resume(ctx context.Context) (bool, error) {
	if s.opts.History == nil || s.opts.UserID == "" {
		return false, nil
	}
	h, err := s.opts.History.Get(ctx, s.opts.UserID)
	if err != nil {
		return false, err
	}
	if h == nil || len(h.Messages) == 0 {
		return false, nil
	}

	_, err = s.update(func(st State) error {
		if st.Busy {
			return ErrBusy
		}
		return nil
	}, replaceMessages{messages: h.Messages}, setContext{ctx: tutor.Context{Grade: h.Grade, Subject: h.Subject}})
	if err != nil {
		return false, err
	}
	return true, nil
}

// userError is the text shown to the learner for err.
func userError(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrEmptyReply):
		return emptyReplyError
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case err.Error() == "":
		return fallbackError
	default:
		return err.Error()
	}
}
