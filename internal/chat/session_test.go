package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happylearn/buddy/internal/client"
	"github.com/happylearn/buddy/internal/store"
	"github.com/happylearn/buddy/internal/tutor"
)

type fakeResponse struct {
	body   io.ReadCloser
	stream string
	err    error
}

type fakeStreamer struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []client.Request
}

func (f *fakeStreamer) Stream(_ context.Context, req client.Request) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if len(f.responses) == 0 {
		return nil, &client.APIError{Status: 500, Message: "no canned response"}
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	switch {
	case resp.err != nil:
		return nil, resp.err
	case resp.body != nil:
		return resp.body, nil
	default:
		return io.NopCloser(strings.NewReader(resp.stream)), nil
	}
}

func (f *fakeStreamer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeHistory struct {
	mu      sync.Mutex
	records map[string]store.ChatHistory
	upserts int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{records: make(map[string]store.ChatHistory)}
}

func (f *fakeHistory) Upsert(_ context.Context, h store.ChatHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[h.UserID] = h
	f.upserts++
	return nil
}

func (f *fakeHistory) Get(_ context.Context, userID string) (*store.ChatHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (f *fakeHistory) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, userID)
	return nil
}

func deltaLine(s string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", s)
}

func TestSession_StartsWithWelcome(t *testing.T) {
	s := NewSession(&fakeStreamer{}, tutor.Context{}, Options{})
	st := s.State()

	require.Len(t, st.Messages, 1)
	assert.Equal(t, tutor.RoleAssistant, st.Messages[0].Role)
	assert.Equal(t, WelcomeMessage, st.Messages[0].Content)
	assert.Equal(t, tutor.DefaultContext(), st.Progress.Context)
}

func TestSession_SendStreamsReply(t *testing.T) {
	streamer := &fakeStreamer{responses: []fakeResponse{{
		stream: deltaLine("Hi") + deltaLine(" there") + "data: [DONE]\n\n",
	}}}
	history := newFakeHistory()
	s := NewSession(streamer, tutor.Context{Grade: "Grade 5", Subject: "Mathematics"}, Options{
		UserID:  "learner-1",
		History: history,
	})

	require.NoError(t, s.Send(context.Background(), "Hello"))

	want := []tutor.Message{
		{Role: tutor.RoleAssistant, Content: WelcomeMessage},
		{Role: tutor.RoleUser, Content: "Hello"},
		{Role: tutor.RoleAssistant, Content: "Hi there"},
	}
	st := s.State()
	if diff := cmp.Diff(want, st.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, st.Busy)
	assert.False(t, st.Streaming())
	assert.Empty(t, st.LastError)
	assert.Equal(t, 1, st.Progress.QuestionsAsked)

	require.Len(t, streamer.calls, 1)
	call := streamer.calls[0]
	assert.Equal(t, "Grade 5", call.Grade)
	assert.Equal(t, "Mathematics", call.Subject)
	if diff := cmp.Diff(want[:2], call.Messages); diff != "" {
		t.Errorf("request window mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 1, history.upserts)
	saved := history.records["learner-1"]
	assert.Equal(t, "Grade 5", saved.Grade)
	if diff := cmp.Diff(want, saved.Messages); diff != "" {
		t.Errorf("persisted messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SendRefusesBlank(t *testing.T) {
	streamer := &fakeStreamer{}
	s := NewSession(streamer, tutor.Context{}, Options{})
	before := s.State()

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, s.Send(context.Background(), text), ErrEmptyInput)
	}
	assert.Zero(t, streamer.callCount())
	if diff := cmp.Diff(before, s.State(), cmp.AllowUnexported(State{})); diff != "" {
		t.Errorf("state changed (-before +after):\n%s", diff)
	}
}

func TestSession_SendWhileBusy(t *testing.T) {
	pr, pw := io.Pipe()
	streamer := &fakeStreamer{responses: []fakeResponse{{body: pr}}}
	s := NewSession(streamer, tutor.Context{}, Options{})

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "first") }()

	require.Eventually(t, func() bool { return s.State().Streaming() }, 2*time.Second, 5*time.Millisecond)
	busy := s.State()

	assert.ErrorIs(t, s.Send(context.Background(), "second"), ErrBusy)
	assert.Equal(t, 1, streamer.callCount())
	assert.Len(t, s.State().Messages, len(busy.Messages))

	_, err := io.WriteString(pw, deltaLine("ok"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
	assert.False(t, s.State().Busy)
}

func TestSession_RollbackOnFetchError(t *testing.T) {
	streamer := &fakeStreamer{responses: []fakeResponse{{
		err: &client.APIError{Status: 429, Message: "Pole! Too many requests. Please try again in a moment."},
	}}}
	history := newFakeHistory()
	s := NewSession(streamer, tutor.Context{}, Options{UserID: "learner-1", History: history})
	pre := len(s.State().Messages)

	err := s.Send(context.Background(), "What is 2+2?")
	require.Error(t, err)

	st := s.State()
	require.Len(t, st.Messages, pre+1)
	assert.Equal(t, tutor.Message{Role: tutor.RoleUser, Content: "What is 2+2?"}, st.Messages[pre])
	assert.Equal(t, "Pole! Too many requests. Please try again in a moment.", st.LastError)
	assert.False(t, st.Busy)
	assert.Zero(t, history.upserts)
}

func TestSession_RollbackOnStreamError(t *testing.T) {
	body := io.NopCloser(io.MultiReader(
		strings.NewReader(deltaLine("Half an ans")),
		iotest.ErrReader(io.ErrUnexpectedEOF),
	))
	streamer := &fakeStreamer{responses: []fakeResponse{{body: body}}}
	history := newFakeHistory()
	s := NewSession(streamer, tutor.Context{}, Options{UserID: "learner-1", History: history})
	pre := len(s.State().Messages)

	require.ErrorIs(t, s.Send(context.Background(), "Explain photosynthesis"), io.ErrUnexpectedEOF)

	st := s.State()
	require.Len(t, st.Messages, pre+1)
	assert.Equal(t, tutor.RoleUser, st.Messages[pre].Role)
	assert.False(t, st.Streaming())
	assert.NotEmpty(t, st.LastError)
	assert.Zero(t, history.upserts)
}

func TestSession_EmptyReplyRollsBack(t *testing.T) {
	streamer := &fakeStreamer{responses: []fakeResponse{{stream: "data: [DONE]\n\n"}}}
	history := newFakeHistory()
	s := NewSession(streamer, tutor.Context{}, Options{UserID: "learner-1", History: history})

	require.ErrorIs(t, s.Send(context.Background(), "Hello?"), ErrEmptyReply)

	st := s.State()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, emptyReplyError, st.LastError)
	assert.Zero(t, history.upserts)
}

func TestSession_MalformedEventSkipped(t *testing.T) {
	streamer := &fakeStreamer{responses: []fakeResponse{{
		stream: deltaLine("Nzuri") + "data: {broken\n" + deltaLine(" sana") + "data: [DONE]\n",
	}}}
	s := NewSession(streamer, tutor.Context{}, Options{})

	require.NoError(t, s.Send(context.Background(), "How am I doing?"))
	last, _ := tutor.Conversation(s.State().Messages).Last()
	assert.Equal(t, "Nzuri sana", last.Content)
}

func TestSession_WindowLimitsHistory(t *testing.T) {
	history := newFakeHistory()
	var saved []tutor.Message
	for i := range 20 {
		role := tutor.RoleUser
		if i%2 == 1 {
			role = tutor.RoleAssistant
		}
		saved = append(saved, tutor.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	require.NoError(t, history.Upsert(context.Background(), store.ChatHistory{
		UserID: "learner-1", Grade: "Grade 7", Subject: "English", Messages: saved,
	}))

	streamer := &fakeStreamer{responses: []fakeResponse{{stream: deltaLine("ok")}}}
	s := NewSession(streamer, tutor.Context{}, Options{UserID: "learner-1", History: history})

	restored, err := s.Resume(context.Background())
	require.NoError(t, err)
	require.True(t, restored)
	assert.Equal(t, "Grade 7", s.State().Progress.Context.Grade)

	require.NoError(t, s.Send(context.Background(), "next"))

	call := streamer.calls[0]
	require.Len(t, call.Messages, tutor.DefaultWindowSize+1)
	assert.Equal(t, "m8", call.Messages[0].Content)
	assert.Equal(t, "m19", call.Messages[11].Content)
	assert.Equal(t, tutor.Message{Role: tutor.RoleUser, Content: "next"}, call.Messages[12])
	assert.Equal(t, "Grade 7", call.Grade)
	assert.Len(t, s.State().Messages, 22)
}

func TestSession_RetryLast(t *testing.T) {
	streamer := &fakeStreamer{responses: []fakeResponse{
		{err: &client.APIError{Status: 500, Message: "AI gateway error: 503"}},
		{stream: deltaLine("Here you go")},
	}}
	s := NewSession(streamer, tutor.Context{}, Options{})

	_, ok := s.RetryLast()
	assert.False(t, ok, "welcome message alone is not retryable")

	require.Error(t, s.Send(context.Background(), "Teach me fractions"))

	text, ok := s.RetryLast()
	require.True(t, ok)
	assert.Equal(t, "Teach me fractions", text)

	st := s.State()
	assert.Len(t, st.Messages, 1)
	assert.Equal(t, "Teach me fractions", st.Input)
	assert.Empty(t, st.LastError)

	require.NoError(t, s.Send(context.Background(), st.Input))
	assert.Len(t, s.State().Messages, 3)
	assert.Empty(t, s.State().Input)

	_, ok = s.RetryLast()
	assert.False(t, ok, "answered question is not retryable")
}

func TestSession_SetContext(t *testing.T) {
	streamer := &fakeStreamer{responses: []fakeResponse{{stream: deltaLine("Sawa")}}}
	s := NewSession(streamer, tutor.Context{}, Options{})

	ctx := s.SetContext("Grade 6", "")
	assert.Equal(t, tutor.Context{Grade: "Grade 6", Subject: tutor.DefaultSubject}, ctx)

	require.NoError(t, s.Send(context.Background(), "Habari"))
	assert.Equal(t, "Grade 6", streamer.calls[0].Grade)
	assert.Equal(t, tutor.DefaultSubject, streamer.calls[0].Subject)
}

func TestSession_Subscribe(t *testing.T) {
	streamer := &fakeStreamer{responses: []fakeResponse{{stream: deltaLine("a") + deltaLine("b")}}}
	s := NewSession(streamer, tutor.Context{}, Options{})

	var mu sync.Mutex
	var contents []string
	unsubscribe := s.Subscribe(func(st State) {
		if !st.Streaming() {
			return
		}
		last, _ := tutor.Conversation(st.Messages).Last()
		mu.Lock()
		contents = append(contents, last.Content)
		mu.Unlock()
	})

	require.NoError(t, s.Send(context.Background(), "go"))
	unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "a", "ab"}, contents)
}

func TestLearningPathNotice(t *testing.T) {
	assert.Equal(t, "Learning Path Updated: now focusing on Grade 3 - Kiswahili",
		LearningPathNotice(tutor.Context{Grade: "Grade 3", Subject: "Kiswahili"}))
	assert.Contains(t, Quotes, RandomQuote())
}
