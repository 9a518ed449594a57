package app

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "charm.land/bubbletea/v2"

	sess "github.com/happylearn/buddy/internal/chat"
	"github.com/happylearn/buddy/internal/client"
	"github.com/happylearn/buddy/internal/router"
	chatscreen "github.com/happylearn/buddy/internal/screens/chat"
	"github.com/happylearn/buddy/internal/tutor"
)

type noStream struct{}

func (noStream) Stream(context.Context, client.Request) (io.ReadCloser, error) {
	return nil, errors.New("offline")
}

func newSession() *sess.Session {
	return sess.NewSession(noStream{}, tutor.Context{}, sess.Options{})
}

func TestNewAppModel_StartsOnChat(t *testing.T) {
	m := newAppModel(Options{Session: newSession()})
	if got := m.router.Active().Title(); got != "Chat with Happy" {
		t.Fatalf("expected chat screen, got %q", got)
	}
}

func TestNewAppModel_PickPathLeadsToChat(t *testing.T) {
	session := newSession()
	m := newAppModel(Options{Session: session, PickPath: true})
	if got := m.router.Active().Title(); got != "Choose Your Learning Path" {
		t.Fatalf("expected picker, got %q", got)
	}

	m.router.Update(router.ReplaceScreenMsg{Screen: m.chat})
	updated, _ := m.Update(chatscreen.ContextChosenMsg{Context: tutor.Context{Grade: "Grade 2", Subject: "English"}})
	m = updated.(AppModel)

	if got := m.router.Active().Title(); got != "Chat with Happy" {
		t.Fatalf("expected chat screen after choosing, got %q", got)
	}
	if got := session.State().Progress.Context.Grade; got != "Grade 2" {
		t.Fatalf("expected Grade 2, got %q", got)
	}
	m.chat.Close()
}

func TestAppModel_ViewTooSmall(t *testing.T) {
	m := newAppModel(Options{Session: newSession()})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	m = updated.(AppModel)
	if m.width != 20 || m.height != 10 {
		t.Fatalf("expected size recorded, got %dx%d", m.width, m.height)
	}
	if v := m.View(); v.Content == nil || !v.AltScreen {
		t.Fatal("expected alt-screen view with content")
	}
}
