package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	sess "github.com/happylearn/buddy/internal/chat"
	"github.com/happylearn/buddy/internal/router"
	"github.com/happylearn/buddy/internal/screen"
	chatscreen "github.com/happylearn/buddy/internal/screens/chat"
	"github.com/happylearn/buddy/internal/screens/gradepicker"
	"github.com/happylearn/buddy/internal/tutor"
	"github.com/happylearn/buddy/internal/ui/layout"
)

// Options configure the chat application.
type Options struct {
	Session *sess.Session

	// PickPath starts on the grade picker instead of the conversation.
	PickPath bool

	// Notice is shown above the composer on start, e.g. after a resumed
	// conversation.
	Notice string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	chat   *chatscreen.ChatScreen
	width  int
	height int
}

// newAppModel creates a new AppModel with the chat screen, or the grade
// picker leading into it.
func newAppModel(opts Options) AppModel {
	chat := chatscreen.New(opts.Session, opts.Notice)
	m := AppModel{chat: chat}

	if !opts.PickPath {
		m.router = router.New(chat)
		return m
	}

	picker := gradepicker.New(opts.Session.State().Progress.Context, func(ctx tutor.Context) tea.Cmd {
		return tea.Sequence(
			func() tea.Msg { return router.ReplaceScreenMsg{Screen: chat} },
			func() tea.Msg { return chatscreen.ContextChosenMsg{Context: ctx} },
		)
	})
	m.router = router.New(picker)
	return m
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case chatscreen.ContextChosenMsg:
		// The chat screen may not be on top yet when this arrives.
		_, cmd := m.chat.Update(msg)
		return m, cmd
	}

	cmd := m.router.Update(msg)
	if m.router.Active() != screen.Screen(m.chat) {
		// Keep streaming updates flowing while another screen is on top.
		if _, ok := msg.(tea.KeyMsg); !ok {
			_, chatCmd := m.chat.Update(msg)
			cmd = tea.Batch(cmd, chatCmd)
		}
	}
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.chat.HeaderStatus(), m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and blocks until the learner quits.
func Run(opts Options) error {
	if opts.Session == nil {
		return fmt.Errorf("app: session is required")
	}

	m := newAppModel(opts)
	defer m.chat.Close()

	p := tea.NewProgram(m)
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
