package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/happylearn/buddy/internal/tutor"
	"github.com/happylearn/buddy/internal/ui/theme"
)

const cursor = "▌"

func (s *ChatScreen) View(width, height int) string {
	bubbleWidth := width - 6
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}
	s.input.SetWidth(width - 6)

	top := theme.Quote.Width(width).Render(s.quote)

	var bottom strings.Builder
	if s.state.Busy && !s.state.Streaming() {
		bottom.WriteString(theme.Hint.Render("  Happy is thinking..."))
		bottom.WriteString("\n")
	}
	if s.state.LastError != "" {
		line := "  " + s.state.LastError
		if s.canRetry() {
			line += "  (Ctrl+R to retry)"
		}
		bottom.WriteString(theme.ErrorText.Render(line))
		bottom.WriteString("\n")
	}
	if s.notice != "" {
		bottom.WriteString(theme.Notice.Render("  " + s.notice))
		bottom.WriteString("\n")
	}
	bottom.WriteString("  " + s.input.View())

	available := height - lipgloss.Height(top) - lipgloss.Height(bottom.String()) - 2
	conversation := tail(s.renderMessages(bubbleWidth), available)

	return top + "\n\n" + conversation + "\n" + bottom.String()
}

// renderMessages renders the whole conversation, oldest first.
func (s *ChatScreen) renderMessages(width int) string {
	blocks := make([]string, 0, len(s.state.Messages))
	for i, m := range s.state.Messages {
		content := m.Content
		if s.state.Streaming() && i == len(s.state.Messages)-1 {
			content += cursor
		}

		var label, bubble string
		switch m.Role {
		case tutor.RoleUser:
			label = theme.UserLabel.Render("  You")
			bubble = theme.UserBubble.Width(width).Render(content)
		default:
			label = theme.TutorLabel.Render("  Happy")
			bubble = theme.TutorBubble.Width(width).Render(content)
		}
		blocks = append(blocks, label+"\n"+indent(bubble, "  "))
	}
	return strings.Join(blocks, "\n")
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
