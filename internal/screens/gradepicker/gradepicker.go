// Package gradepicker lets the learner choose a CBC grade and subject.
package gradepicker

import (
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/happylearn/buddy/internal/screen"
	"github.com/happylearn/buddy/internal/tutor"
	"github.com/happylearn/buddy/internal/ui/components"
	"github.com/happylearn/buddy/internal/ui/layout"
	"github.com/happylearn/buddy/internal/ui/theme"
)

type step int

const (
	stepGrade step = iota
	stepSubject
)

// DoneFunc returns the command to run once a grade and subject are chosen.
type DoneFunc func(tutor.Context) tea.Cmd

// PickerScreen implements screen.Screen for the learning path selector.
type PickerScreen struct {
	step     step
	grades   components.Menu
	subjects components.Menu
	grade    string
	onDone   DoneFunc
}

var _ screen.Screen = (*PickerScreen)(nil)
var _ screen.KeyHintProvider = (*PickerScreen)(nil)

// New creates a picker with current preselected.
func New(current tutor.Context, onDone DoneFunc) *PickerScreen {
	current = current.WithDefaults()
	return &PickerScreen{
		grades:   menuFor(tutor.Grades, current.Grade),
		subjects: menuFor(tutor.Subjects, current.Subject),
		onDone:   onDone,
	}
}

func menuFor(labels []string, selected string) components.Menu {
	items := make([]components.MenuItem, len(labels))
	for i, l := range labels {
		items[i] = components.MenuItem{Label: l}
	}
	m := components.NewMenu(items)
	if i := slices.Index(labels, selected); i >= 0 {
		m.Selected = i
	}
	return m
}

func (p *PickerScreen) Init() tea.Cmd {
	return nil
}

func (p *PickerScreen) Title() string {
	return "Choose Your Learning Path"
}

func (p *PickerScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
	}
	if p.step == stepSubject {
		hints = append(hints, layout.KeyHint{Key: "Backspace", Description: "Grade"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (p *PickerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch kmsg.String() {
	case "enter":
		return p.choose()
	case "backspace":
		if p.step == stepSubject {
			p.step = stepGrade
		}
		return p, nil
	}

	var cmd tea.Cmd
	if p.step == stepGrade {
		p.grades, cmd = p.grades.Update(msg)
	} else {
		p.subjects, cmd = p.subjects.Update(msg)
	}
	return p, cmd
}

func (p *PickerScreen) choose() (screen.Screen, tea.Cmd) {
	if p.step == stepGrade {
		item, ok := p.grades.Current()
		if !ok {
			return p, nil
		}
		p.grade = item.Label
		p.step = stepSubject
		return p, nil
	}

	item, ok := p.subjects.Current()
	if !ok || p.onDone == nil {
		return p, nil
	}
	return p, p.onDone(tutor.Context{Grade: p.grade, Subject: item.Label})
}

func (p *PickerScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString("\n")
	if p.step == stepGrade {
		b.WriteString(theme.Title.Width(width).Render("Which grade are you in?"))
		b.WriteString("\n\n")
		b.WriteString(p.grades.View())
	} else {
		b.WriteString(theme.Title.Width(width).Render("What would you like to learn?"))
		b.WriteString("\n")
		b.WriteString(theme.Subtitle.Width(width).Render(p.grade))
		b.WriteString("\n\n")
		b.WriteString(p.subjects.View())
	}

	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(b.String())
}
