package gradepicker

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/happylearn/buddy/internal/tutor"
)

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestPicker_ChoosesGradeThenSubject(t *testing.T) {
	var got tutor.Context
	p := New(tutor.Context{}, func(ctx tutor.Context) tea.Cmd {
		got = ctx
		return nil
	})

	// Grade 1 preselected; move to Grade 3.
	p.Update(specialKey(tea.KeyDown))
	p.Update(specialKey(tea.KeyDown))
	p.Update(specialKey(tea.KeyEnter))

	if p.step != stepSubject {
		t.Fatalf("expected subject step after choosing grade")
	}
	if p.grade != "Grade 3" {
		t.Fatalf("expected 'Grade 3', got %q", p.grade)
	}

	// General Learning preselected; move to Mathematics.
	p.Update(specialKey(tea.KeyDown))
	p.Update(specialKey(tea.KeyEnter))

	want := tutor.Context{Grade: "Grade 3", Subject: "Mathematics"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestPicker_PreselectsCurrent(t *testing.T) {
	p := New(tutor.Context{Grade: "Grade 7", Subject: "Kiswahili"}, nil)

	if item, _ := p.grades.Current(); item.Label != "Grade 7" {
		t.Fatalf("expected Grade 7 preselected, got %q", item.Label)
	}
	if item, _ := p.subjects.Current(); item.Label != "Kiswahili" {
		t.Fatalf("expected Kiswahili preselected, got %q", item.Label)
	}
}

func TestPicker_BackspaceReturnsToGrade(t *testing.T) {
	p := New(tutor.Context{}, nil)
	p.Update(specialKey(tea.KeyEnter))
	p.Update(specialKey(tea.KeyBackspace))

	if p.step != stepGrade {
		t.Fatal("expected grade step after backspace")
	}
}

func TestPicker_View(t *testing.T) {
	p := New(tutor.Context{}, nil)
	if v := p.View(80, 20); v == "" {
		t.Fatal("expected non-empty view")
	}
}
