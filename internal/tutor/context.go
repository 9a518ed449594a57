package tutor

import "slices"

const (
	DefaultGrade   = "Grade 1"
	DefaultSubject = "General Learning"
)

// Grades lists the CBC grade levels the tutor supports.
var Grades = []string{
	"Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5",
	"Grade 6", "Grade 7", "Grade 8", "Grade 9",
}

// Subjects lists the learning areas offered by the grade picker. The proxy
// accepts any subject text; this list only drives the client UI.
var Subjects = []string{
	DefaultSubject,
	"Mathematics",
	"English",
	"Kiswahili",
	"Science & Technology",
	"Social Studies",
	"Creative Arts",
	"Agriculture",
	"Religious Education",
}

// Context is the grade and subject a learner is working on.
type Context struct {
	Grade   string `json:"grade"`
	Subject string `json:"subject"`
}

// DefaultContext returns the context used when none has been chosen.
func DefaultContext() Context {
	return Context{Grade: DefaultGrade, Subject: DefaultSubject}
}

// WithDefaults fills empty fields with DefaultGrade and DefaultSubject.
func (c Context) WithDefaults() Context {
	if c.Grade == "" {
		c.Grade = DefaultGrade
	}
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	return c
}

// IsKnownGrade reports whether grade is one of Grades.
func IsKnownGrade(grade string) bool {
	return slices.Contains(Grades, grade)
}

// Progress is the session-scoped learning progress the chat client keeps.
type Progress struct {
	Context        Context
	QuestionsAsked int
}
