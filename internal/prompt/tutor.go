package prompt

import (
	"fmt"
	"strings"

	"github.com/happylearn/buddy/internal/tutor"
)

// DefaultTemperature is used for personalities the tutor does not know.
const DefaultTemperature = 0.7

// Personality keys understood by BuildTutorPrompt.
const (
	Encouraging = "encouraging"
	Formal      = "formal"
	Playful     = "playful"
)

// Profile is the tone and sampling temperature of a tutoring personality.
type Profile struct {
	Tone        string
	Temperature float64
	goal        string
}

var profiles = map[string]Profile{
	Encouraging: {
		Tone:        "warm, supportive, and motivational",
		Temperature: 0.7,
		goal:        "Celebrate progress and effort, no matter how small",
	},
	Formal: {
		Tone:        "precise, structured, and academic",
		Temperature: 0.3,
		goal:        "Maintain academic rigor and precision",
	},
	Playful: {
		Tone:        "fun, witty, and engaging",
		Temperature: 0.9,
		goal:        "Make learning fun with creative metaphors and humor",
	},
}

// Profiles returns the known personality keys in display order.
func Profiles() []string {
	return []string{Encouraging, Formal, Playful}
}

// LookupProfile returns the profile for personality. Unknown keys return a
// profile with no tone and DefaultTemperature.
func LookupProfile(personality string) (Profile, bool) {
	p, ok := profiles[personality]
	if !ok {
		return Profile{Temperature: DefaultTemperature}, false
	}
	return p, true
}

// Tutor is a rendered tutor system prompt and the temperature to sample with.
type Tutor struct {
	Text        string
	Temperature float64
}

// BuildTutorPrompt renders the personality-driven tutor prompt for subject.
// For an unknown personality the prompt is still rendered (without a tone)
// with DefaultTemperature, and an *ErrUnknownPersonality is returned so the
// caller can treat it as a configuration error.
func BuildTutorPrompt(personality, subject string) (Tutor, error) {
	profile, ok := LookupProfile(personality)

	var b strings.Builder
	b.WriteString("You are Happy, a friendly, supportive, and knowledgeable AI tutor who helps students learn in a simple, fun, and encouraging way.")
	if profile.Tone != "" {
		b.WriteString(fmt.Sprintf(" Your tone is %s.", profile.Tone))
	}
	b.WriteString("\n\n")
	b.WriteString(subjectClause(subject))
	b.WriteString("\n\n")

	b.WriteString(`Your goals:
- Explain concepts clearly, using examples and relatable language
- Motivate learners and praise their progress
- Be patient and non-judgmental
- Use emojis or friendly expressions occasionally for warmth 😊
- Encourage curiosity and lifelong learning
`)
	if profile.goal != "" {
		b.WriteString("- " + profile.goal + "\n")
	}

	b.WriteString(`
Your approach:
1. Break down complex topics into simple, digestible explanations
2. Use relatable examples and analogies
3. Ask thoughtful questions to encourage critical thinking
4. Adapt to the learner's pace and understanding level
5. Always help students build confidence and make learning feel rewarding

Remember: You're not just teaching, you're inspiring a love for learning! 🌟`)

	out := Tutor{Text: b.String(), Temperature: profile.Temperature}
	if !ok {
		return out, &ErrUnknownPersonality{Personality: personality}
	}
	return out, nil
}

func subjectClause(subject string) string {
	if subject == "" || subject == tutor.DefaultSubject {
		return "Help with any subject the learner needs."
	}
	return fmt.Sprintf("Focus on %s concepts and topics.", subject)
}
