package chat

import (
	"fmt"
	"math/rand/v2"

	"github.com/happylearn/buddy/internal/tutor"
)

// Quotes are the motivational lines shown above the conversation.
var Quotes = []string{
	"Keep going, you're doing great! Nzuri sana! 🌟",
	"Every question brings you closer to mastery! Hongera! 📚",
	"Learning is a journey, not a race! Endelea! 🚀",
	"You're making amazing progress! Vizuri! 🎓",
	"Curiosity is the key to knowledge! 🔑",
}

// RandomQuote picks one of Quotes.
func RandomQuote() string {
	return Quotes[rand.IntN(len(Quotes))]
}

// LearningPathNotice is the confirmation shown after the learner changes
// grade or subject.
func LearningPathNotice(ctx tutor.Context) string {
	ctx = ctx.WithDefaults()
	return fmt.Sprintf("Learning Path Updated: now focusing on %s - %s", ctx.Grade, ctx.Subject)
}
