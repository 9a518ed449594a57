package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTutorPrompt_Personalities(t *testing.T) {
	tests := []struct {
		personality string
		temperature float64
		tone        string
		goal        string
	}{
		{Encouraging, 0.7, "warm", "Celebrate progress and effort"},
		{Formal, 0.3, "precise", "Maintain academic rigor"},
		{Playful, 0.9, "fun", "creative metaphors and humor"},
	}

	for _, tt := range tests {
		t.Run(tt.personality, func(t *testing.T) {
			got, err := BuildTutorPrompt(tt.personality, "Mathematics")
			require.NoError(t, err)
			assert.Equal(t, tt.temperature, got.Temperature)
			assert.Contains(t, got.Text, "Your tone is "+tt.tone)
			assert.Contains(t, got.Text, tt.goal)
		})
	}
}

func TestBuildTutorPrompt_UnknownPersonality(t *testing.T) {
	got, err := BuildTutorPrompt("grumpy", "Mathematics")

	var unknown *ErrUnknownPersonality
	require.True(t, errors.As(err, &unknown), "expected ErrUnknownPersonality, got %v", err)
	assert.Equal(t, "grumpy", unknown.Personality)
	assert.Equal(t, DefaultTemperature, got.Temperature)
	assert.NotContains(t, got.Text, "Your tone is")
	assert.NotContains(t, got.Text, "undefined")
}

func TestBuildTutorPrompt_SubjectClause(t *testing.T) {
	for _, subject := range []string{"Mathematics", "Kiswahili", "Science & Technology", "Agriculture"} {
		got, err := BuildTutorPrompt(Encouraging, subject)
		require.NoError(t, err)
		assert.Contains(t, got.Text, "Focus on "+subject+" concepts and topics.")
	}

	got, err := BuildTutorPrompt(Encouraging, "General Learning")
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Help with any subject the learner needs.")
	assert.NotContains(t, got.Text, "General Learning")
}

func TestBuildTutorPrompt_Deterministic(t *testing.T) {
	for _, p := range append(Profiles(), "unknown") {
		a, errA := BuildTutorPrompt(p, "English")
		b, errB := BuildTutorPrompt(p, "English")
		assert.Equal(t, a, b)
		assert.Equal(t, errA == nil, errB == nil)
	}
}

func TestBuildTutorPrompt_Layout(t *testing.T) {
	got, err := BuildTutorPrompt(Formal, "English")
	require.NoError(t, err)

	lines := strings.Split(got.Text, "\n")
	assert.Equal(t, "You are Happy, a friendly, supportive, and knowledgeable AI tutor who helps students learn in a simple, fun, and encouraging way. Your tone is precise, structured, and academic.", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "Focus on English concepts and topics.", lines[2])
	assert.True(t, strings.HasSuffix(got.Text, "inspiring a love for learning! 🌟"))
}
