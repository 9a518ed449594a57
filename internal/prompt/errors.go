package prompt

import "fmt"

// ErrUnknownPersonality indicates a personality key with no profile.
type ErrUnknownPersonality struct {
	Personality string
}

func (e *ErrUnknownPersonality) Error() string {
	return fmt.Sprintf("unknown tutor personality %q", e.Personality)
}
