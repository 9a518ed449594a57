package llm

import "context"

type contextKey string

const labelsKey contextKey = "llm_labels"

// Labels describe an upstream call for event recording.
type Labels struct {
	RequestID string
	Grade     string
	Subject   string
}

// WithLabels attaches recording labels to the context.
func WithLabels(ctx context.Context, l Labels) context.Context {
	return context.WithValue(ctx, labelsKey, l)
}

// LabelsFrom extracts the labels from the context.
func LabelsFrom(ctx context.Context) Labels {
	if v, ok := ctx.Value(labelsKey).(Labels); ok {
		return v
	}
	return Labels{}
}
