package proxy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/happylearn/buddy/internal/tutor"
)

// Keys that differ from a known field only by case are rejected, so every
// accepted body has exactly one reading.
const envelopeSchema = `{
	"type": "object",
	"required": ["messages"],
	"propertyNames": {
		"anyOf": [{"const": "messages"}, {"not": {"pattern": "^(?i:messages)$"}}]
	},
	"properties": {
		"messages": {"type": "array", "minItems": 1}
	}
}`

const contextSchema = `{
	"type": "object",
	"propertyNames": {
		"anyOf": [{"enum": ["grade", "subject"]}, {"not": {"pattern": "^(?i:grade|subject)$"}}]
	},
	"properties": {
		"grade": {"type": ["string", "null"]},
		"subject": {"type": ["string", "null"]}
	}
}`

const messageSchema = `{
	"type": "object",
	"required": ["role", "content"],
	"propertyNames": {
		"anyOf": [{"enum": ["role", "content"]}, {"not": {"pattern": "^(?i:role|content)$"}}]
	},
	"properties": {
		"role": {"type": "string", "minLength": 1},
		"content": {"type": "string", "minLength": 1}
	}
}`

var (
	compiledEnvelope = mustCompile("envelope", envelopeSchema)
	compiledMessage  = mustCompile("message", messageSchema)
	compiledContext  = mustCompile("context", contextSchema)
)

// mustCompile compiles an embedded schema. The schemas are constants, so a
// failure here is a programming error.
func mustCompile(name, src string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("parse %s schema: %v", name, err))
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("add %s schema: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return compiled
}

// parseBody parses raw as JSON. The returned error carries the decoder's
// message and is reported to the client as a 500.
func parseBody(raw []byte) (any, error) {
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

// validateRequest checks a parsed request body. The envelope is checked
// first so an empty or missing messages array is reported before any
// per-message problem.
func validateRequest(doc any) error {
	if err := compiledEnvelope.Validate(doc); err != nil {
		return &ValidationError{Message: msgMessagesRequired, Err: err}
	}

	messages := doc.(map[string]any)["messages"].([]any)
	for i, m := range messages {
		if err := compiledMessage.Validate(m); err != nil {
			return &ValidationError{
				Message: msgMessageShape,
				Err:     fmt.Errorf("messages[%d]: %w", i, err),
			}
		}
	}
	if err := compiledContext.Validate(doc); err != nil {
		return &ValidationError{Message: msgContextShape, Err: err}
	}
	return nil
}

// requestFromDocument builds a TutorRequest from a document that passed
// validateRequest. Keys are matched exactly, the same way the schemas
// match them.
func requestFromDocument(doc any) TutorRequest {
	obj := doc.(map[string]any)
	items := obj["messages"].([]any)

	req := TutorRequest{Messages: make([]tutor.Message, len(items))}
	for i, item := range items {
		m := item.(map[string]any)
		req.Messages[i] = tutor.Message{
			Role:    tutor.Role(m["role"].(string)),
			Content: m["content"].(string),
		}
	}
	req.Grade, _ = obj["grade"].(string)
	req.Subject, _ = obj["subject"].(string)
	return req
}

// checkMessages rejects a typed request whose messages cannot be sent
// upstream.
func checkMessages(req TutorRequest) error {
	if len(req.Messages) == 0 {
		return &ValidationError{Message: msgMessagesRequired}
	}
	for i, m := range req.Messages {
		if m.Role == "" || m.Content == "" {
			return &ValidationError{
				Message: msgMessageShape,
				Err:     fmt.Errorf("messages[%d]: empty role or content", i),
			}
		}
	}
	return nil
}
