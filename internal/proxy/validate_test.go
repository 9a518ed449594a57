package proxy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happylearn/buddy/internal/tutor"
)

func TestValidateRequest_Accepts(t *testing.T) {
	doc, err := parseBody([]byte(`{"messages":[{"role":"user","content":"hi"}],"grade":null}`))
	require.NoError(t, err)
	assert.NoError(t, validateRequest(doc))
}

func TestValidateRequest_WrapsSchemaError(t *testing.T) {
	doc, err := parseBody([]byte(`{"messages":[{"role":"user","content":"hi"},{"role":"user"}]}`))
	require.NoError(t, err)

	err = validateRequest(doc)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, msgMessageShape, verr.Error())
	assert.Contains(t, verr.Unwrap().Error(), "messages[1]")
}

func TestParseBody_Malformed(t *testing.T) {
	_, err := parseBody([]byte(`{"messages":`))
	assert.Error(t, err)
}

func TestRequestFromDocument(t *testing.T) {
	doc, err := parseBody([]byte(`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"Habari!"}],"grade":"Grade 5","subject":null}`))
	require.NoError(t, err)
	require.NoError(t, validateRequest(doc))

	req := requestFromDocument(doc)
	assert.Equal(t, []tutor.Message{
		{Role: tutor.RoleUser, Content: "hi"},
		{Role: tutor.RoleAssistant, Content: "Habari!"},
	}, req.Messages)
	assert.Equal(t, "Grade 5", req.Grade)
	assert.Empty(t, req.Subject)
	assert.Equal(t, tutor.DefaultSubject, req.Context().Subject)
}

func TestValidateRequest_RejectsCaseVariantKeys(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"messages":[{"role":"user","content":"hi"}],"Messages":[]}`, msgMessagesRequired},
		{`{"messages":[{"role":"user","content":"hi","ROLE":""}]}`, msgMessageShape},
		{`{"messages":[{"role":"user","content":"hi"}],"Grade":"Grade 3"}`, msgContextShape},
	}
	for _, tt := range tests {
		doc, err := parseBody([]byte(tt.body))
		require.NoError(t, err)

		var verr *ValidationError
		require.True(t, errors.As(validateRequest(doc), &verr), tt.body)
		assert.Equal(t, tt.want, verr.Message, tt.body)
	}
}

func TestValidateRequest_AllowsUnknownKeys(t *testing.T) {
	doc, err := parseBody([]byte(`{"messages":[{"role":"user","content":"hi","name":"Amani"}],"locale":"sw-KE"}`))
	require.NoError(t, err)
	assert.NoError(t, validateRequest(doc))
}

func TestCheckMessages(t *testing.T) {
	var verr *ValidationError

	err := checkMessages(TutorRequest{})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, msgMessagesRequired, verr.Message)

	err = checkMessages(TutorRequest{Messages: []tutor.Message{{Role: tutor.RoleUser}}})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, msgMessageShape, verr.Message)

	assert.NoError(t, checkMessages(TutorRequest{Messages: []tutor.Message{{Role: tutor.RoleUser, Content: "hi"}}}))
}
