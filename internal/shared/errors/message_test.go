package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_PrefersServerMessage(t *testing.T) {
	err := &HTTPError{Method: "GET", URL: "/users", Status: 409, Body: []byte(`{"message":"Email already taken"}`)}
	require.Equal(t, "Email already taken", Message(err))
}

func TestMessage_StatusFallback(t *testing.T) {
	err := fmt.Errorf("fetch users: %w", &HTTPError{Status: 403, Body: []byte(`<html>denied</html>`)})
	require.Equal(t, "You do not have permission to perform this action.", Message(err))

	err = &HTTPError{Status: 418}
	require.Equal(t, "An error occurred (418). Please try again.", Message(err))
}

func TestMessage_ProblemDetail(t *testing.T) {
	body, err := json.Marshal(ErrNotFound.WithDetail("user 7 not found"))
	require.NoError(t, err)
	require.Equal(t, "user 7 not found", Message(&HTTPError{Status: 404, Body: body}))
}

func TestMessage_NetworkAndAuth(t *testing.T) {
	timeout := &NetworkError{Method: "GET", URL: "/x", Err: context.DeadlineExceeded}
	assert.True(t, timeout.Timeout())
	assert.Equal(t, "The request timed out. Please try again.", Message(timeout))

	refused := &NetworkError{Method: "GET", URL: "/x", Err: fmt.Errorf("connection refused")}
	assert.Equal(t, "Network error. Please check your connection.", Message(refused))
	assert.True(t, IsNetwork(fmt.Errorf("wrapped: %w", refused)))

	assert.Equal(t, "Invalid credentials", Message(&AuthError{Message: "Invalid credentials"}))
	assert.Equal(t, "authentication failed", Message(&AuthError{}))
}

func TestValidationFields_ArrayEnvelope(t *testing.T) {
	err := &HTTPError{Status: 422, Body: []byte(`{"errors":[{"field":"email","message":"is invalid"},{"message":"no field"}]}`)}
	require.Equal(t, map[string]string{"email": "is invalid"}, ValidationFields(err))
}

func TestValidationFields_ObjectEnvelope(t *testing.T) {
	err := &HTTPError{Status: 422, Body: []byte(`{"errors":{"name":["too short","too plain"],"role":"required","empty":[]}}`)}
	require.Equal(t, map[string]string{"name": "too short", "role": "required"}, ValidationFields(err))
}

func TestValidationFields_ClientSide(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"password": "must be at least 6 characters"}}
	info := Normalize(err)
	require.Equal(t, "Validation failed. Please check your input.", info.Message)
	require.Equal(t, 0, info.Status)
	require.Equal(t, "must be at least 6 characters", info.Fields["password"])
	require.Equal(t, "validation failed: password: must be at least 6 characters", err.Error())
}

func TestNormalize_HTTPStatus(t *testing.T) {
	info := Normalize(&HTTPError{Status: 500})
	require.Equal(t, 500, info.Status)
	require.Equal(t, "Server error. Please try again later.", info.Message)
	require.Nil(t, Normalize(nil))
	require.True(t, IsUnauthorized(&HTTPError{Status: 401}))
}

func TestProblemDetail_FlattensExtensions(t *testing.T) {
	problem := NewValidationProblem(map[string]string{"email": "required"})
	raw, err := json.Marshal(problem)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "Validation failed", generic["message"])
	assert.Equal(t, map[string]any{"email": "required"}, generic["errors"])
	assert.EqualValues(t, 422, generic["status"])

	var decoded ProblemDetail
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, TypeValidation, decoded.Type)
	assert.Equal(t, "Validation failed", decoded.Extensions["message"])
	assert.Nil(t, ErrValidation.Extensions, "templates must not be mutated")
}
