package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_StatusTable(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
		msg    string
	}{
		{400, KindValidation, "Invalid request"},
		{401, KindUnauthorized, "Unauthorized - please log in"},
		{403, KindForbidden, "Access forbidden"},
		{404, KindNotFound, "Resource not found"},
		{409, KindConflict, "Conflict - resource already exists"},
		{422, KindValidation, "Validation error"},
		{429, KindRateLimited, "Too many requests - please slow down"},
		{500, KindServer, "Server error - please try again"},
		{503, KindServer, "Service unavailable"},
		{502, KindServer, "Server error - please try again"},
		{418, KindUnknown, "Error: 418"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			c := Classify(FromStatus("op", tt.status, ""))
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.msg, c.Message)
			assert.Equal(t, tt.status, c.Status)
		})
	}
}

func TestClassify_BodyMessageWins(t *testing.T) {
	c := Classify(FromStatus("create monitor", 400, "interval must be between 10-86400 seconds"))
	assert.Equal(t, KindValidation, c.Kind)
	assert.Equal(t, "interval must be between 10-86400 seconds", c.Message)
}

func TestClassify_Network(t *testing.T) {
	err := Network("list monitors", errors.New("dial tcp: connection refused"))
	c := Classify(fmt.Errorf("refresh: %w", err))
	assert.Equal(t, KindNetwork, c.Kind)
	assert.Equal(t, MsgNetwork, c.Message)
	assert.Zero(t, c.Status)
}

func TestClassify_LocalValidation(t *testing.T) {
	c := Classify(Invalid("name is required"))
	assert.Equal(t, KindValidation, c.Kind)
	assert.Equal(t, "name is required", c.Message)
}

func TestClassify_Foreign(t *testing.T) {
	assert.Equal(t, KindUnknown, Classify(errors.New("boom")).Kind)
	assert.Equal(t, MsgUnknown, Classify(nil).Message)
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(fmt.Errorf("wrapped: %w", FromStatus("x", 401, ""))))
	assert.False(t, IsUnauthorized(FromStatus("x", 403, "")))
	assert.False(t, IsUnauthorized(Network("x", errors.New("eof"))))
}
