package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeKVsRedactsCredentials(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "u1", "password", "hunter2", "jwt_token", "abc", "dangling"})
	assert.Equal(t, []interface{}{"user_id", "u1", "password", "[REDACTED]", "jwt_token", "[REDACTED]", "dangling"}, out)
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"prod", "dev", "test"} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		l.With("service", "test").Debug("hello", "k", "v")
	}
}
