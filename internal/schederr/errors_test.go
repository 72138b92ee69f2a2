package schederr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		err := Validation("command is required")
		assert.Equal(t, KindValidation, err.Kind)
		assert.Contains(t, err.Error(), "command is required")
	})

	t.Run("not found", func(t *testing.T) {
		err := NotFound("job %q not found", "job_123")
		assert.Equal(t, KindNotFound, err.Kind)
		assert.Contains(t, err.Error(), `job "job_123" not found`)
	})

	t.Run("internal wraps cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Internal(cause, "failed to open log file")
		assert.Equal(t, KindInternal, err.Kind)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestIsKind(t *testing.T) {
	err := NotFound("host %q not found", "h1")
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindValidation))

	t.Run("works through fmt.Errorf wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("registering host: %w", err)
		assert.True(t, IsKind(wrapped, KindNotFound))
	})

	t.Run("plain errors are no kind", func(t *testing.T) {
		assert.False(t, IsKind(errors.New("plain"), KindInternal))
	})
}

func TestError_Is(t *testing.T) {
	require.True(t, errors.Is(Validation("a"), Validation("b")), "Is compares Kind only, not Message")
	require.False(t, errors.Is(Validation("a"), NotFound("a")))
}
