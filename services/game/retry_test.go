package game

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsTransientError(t *testing.T) {
	assert.True(t, isTransientError(&pq.Error{Code: "40P01"}))
	assert.True(t, isTransientError(&pq.Error{Code: "40001"}))

	// Business and plain errors never classify as transient
	assert.False(t, isTransientError(&pq.Error{Code: "23505"}))
	assert.False(t, isTransientError(errors.New("boom")))
	assert.False(t, isTransientError(conflict("card taken")))
	assert.False(t, isTransientError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "40P01"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestWithRetryRecoversFromTransientConflict(t *testing.T) {
	attempts := 0
	err := withRetry(func() error {
		attempts++
		if attempts < 3 {
			return &pq.Error{Code: "40P01"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsRetries(t *testing.T) {
	attempts := 0
	err := withRetry(func() error {
		attempts++
		return &pq.Error{Code: "40001"}
	})

	// Initial attempt plus three retries
	assert.Equal(t, 4, attempts)
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
	assert.Equal(t, pq.ErrorCode("40001"), pqErr.Code)
}

func TestWithRetryDoesNotRetryBusinessErrors(t *testing.T) {
	attempts := 0
	err := withRetry(func() error {
		attempts++
		return invalidState("game already started")
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, CodeInvalidState, CodeOf(err))
}
