package game

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(notFound("gone")))
	assert.Equal(t, CodeInvalidState, CodeOf(invalidState("nope")))
	assert.Equal(t, CodeConflict, CodeOf(conflict("taken")))
	assert.Equal(t, CodeUnauthorized, CodeOf(unauthorized("not yours")))
	assert.Equal(t, Code(""), CodeOf(errors.New("untyped")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(notFound("gone")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(invalidState("nope")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(conflict("taken")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(unauthorized("not yours")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(&Error{Code: CodeTransient}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("untyped")))
}
