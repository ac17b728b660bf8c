package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindUnprocessable, http.StatusUnprocessableEntity},
		{KindInternal, http.StatusInternalServerError},
		{KindUnknown, http.StatusBadRequest},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, New(tc.kind, "x").HTTPStatus(), "kind %d", tc.kind)
	}
}

func TestGetKindFollowsWrappedChain(t *testing.T) {
	base := NotFound("lead not found")
	wrapped := fmt.Errorf("load lead: %w", base)

	assert.Equal(t, KindNotFound, GetKind(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, KindUnknown, GetKind(errors.New("plain")))
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := Validation("points must be an integer").WithOp("rules.Create")
	assert.Equal(t, "rules.Create: points must be an integer", err.Error())
}
