package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomyStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ValidationError{Reason: "bad"}, http.StatusBadRequest},
		{NotFoundError{Resource: "follower"}, http.StatusNotFound},
		{DiscoveryError{Reason: "could not discover entity"}, http.StatusNotFound},
		{DiscoveryError{Reason: "could not fetch entity profile", Status: http.StatusGone}, http.StatusGone},
		{HandshakeError{URL: "https://a.example/notify", Status: http.StatusForbidden}, http.StatusForbidden},
	}
	for _, c := range cases {
		var sc StatusCoder
		assert.True(t, errors.As(c.err, &sc))
		assert.Equal(t, c.status, sc.StatusCode(), c.err.Error())
	}
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", NotFoundError{Resource: "post"})
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("wrap: %w", ValidationError{Reason: "x"}), ErrValidation)
	assert.NotErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, "post not found", NotFoundError{Resource: "post"}.Error())
}

func TestDiscoveryErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := DiscoveryError{Reason: "could not discover entity", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "refused")
}

func TestHandshakeErrorWithoutResponse(t *testing.T) {
	err := HandshakeError{URL: "https://a.example/notify", Cause: errors.New("timeout")}
	assert.Equal(t, http.StatusBadGateway, err.StatusCode())
	assert.Contains(t, err.Error(), "https://a.example/notify")
}
