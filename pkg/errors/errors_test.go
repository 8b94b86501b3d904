package lperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{ErrInvalidInput, 400, "INVALID_REQUEST"},
		{fmt.Errorf("content: %w", ErrInvalidInput), 400, "INVALID_REQUEST"},
		{ErrUnauthorized, 401, "UNAUTHORIZED"},
		{ErrForbidden, 403, "FORBIDDEN"},
		{fmt.Errorf("notification: %w", ErrNotFound), 404, "NOT_FOUND"},
		{ErrConflict, 409, "CONFLICT"},
		{ErrAlreadyExists, 409, "CONFLICT"},
		{ErrRateLimited, 429, "RATE_LIMITED"},
		{ErrInvalidState, 500, "INTERNAL_ERROR"},
		{errors.New("boom"), 500, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
		if got := Code(tc.err); got != tc.code {
			t.Errorf("Code(%v) = %s, want %s", tc.err, got, tc.code)
		}
	}
}
