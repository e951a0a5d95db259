package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{"structured bad request", 400, `{"error":{"code":"BAD_ADDRESS","message":"recipient rejected"}}`, apperrors.ErrInvalidInput, "mail-relay: recipient rejected"},
		{"flat message", 401, `{"message":"bad api key"}`, apperrors.ErrUnauthorized, "mail-relay: bad api key"},
		{"plain text", 403, `nope`, apperrors.ErrForbidden, "mail-relay: nope"},
		{"not found", 404, `{}`, apperrors.ErrNotFound, "mail-relay: {}"},
		{"conflict", 409, `{"message":"duplicate"}`, apperrors.ErrConflict, "mail-relay: duplicate"},
		{"throttled", 429, `slow down`, apperrors.ErrServiceUnavail, "mail-relay: slow down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "mail-relay")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestParseResponseError_ServerError(t *testing.T) {
	err := ParseResponseError(response(502, `{"error":{"code":"UPSTREAM","message":"smtp down"}}`), "mail-relay")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "upstream error 502 (UPSTREAM)")
}

func TestParseResponseError_UnmappedStatusKeepsCode(t *testing.T) {
	err := ParseResponseError(response(418, `{"error":{"code":"TEAPOT","message":"short and stout"}}`), "mail-relay")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "TEAPOT", appErr.Code)
	assert.Equal(t, 418, appErr.Status)
}
