package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError consumes and closes a non-2xx response body and maps
// it to an AppError. Both {"error":{"code","message"}} and {"message"}
// bodies are understood; anything else is reported verbatim.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err)
	}

	var body upstreamError
	msg := string(raw)
	code := ""
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Error != nil:
			code, msg = body.Error.Code, body.Error.Message
		case body.Message != "":
			msg = body.Message
		}
	}
	return mapStatus(resp.StatusCode, code, fmt.Sprintf("%s: %s", upstream, msg))
}

func mapStatus(status int, code, msg string) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(msg)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case http.StatusNotFound:
		return &apperrors.AppError{Code: "NOT_FOUND", Message: msg, Status: status, Err: apperrors.ErrNotFound}
	case http.StatusConflict:
		return apperrors.Conflict(msg)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return apperrors.ServiceUnavailable(msg)
	}
	if status >= 500 {
		return fmt.Errorf("upstream error %d (%s): %s", status, code, msg)
	}
	if code == "" {
		code = http.StatusText(status)
	}
	return &apperrors.AppError{Code: code, Message: msg, Status: status}
}
