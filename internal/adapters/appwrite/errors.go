package appwrite

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/PabloGalante/farum-board/internal/domain"
)

// APIError is the error body Appwrite returns for failed calls.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("appwrite %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("appwrite %d: %s", e.StatusCode, e.Message)
}

// UserMessage is the server supplied, human readable message.
func (e *APIError) UserMessage() string {
	return e.Message
}

func (e *APIError) Unwrap() []error {
	var errs []error
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, domain.ErrUnauthorized)
	case http.StatusNotFound:
		errs = append(errs, domain.ErrNotFound)
	case http.StatusConflict:
		errs = append(errs, domain.ErrConflict)
	}
	if e.Type == "user_invalid_credentials" {
		errs = append(errs, domain.ErrInvalidCredentials)
	}
	return errs
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
