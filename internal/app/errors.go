package app

import (
	"errors"
	"fmt"
	"net/http"

	"folio/api/internal/auth"
	"folio/api/internal/doc"
	"folio/api/internal/editor"
	"folio/api/internal/export"
	"folio/api/internal/preview"
	"folio/api/internal/revisions"
	"folio/api/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validationErr *doc.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, "INVALID_CONTENT", validationErr.Error(), nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, revisions.ErrNoHistory):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, revisions.ErrInvalidSlug):
		return http.StatusBadRequest, "INVALID_SLUG", "Invalid slug", nil
	case errors.Is(err, doc.ErrInvalidContent), errors.Is(err, doc.ErrIncompatible),
		errors.Is(err, doc.ErrOutOfRange), errors.Is(err, editor.ErrNoBlock),
		errors.Is(err, editor.ErrInvalidState), errors.Is(err, editor.ErrNotPreview),
		errors.Is(err, editor.ErrEmptyURL):
		return http.StatusUnprocessableEntity, "INVALID_EDIT", err.Error(), nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Unsupported export format", nil
	case errors.Is(err, export.ErrUnsupportedPaper):
		return http.StatusBadRequest, "UNSUPPORTED_PAPER", "Paper must be letter or a4", nil
	case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export dependency missing", nil
	case errors.Is(err, preview.ErrUnsupportedURL):
		return http.StatusBadRequest, "INVALID_URL", "Only http and https urls can be previewed", nil
	case errors.Is(err, preview.ErrUpstream):
		return http.StatusBadGateway, "PREVIEW_FAILED", "Preview fetch failed", nil
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, auth.ErrDisabled):
		return http.StatusForbidden, "ADMIN_DISABLED", "Admin access is not configured", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
