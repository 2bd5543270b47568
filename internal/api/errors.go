package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cankoe/filepulse/internal/frequency"
	"github.com/cankoe/filepulse/internal/mailer"
	"github.com/cankoe/filepulse/internal/settings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeDeliveryFailed   = "delivery_failed"
	ErrCodeStorageError     = "storage_error"
	ErrCodeInternal         = "internal_error"
)

// FailedRecipient is one address a send could not reach.
type FailedRecipient struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

type ApiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Invalid []string          `json:"invalid,omitempty"`
	Failed  []FailedRecipient `json:"failed,omitempty"`

	err error
}

func (e *ApiError) Error() string {
	return e.Message
}

func (e *ApiError) Unwrap() error { return e.err }

func storageFailure(message string, err error) *ApiError {
	return &ApiError{Code: ErrCodeStorageError, Message: message, err: err}
}

func mapErrorToStatusCode(err error) (int, *ApiError) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrCodeInvalidRequest:
			return http.StatusBadRequest, apiErr
		case ErrCodeNotFound:
			return http.StatusNotFound, apiErr
		case ErrCodeValidationFailed:
			return http.StatusUnprocessableEntity, apiErr
		case ErrCodeDeliveryFailed:
			return http.StatusBadGateway, apiErr
		case ErrCodeStorageError:
			return http.StatusInternalServerError, apiErr
		}
	}

	var ve *settings.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, &ApiError{
			Code:    ErrCodeValidationFailed,
			Message: ve.Error(),
			Field:   ve.Field,
			Invalid: ve.Invalid,
			err:     err,
		}
	}

	switch {
	case errors.Is(err, mailer.ErrNoReports), errors.Is(err, mailer.ErrReportMissing):
		return http.StatusNotFound, &ApiError{Code: ErrCodeNotFound, Message: err.Error(), err: err}
	case errors.Is(err, mailer.ErrNoRecipients):
		return http.StatusUnprocessableEntity, &ApiError{Code: ErrCodeValidationFailed, Message: err.Error(), Field: "recipients", err: err}
	case errors.Is(err, frequency.ErrUnknown):
		return http.StatusUnprocessableEntity, &ApiError{Code: ErrCodeValidationFailed, Message: err.Error(), Field: "frequency", err: err}
	}

	if failed := mailer.FailedRecipients(err); len(failed) > 0 {
		out := make([]FailedRecipient, 0, len(failed))
		for _, f := range failed {
			out = append(out, FailedRecipient{Recipient: f.Recipient, Error: f.Err.Error()})
		}
		return http.StatusBadGateway, &ApiError{
			Code:    ErrCodeDeliveryFailed,
			Message: "Failed to send to " + strconv.Itoa(len(out)) + " recipient(s)",
			Failed:  out,
			err:     err,
		}
	}

	// Default unknown error
	return http.StatusInternalServerError, &ApiError{
		Code:    ErrCodeInternal,
		Message: "An unexpected error occurred",
		err:     err,
	}
}

func respondError(c *gin.Context, err error) {
	status, apiErr := mapErrorToStatusCode(err)
	route := c.Request.Method + " " + c.FullPath()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("route", route).Str("code", apiErr.Code).Msg("Request failed")
	} else {
		log.Warn().Err(err).Str("route", route).Str("code", apiErr.Code).Msg("Request rejected")
	}
	c.JSON(status, gin.H{"error": apiErr})
}

func getPaginationParams(c *gin.Context) (int, int) {
	const defaultLimit = 10
	const maxLimit = 100
	const defaultPage = 1

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page <= 0 {
		page = defaultPage
	}
	return limit, page
}
