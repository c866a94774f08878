package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/teletale/domain/entities"
)

// Error kinds returned in ErrorResponse.Error
const (
	KindInvalidID            = "invalid_id"
	KindInvalidRequest       = "invalid_request"
	KindUnsupportedMediaType = "unsupported_media_type"
	KindNotFound             = "not_found"
	KindMethodNotAllowed     = "method_not_allowed"
	KindDuplicateKey         = "duplicate_key"
	KindStoreUnavailable     = "store_unavailable"
	KindImmutableField       = "immutable_field"
	KindRequestCanceled      = "request_canceled"
	KindInternal             = "internal_error"
)

// StatusClientClosedRequest is answered when the client went away before the
// store call finished. Nobody reads it, but it keeps aborted requests out of
// the 5xx logs.
const StatusClientClosedRequest = 499

// NewErrorHandler maps every error returned by a handler or middleware to a
// status code and an ErrorResponse
func NewErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := errorResponse(err)

		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", fields...)
		} else {
			logger.Debug("Request rejected", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, entities.ErrInvalidID):
		return http.StatusBadRequest, ErrorResponse{Error: KindInvalidID, Message: err.Error()}
	case errors.Is(err, entities.ErrDuplicateKey):
		return http.StatusConflict, ErrorResponse{Error: KindDuplicateKey, Message: "Document with this key already exists"}
	case errors.Is(err, entities.ErrImmutableField):
		return http.StatusBadRequest, ErrorResponse{Error: KindImmutableField, Message: "The _id of a document cannot be changed"}
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, ErrorResponse{Error: KindRequestCanceled, Message: "Request canceled by client"}
	case errors.Is(err, entities.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Error: KindStoreUnavailable, Message: "Document store is unavailable"}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := fmt.Sprint(he.Message)
		switch he.Code {
		case http.StatusBadRequest:
			return he.Code, ErrorResponse{Error: KindInvalidRequest, Message: message}
		case http.StatusUnsupportedMediaType:
			return he.Code, ErrorResponse{Error: KindUnsupportedMediaType, Message: message}
		case http.StatusNotFound:
			return he.Code, ErrorResponse{Error: KindNotFound, Message: message}
		case http.StatusMethodNotAllowed:
			return he.Code, ErrorResponse{Error: KindMethodNotAllowed, Message: message}
		case http.StatusServiceUnavailable:
			return he.Code, ErrorResponse{Error: KindStoreUnavailable, Message: message}
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, ErrorResponse{Error: KindInvalidRequest, Message: message}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: KindInternal, Message: "Internal server error"}
}
