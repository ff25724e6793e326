package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"github.com/inventrack/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError converts an error into the response envelope. Domain errors keep
// their code and message; anything else is reported as UNKNOWN and logged.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if status >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
		}
		h.Error(c, status, domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unexpected error", zap.Error(err))
	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeUnknown, shared.ErrUnknown.Message)
}

// bindJSON binds the request body, writing the error response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters, writing the error response on failure
func (h *BaseHandler) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathID parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// userID returns the caller resolved by the auth middleware
func userID(c *gin.Context) string {
	return middleware.GetUserID(c)
}

const dateLayout = "2006-01-02"

// parseRangeBound reads one end of a date range. RFC 3339 timestamps are used
// as given; a bare date selects the start or the end of that day in loc.
func parseRangeBound(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, shared.NewInvalidInputError("Invalid date %q, expected YYYY-MM-DD or RFC 3339", value)
	}
	r := shared.DayRange(day, loc)
	if endOfDay {
		return r.End, nil
	}
	return r.Start, nil
}

// parseRange reads a start/end pair. Two empty values give a zero range.
func parseRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := parseRangeBound(start, loc, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseRangeBound(end, loc, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
