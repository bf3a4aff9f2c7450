package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	problemContentType = "application/problem+json"

	CodeNotFound       = "INC_404_NOT_FOUND"
	CodeBadRequest     = "INC_400_BAD_REQUEST"
	CodeInvalidStatus  = "INC_400_INVALID_STATUS"
	CodeNoFields       = "INC_400_NO_FIELDS"
	CodeUnauthorized   = "INC_401_UNAUTHORIZED"
	CodeRateLimited    = "INC_429_RATE_LIMITED"
	CodeInternal       = "INC_500_INTERNAL"
	CodeNotImplemented = "INC_501_NOT_IMPLEMENTED"
)

// ProblemDetail - ошибка в формате RFC 7807 с машинно-читаемым кодом
// @Description Ошибка в формате application/problem+json
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code"`
}

func newProblem(status int, detail, code string) ProblemDetail {
	return ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// abortWithProblem пишет problem+json и прерывает цепочку обработчиков
func abortWithProblem(c *gin.Context, p ProblemDetail) {
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(p.Status, p)
}

// respondError переводит ошибку сервиса в ответ
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		abortWithProblem(c, newProblem(http.StatusNotFound, "Incident not found", CodeNotFound))
	case errors.Is(err, models.ErrMissingFields):
		abortWithProblem(c, newProblem(http.StatusBadRequest, "Missing required fields", CodeBadRequest))
	case errors.Is(err, models.ErrInvalidStatus):
		abortWithProblem(c, newProblem(http.StatusBadRequest, "Invalid status", CodeInvalidStatus))
	case errors.Is(err, models.ErrNoFields):
		abortWithProblem(c, newProblem(http.StatusBadRequest, "No updatable fields provided", CodeNoFields))
	case errors.Is(err, models.ErrNotImplemented):
		abortWithProblem(c, newProblem(http.StatusNotImplemented, "Bulk demo only in demo mode", CodeNotImplemented))
	default:
		log.WithError(err).Error("Request failed")
		abortWithProblem(c, newProblem(http.StatusInternalServerError, "internal server error", CodeInternal))
	}
}
