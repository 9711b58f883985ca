package util

import (
	"errors"
	"health_track_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	InternalServerError(c)
}

// RespondError 将业务错误映射为 HTTP 响应
func RespondError(c *gin.Context, err error) {
	var ve *ValidationError
	var ie *IncompleteAssessmentError
	var ee *ExportError

	switch {
	case errors.As(err, &ve):
		ErrorWithData(c, http.StatusBadRequest, ve.Error(), gin.H{"fields": ve.Fields})
	case errors.As(err, &ie):
		ErrorWithData(c, http.StatusUnprocessableEntity, ie.Error(), gin.H{"missingQuestions": ie.Missing})
	case errors.As(err, &ee):
		Error(c, http.StatusUnprocessableEntity, ee.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSessionExpired):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrFeatureLocked), errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrNotEnrolled):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c)
	case errors.Is(err, ErrAlreadyEnrolled), errors.Is(err, ErrProgramCompleted),
		errors.Is(err, ErrEmailRegistered), errors.Is(err, ErrMedicationStopped):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrStepNotReachable):
		Error(c, http.StatusConflict, err.Error())
	default:
		LogInternalError(c, err)
	}
}
