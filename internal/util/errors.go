package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("resource not found")

	ErrAlreadyEnrolled      = errors.New("already enrolled in this program")
	ErrNotEnrolled          = errors.New("not enrolled in this program")
	ErrIncompleteAssessment = errors.New("assessment is incomplete")
	ErrFeatureLocked        = errors.New("feature is locked for this enrollment")
	ErrStepNotReachable     = errors.New("step is not reachable yet")
	ErrProgramCompleted     = errors.New("program already completed")
	ErrMedicationStopped    = errors.New("medication already stopped")
)

// ValidationError 必填字段缺失或格式错误
type ValidationError struct {
	Fields []string
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// PersistenceError 存储层读写失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence 包装存储错误；业务错误与 nil 原样返回
func Persistence(op string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IncompleteAssessmentError 列出未作答的题目
type IncompleteAssessmentError struct {
	Missing []uint
}

func (e *IncompleteAssessmentError) Error() string {
	return fmt.Sprintf("%s: %d unanswered question(s)", ErrIncompleteAssessment.Error(), len(e.Missing))
}

func (e *IncompleteAssessmentError) Is(target error) bool {
	return target == ErrIncompleteAssessment
}

// ExportError 导出数据不完整
type ExportError struct {
	Reason string
}

func (e *ExportError) Error() string {
	return "export failed: " + e.Reason
}

// IsDomainError 判断是否为业务规则错误（可由用户纠正）
func IsDomainError(err error) bool {
	var ve *ValidationError
	var ee *ExportError
	if errors.As(err, &ve) || errors.As(err, &ee) {
		return true
	}
	for _, target := range []error{
		ErrUserNotFound, ErrEmailRegistered, ErrInvalidCredentials, ErrSessionExpired,
		ErrPermissionDenied, ErrNotFound, ErrAlreadyEnrolled, ErrNotEnrolled,
		ErrIncompleteAssessment, ErrFeatureLocked, ErrStepNotReachable,
		ErrProgramCompleted, ErrMedicationStopped,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
