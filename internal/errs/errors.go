package errs

import (
	"errors"
	"fmt"
)

// коды бизнес-ошибок - замкнутый набор, обработчики ветвятся по коду,
// а не по тексту сообщения
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeNotLoggedIn        = "NOT_LOGGED_IN"
	CodeAlreadyLoggedIn    = "ALREADY_LOGGED_IN"
	CodeAlreadyLoggedOut   = "ALREADY_LOGGED_OUT"
	CodeDuplicateBoardName = "DUPLICATE_BOARD_NAME"
	CodeAlreadyMember      = "ALREADY_MEMBER"
	CodeNotOwner           = "NOT_OWNER"
	CodeNotAssignee        = "NOT_ASSIGNEE"
	CodeNotMember          = "NOT_MEMBER"
	CodeNotBoardMember     = "NOT_BOARD_MEMBER"
	CodeOwnerCannotLeave   = "OWNER_CANNOT_LEAVE"
	CodeTerminalState      = "TERMINAL_STATE"
	CodeTaskClosed         = "TASK_CLOSED"
	CodeColumnFull         = "COLUMN_FULL"
	CodeInvalidLimit       = "INVALID_LIMIT"
	CodeInvalidColumn      = "INVALID_COLUMN"
	CodeInvalidBoardID     = "INVALID_BOARD_ID"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodePersistence        = "PERSISTENCE_ERROR"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func New(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewValidation(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewNotFound(resource string, id any) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewPersistence оборачивает отказ слоя хранения: состояние в памяти
// при такой ошибке не меняется
func NewPersistence(operation string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodePersistence,
		Message: fmt.Sprintf("операция '%s' не записана в хранилище", operation),
		Details: map[string]any{
			"operation": operation,
		},
		Err: err,
	}
}

// CodeOf возвращает код бизнес-ошибки или пустую строку
func CodeOf(err error) string {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code
	}
	return ""
}
