package handlers

import (
	"errors"
	"net/http"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/logger"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *errs.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return true
	}
	return false
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case errs.CodeNotFound, errs.CodeUserNotFound, errs.CodeInvalidBoardID, errs.CodeInvalidColumn:
		return http.StatusNotFound
	case errs.CodeValidation, errs.CodeInvalidLimit:
		return http.StatusBadRequest
	case errs.CodeNotLoggedIn:
		return http.StatusUnauthorized
	case errs.CodeNotOwner, errs.CodeNotAssignee, errs.CodeNotMember, errs.CodeNotBoardMember, errs.CodeOwnerCannotLeave:
		return http.StatusForbidden
	case errs.CodeAlreadyLoggedIn, errs.CodeAlreadyLoggedOut, errs.CodeDuplicateBoardName,
		errs.CodeAlreadyMember, errs.CodeTerminalState, errs.CodeTaskClosed, errs.CodeColumnFull:
		return http.StatusConflict
	case errs.CodePersistence, errs.CodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
