package handlers

import (
	"errors"
	"net/http"

	"quizlive/services"
	"quizlive/store"
)

// httpStatus maps service errors onto HTTP status codes so handlers can
// return `c.JSON(httpStatus(err), gin.H{"error": err.Error()})` uniformly.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrBlockNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, services.ErrNotRoomHost):
		return http.StatusForbidden

	case errors.Is(err, services.ErrInvalidSession):
		return http.StatusUnauthorized

	case errors.Is(err, services.ErrRoomAlreadyStarted),
		errors.Is(err, services.ErrRoomNotRunning),
		errors.Is(err, services.ErrRoomNotJoinable),
		errors.Is(err, services.ErrNoPlayers),
		errors.Is(err, services.ErrSelectionIncomplete),
		errors.Is(err, services.ErrSelectionLocked),
		errors.Is(err, services.ErrNameTaken),
		errors.Is(err, services.ErrAlreadyAnswered),
		errors.Is(err, services.ErrTimeExpired),
		errors.Is(err, services.ErrAlreadyInAnotherRoom):
		return http.StatusConflict

	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidOption),
		errors.Is(err, services.ErrQuestionCount),
		errors.Is(err, services.ErrTimePerQuestion),
		errors.Is(err, services.ErrBlockTooSmall),
		errors.Is(err, services.ErrSelectionCount),
		errors.Is(err, services.ErrForeignQuestion):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
