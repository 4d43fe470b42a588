package handler

import (
	"errors"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Every handler goes through here so status codes stay consistent.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// Validation problems built by the service pass through untouched
	var problem *model.ProblemDetails
	if errors.As(err, &problem) {
		return problem
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrAnonymous):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotPostOwner),
		errors.Is(err, service.ErrNotCharacterOwner),
		errors.Is(err, service.ErrCannotRemove),
		errors.Is(err, service.ErrCannotField):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrPostNotFound):
		return model.NewNotFoundError("post")
	case errors.Is(err, service.ErrCharacterNotFound):
		return model.NewNotFoundError("character")
	case errors.Is(err, service.ErrApplicantNotFound):
		return model.NewNotFoundError("applicant")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrAlreadyApplied),
		errors.Is(err, service.ErrCharacterExists):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrNoCharacters):
		return model.NewNoCharactersError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrRosterFull):
		return model.NewLimitExceededError("party members", model.RosterSize, model.RosterSize)
	case errors.Is(err, service.ErrApplicantOwnerMatch):
		return model.NewValidationError([]model.FieldError{{Field: "user_id", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidDisplayName):
		return model.NewValidationError([]model.FieldError{{Field: "token", Message: err.Error()}})

	// ===== Unavailable → 503 =====
	case errors.Is(err, service.ErrDispatcherClosed):
		return model.NewUnavailableError(err.Error())

	default:
		return model.NewInternalError("")
	}
}
