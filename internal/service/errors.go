package service

import (
	"errors"

	"github.com/forgo/lfg/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here so handlers can
// map them predictably. The message doubles as the board's banner text.

// ===== User Errors =====
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAnonymous          = errors.New("sign in to do that")
	ErrInvalidDisplayName = errors.New("display name is too long")
	ErrInvalidRole        = errors.New("unknown role")
)

// ===== Post Errors =====
var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("only the post owner or an admin can do that")
)

// ===== Character Errors =====
var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrNotCharacterOwner = errors.New("only the character owner or an admin can do that")
	ErrCharacterExists   = errors.New("character already exists")
)

// ===== Roster Errors =====
var (
	ErrRosterFull          = errors.New("the party is full")
	ErrAlreadyApplied      = errors.New("that character is already in the party")
	ErrApplicantNotFound   = errors.New("applicant not found")
	ErrCannotRemove        = errors.New("only the applicant, the post owner or an admin can remove an applicant")
	ErrCannotField         = errors.New("you can only join with your own characters")
	ErrApplicantOwnerMatch = errors.New("applicant must be the owner of the character")
	ErrNoCharacters        = errors.New("You dont have characters")
)

// ===== Dispatch Errors =====
var (
	ErrDispatcherClosed = errors.New("dispatcher is shutting down")
)

// bannerErrors are the sentinels whose text is shown to the viewer verbatim.
var bannerErrors = []error{
	ErrUserNotFound, ErrAnonymous, ErrInvalidDisplayName, ErrInvalidRole,
	ErrPostNotFound, ErrNotPostOwner,
	ErrCharacterNotFound, ErrNotCharacterOwner, ErrCharacterExists,
	ErrRosterFull, ErrAlreadyApplied, ErrApplicantNotFound, ErrCannotRemove,
	ErrCannotField, ErrApplicantOwnerMatch, ErrNoCharacters,
	ErrDispatcherClosed,
}

// GenericFailure is shown for errors that carry no viewer-facing sentence.
const GenericFailure = "Something went wrong, please try again"

// UserMessage returns the sentence a viewer sees for err. Validation problems
// show their detail; storage and driver errors collapse to GenericFailure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var problem *model.ProblemDetails
	if errors.As(err, &problem) {
		return problem.Detail
	}
	for _, sentinel := range bannerErrors {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return GenericFailure
}
