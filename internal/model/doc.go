// Package model defines the domain entities of the LFG board.
//
// The board has three record types: Character, Post (with its ordered
// Applicant roster) and User (a directory entry owning characters).
// Records are plain values; the service layer is their only writer.
//
// # Permissions
//
// Role checks go through the Actor interface:
//
//	actor := model.NewActor(userID, model.UserRoleAdmin)
//	if actor.CanManagePost(&post) {
//	    // edit and delete are enabled
//	}
//
// # Validation
//
// Request types return []FieldError from Validate:
//
//	if errs := character.Validate(); len(errs) > 0 {
//	    model.NewValidationError(errs).WriteJSON(w)
//	}
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
