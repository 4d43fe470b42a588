package model

// Actor is the permission predicate for whoever is driving the board.
// Each role gets its own implementation instead of role checks at call sites.
type Actor interface {
	// UserID is empty for anonymous viewers.
	UserID() string
	Role() UserRole
	IsAnonymous() bool

	// CanCreatePost reports whether the create control is offered at all.
	CanCreatePost() bool
	// CanManagePost gates edit and delete of a post.
	CanManagePost(post *Post) bool
	// CanManageCharacter gates edit and delete of a character owned by ownerID.
	CanManageCharacter(ownerID string) bool
	// CanRemoveApplicant gates leave for a roster entry.
	CanRemoveApplicant(post *Post, applicant *Applicant) bool
	// SelectableCharacters lists the characters offered in the join prompt.
	SelectableCharacters(dir Directory) []Character
	// CanField reports whether the actor may put a character owned by ownerID on a roster.
	CanField(ownerID string) bool
}

// NewActor returns the predicate matching the role. An empty userID yields an anonymous actor.
func NewActor(userID string, role UserRole) Actor {
	if userID == "" {
		return anonymousActor{}
	}
	if role == UserRoleAdmin {
		return adminActor{id: userID}
	}
	return memberActor{id: userID}
}

// Anonymous returns the actor used for requests without a token.
func Anonymous() Actor {
	return anonymousActor{}
}

type memberActor struct {
	id string
}

func (a memberActor) UserID() string { return a.id }
func (a memberActor) Role() UserRole { return UserRoleUser }
func (a memberActor) IsAnonymous() bool { return false }
func (a memberActor) CanCreatePost() bool { return true }

func (a memberActor) CanManagePost(post *Post) bool {
	return post != nil && post.OwnerID == a.id
}

func (a memberActor) CanManageCharacter(ownerID string) bool {
	return ownerID == a.id
}

func (a memberActor) CanRemoveApplicant(post *Post, applicant *Applicant) bool {
	if post == nil || applicant == nil {
		return false
	}
	return applicant.UserID == a.id || post.OwnerID == a.id
}

func (a memberActor) SelectableCharacters(dir Directory) []Character {
	return dir.Characters(a.id)
}

func (a memberActor) CanField(ownerID string) bool {
	return ownerID == a.id
}

type adminActor struct {
	id string
}

func (a adminActor) UserID() string { return a.id }
func (a adminActor) Role() UserRole { return UserRoleAdmin }
func (a adminActor) IsAnonymous() bool { return false }
func (a adminActor) CanCreatePost() bool { return true }
func (a adminActor) CanManagePost(post *Post) bool { return post != nil }
func (a adminActor) CanManageCharacter(string) bool { return true }
func (a adminActor) CanField(string) bool { return true }

func (a adminActor) CanRemoveApplicant(post *Post, applicant *Applicant) bool {
	return post != nil && applicant != nil
}

func (a adminActor) SelectableCharacters(dir Directory) []Character {
	return dir.AllCharacters()
}

type anonymousActor struct{}

func (anonymousActor) UserID() string { return "" }
func (anonymousActor) Role() UserRole { return "" }
func (anonymousActor) IsAnonymous() bool { return true }
func (anonymousActor) CanCreatePost() bool { return false }
func (anonymousActor) CanManagePost(*Post) bool { return false }
func (anonymousActor) CanManageCharacter(string) bool { return false }
func (anonymousActor) CanRemoveApplicant(*Post, *Applicant) bool { return false }
func (anonymousActor) SelectableCharacters(Directory) []Character { return nil }
func (anonymousActor) CanField(string) bool { return false }
