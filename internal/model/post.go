package model

import (
	"strings"
	"time"
)

// RosterSize is the fixed party size of every post.
const RosterSize = 8

// Post limits
const (
	MaxPostTitleLength = 100
)

// Applicant pairs a user with the character they applied with.
type Applicant struct {
	UserID    string    `json:"user_id"`
	Character Character `json:"character"`
	JoinedOn  time.Time `json:"joined_on"`
}

// Matches reports whether a is the applicant identified by userID and characterID.
func (a *Applicant) Matches(userID, characterID string) bool {
	return a.UserID == userID && a.Character.ID == characterID
}

// Post is a party-recruitment listing.
// Applicants are kept in application order.
type Post struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	StartTime  time.Time   `json:"start_time"`
	OwnerID    string      `json:"owner_id"`
	Applicants []Applicant `json:"applicants"`
	CreatedOn  time.Time   `json:"created_on"`
	UpdatedOn  time.Time   `json:"updated_on"`
}

// IsFull reports whether the roster has no open slot.
func (p *Post) IsFull() bool {
	return len(p.Applicants) >= RosterSize
}

// HasCharacter reports whether characterID is already on the roster.
func (p *Post) HasCharacter(characterID string) bool {
	for _, a := range p.Applicants {
		if a.Character.ID == characterID {
			return true
		}
	}
	return false
}

// FindApplicant returns the applicant matching both ids, or nil.
func (p *Post) FindApplicant(userID, characterID string) *Applicant {
	for i := range p.Applicants {
		if p.Applicants[i].Matches(userID, characterID) {
			return &p.Applicants[i]
		}
	}
	return nil
}

// WithoutApplicant returns the roster minus exactly the matching applicant.
func (p *Post) WithoutApplicant(userID, characterID string) []Applicant {
	out := make([]Applicant, 0, len(p.Applicants))
	for _, a := range p.Applicants {
		if a.Matches(userID, characterID) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// CreatePostRequest is the body of POST /v1/posts
type CreatePostRequest struct {
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
}

// ValidateIn checks the request and returns the parsed start time. Zone-less
// start times are read in loc.
func (r *CreatePostRequest) ValidateIn(loc *time.Location) (time.Time, []FieldError) {
	var errors []FieldError
	var start time.Time

	title := strings.TrimSpace(r.Title)
	if title == "" {
		errors = append(errors, FieldError{Field: "title", Message: "title is required"})
	} else if len(title) > MaxPostTitleLength {
		errors = append(errors, FieldError{Field: "title", Message: "title must be 100 characters or less"})
	}
	if r.StartTime == "" {
		errors = append(errors, FieldError{Field: "start_time", Message: "start_time is required"})
	} else {
		t, err := ParseStartTimeIn(r.StartTime, loc)
		if err != nil {
			errors = append(errors, FieldError{Field: "start_time", Message: "start_time must be an ISO-8601 timestamp"})
		}
		start = t
	}

	return start, errors
}

// UpdatePostRequest is the body of PATCH /v1/posts/{postId}
type UpdatePostRequest struct {
	Title     *string `json:"title,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
}

// ValidateIn checks the set fields and returns the parsed start time when
// present. Zone-less start times are read in loc.
func (r *UpdatePostRequest) ValidateIn(loc *time.Location) (*time.Time, []FieldError) {
	var errors []FieldError
	var start *time.Time

	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			errors = append(errors, FieldError{Field: "title", Message: "title cannot be empty"})
		} else if len(title) > MaxPostTitleLength {
			errors = append(errors, FieldError{Field: "title", Message: "title must be 100 characters or less"})
		}
	}
	if r.StartTime != nil {
		t, err := ParseStartTimeIn(*r.StartTime, loc)
		if err != nil {
			errors = append(errors, FieldError{Field: "start_time", Message: "start_time must be an ISO-8601 timestamp"})
		} else {
			start = &t
		}
	}

	return start, errors
}

// startTimeLayouts are accepted in addition to RFC 3339; the last two come from
// datetime-local form inputs which carry no zone.
var startTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseStartTimeIn parses an ISO-8601 start time, reading zone-less values in loc.
func ParseStartTimeIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range startTimeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
