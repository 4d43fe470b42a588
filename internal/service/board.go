package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/model"
)

const tracerName = "github.com/forgo/lfg/internal/service"

// UserRepository defines the interface for directory storage
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
}

// CharacterRepository defines the interface for character storage
type CharacterRepository interface {
	Create(ctx context.Context, c *model.Character) error
	GetByID(ctx context.Context, id string) (*model.Character, error)
	Update(ctx context.Context, c *model.Character) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Character, error)
	ListAll(ctx context.Context) ([]model.Character, error)
}

// PostRepository defines the interface for post and roster storage
type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Post, error)
	AddApplicant(ctx context.Context, postID, userID, characterID string, capacity int) error
	RemoveApplicant(ctx context.Context, postID, userID, characterID string) (bool, error)
}

// JoinRequest names the character entering a roster and the user it is
// entered under. UserID must be the character's owner; empty means "the owner".
type JoinRequest struct {
	UserID      string `json:"user_id,omitempty"`
	CharacterID string `json:"character_id"`
}

// BoardServiceConfig holds configuration for the board service
type BoardServiceConfig struct {
	UserRepo      UserRepository
	CharacterRepo CharacterRepository
	PostRepo      PostRepository
	EventHub      *EventHub      // optional
	Location      *time.Location // zone for start times without an offset, default UTC
	Tracer        trace.Tracer   // default: global provider
}

// BoardService is the only writer of posts, characters and rosters.
// Every command checks the actor's permissions, persists, and publishes a
// board event.
type BoardService struct {
	users      UserRepository
	characters CharacterRepository
	posts      PostRepository
	hub        *EventHub
	loc        *time.Location
	tracer     trace.Tracer
}

// NewBoardService creates a new board service
func NewBoardService(cfg BoardServiceConfig) *BoardService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &BoardService{
		users:      cfg.UserRepo,
		characters: cfg.CharacterRepo,
		posts:      cfg.PostRepo,
		hub:        cfg.EventHub,
		loc:        loc,
		tracer:     tracer,
	}
}

// ============================================================================
// Queries
// ============================================================================

// EnsureUser provisions the user named by a verified token, refreshing the
// display name and role when they changed.
func (s *BoardService) EnsureUser(ctx context.Context, id, displayName string, role model.UserRole) (*model.User, error) {
	if id == "" {
		return nil, ErrAnonymous
	}
	if role == "" {
		role = model.UserRoleUser
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > model.MaxDisplayNameLength {
		return nil, ErrInvalidDisplayName
	}

	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Role == role && (displayName == "" || existing.DisplayName == displayName) {
		return existing, nil
	}

	user := &model.User{ID: id, DisplayName: displayName, Role: role}
	if existing != nil && displayName == "" {
		user.DisplayName = existing.DisplayName
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user provisioned", slog.String("user_id", id), slog.String("role", string(role)))
	return user, nil
}

// CurrentUser returns the user with their characters
func (s *BoardService) CurrentUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrAnonymous
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	chars, err := s.characters.ListByOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Characters = chars
	return user, nil
}

// Directory returns every user keyed by id, with their characters
func (s *BoardService) Directory(ctx context.Context) (model.Directory, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	chars, err := s.characters.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	dir := make(model.Directory, len(users))
	for _, u := range users {
		u.Characters = []model.Character{}
		dir[u.ID] = u
	}
	for _, c := range chars {
		if u, ok := dir[c.OwnerID]; ok {
			u.Characters = append(u.Characters, c)
		}
	}
	return dir, nil
}

// Posts returns every post with its roster, ordered by start time
func (s *BoardService) Posts(ctx context.Context) ([]model.Post, error) {
	return s.posts.List(ctx)
}

// GetPost returns one post with its roster
func (s *BoardService) GetPost(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// GetCharacter returns one character
func (s *BoardService) GetCharacter(ctx context.Context, id string) (*model.Character, error) {
	c, err := s.characters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCharacterNotFound
	}
	return c, nil
}

// Snapshot reads the directory and posts together for rendering
func (s *BoardService) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "board.Snapshot")
	defer span.End()

	dir, err := s.Directory(ctx)
	if err != nil {
		return nil, finish(span, err)
	}
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, finish(span, err)
	}
	span.SetAttributes(attribute.Int("board.posts", len(posts)), attribute.Int("board.users", len(dir)))
	return &model.Snapshot{Users: dir, Posts: posts}, nil
}

// ============================================================================
// Post Commands
// ============================================================================

// AddPost creates a post owned by the actor
func (s *BoardService) AddPost(ctx context.Context, actor model.Actor, req *model.CreatePostRequest) (post *model.Post, err error) {
	ctx, span := s.start(ctx, "board.AddPost", actor)
	defer func() { finish(span, err); span.End() }()

	if !actor.CanCreatePost() {
		return nil, ErrAnonymous
	}
	start, fieldErrs := req.ValidateIn(s.loc)
	if len(fieldErrs) > 0 {
		return nil, model.NewValidationError(fieldErrs)
	}

	post = &model.Post{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(req.Title),
		StartTime:  start.UTC(),
		OwnerID:    actor.UserID(),
		Applicants: []model.Applicant{},
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("post.id", post.ID))
	slog.Info("post created", slog.String("post_id", post.ID), slog.String("owner_id", post.OwnerID))
	s.publish(NewBoardEvent(EventPostCreated, post))
	return post, nil
}

// EditPost updates title and/or start time
func (s *BoardService) EditPost(ctx context.Context, actor model.Actor, id string, req *model.UpdatePostRequest) (post *model.Post, err error) {
	ctx, span := s.start(ctx, "board.EditPost", actor, attribute.String("post.id", id))
	defer func() { finish(span, err); span.End() }()

	post, err = s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManagePost(post) {
		return nil, ErrNotPostOwner
	}
	start, fieldErrs := req.ValidateIn(s.loc)
	if len(fieldErrs) > 0 {
		return nil, model.NewValidationError(fieldErrs)
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if start != nil {
		post.StartTime = start.UTC()
	}
	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	slog.Info("post updated", slog.String("post_id", id), slog.String("actor_id", actor.UserID()))
	s.publish(NewBoardEvent(EventPostUpdated, post))
	return post, nil
}

// DeletePost removes a post and its roster
func (s *BoardService) DeletePost(ctx context.Context, actor model.Actor, id string) (err error) {
	ctx, span := s.start(ctx, "board.DeletePost", actor, attribute.String("post.id", id))
	defer func() { finish(span, err); span.End() }()

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManagePost(post) {
		return ErrNotPostOwner
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("post deleted", slog.String("post_id", id), slog.String("actor_id", actor.UserID()))
	s.publish(NewBoardEvent(EventPostDeleted, map[string]string{"id": id}))
	return nil
}

// ============================================================================
// Character Commands
// ============================================================================

// AddCharacter stores a new character owned by the actor. An id chosen by
// the editor is kept; otherwise one is generated.
func (s *BoardService) AddCharacter(ctx context.Context, actor model.Actor, c *model.Character) (_ *model.Character, err error) {
	ctx, span := s.start(ctx, "board.AddCharacter", actor)
	defer func() { finish(span, err); span.End() }()

	if actor.IsAnonymous() {
		return nil, ErrAnonymous
	}
	c.Name = strings.TrimSpace(c.Name)
	if fieldErrs := c.Validate(); len(fieldErrs) > 0 {
		return nil, model.NewValidationError(fieldErrs)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.OwnerID = actor.UserID()

	if err := s.characters.Create(ctx, c); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrCharacterExists
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("character.id", c.ID))
	slog.Info("character created", slog.String("character_id", c.ID), slog.String("owner_id", c.OwnerID))
	s.publish(NewBoardEvent(EventCharacterCreated, c))
	return c, nil
}

// EditCharacter replaces a character's fields, keeping its id and owner
func (s *BoardService) EditCharacter(ctx context.Context, actor model.Actor, c *model.Character) (_ *model.Character, err error) {
	ctx, span := s.start(ctx, "board.EditCharacter", actor, attribute.String("character.id", c.ID))
	defer func() { finish(span, err); span.End() }()

	existing, err := s.GetCharacter(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageCharacter(existing.OwnerID) {
		return nil, ErrNotCharacterOwner
	}
	c.Name = strings.TrimSpace(c.Name)
	if fieldErrs := c.Validate(); len(fieldErrs) > 0 {
		return nil, model.NewValidationError(fieldErrs)
	}

	c.OwnerID = existing.OwnerID
	c.CreatedOn = existing.CreatedOn
	if err := s.characters.Update(ctx, c); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}

	slog.Info("character updated", slog.String("character_id", c.ID), slog.String("actor_id", actor.UserID()))
	s.publish(NewBoardEvent(EventCharacterUpdated, c))
	return c, nil
}

// UpdateCharacter applies a partial edit request to a stored character
func (s *BoardService) UpdateCharacter(ctx context.Context, actor model.Actor, id string, req *model.CharacterRequest) (*model.Character, error) {
	existing, err := s.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageCharacter(existing.OwnerID) {
		return nil, ErrNotCharacterOwner
	}
	req.ApplyTo(existing)
	return s.EditCharacter(ctx, actor, existing)
}

// DeleteCharacter removes a character and takes it off every roster
func (s *BoardService) DeleteCharacter(ctx context.Context, actor model.Actor, id string) (err error) {
	ctx, span := s.start(ctx, "board.DeleteCharacter", actor, attribute.String("character.id", id))
	defer func() { finish(span, err); span.End() }()

	existing, err := s.GetCharacter(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManageCharacter(existing.OwnerID) {
		return ErrNotCharacterOwner
	}
	if err := s.characters.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("character deleted", slog.String("character_id", id), slog.String("actor_id", actor.UserID()))
	s.publish(NewBoardEvent(EventCharacterDeleted, map[string]string{"id": id, "owner_id": existing.OwnerID}))
	return nil
}

// ============================================================================
// Roster Commands
// ============================================================================

// JoinPost enters a character on a post's roster
func (s *BoardService) JoinPost(ctx context.Context, actor model.Actor, postID string, req JoinRequest) (err error) {
	ctx, span := s.start(ctx, "board.JoinPost", actor,
		attribute.String("post.id", postID), attribute.String("character.id", req.CharacterID))
	defer func() { finish(span, err); span.End() }()

	if actor.IsAnonymous() {
		return ErrAnonymous
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	character, err := s.GetCharacter(ctx, req.CharacterID)
	if err != nil {
		return err
	}

	userID := req.UserID
	if userID == "" {
		userID = character.OwnerID
	}
	if userID != character.OwnerID {
		return ErrApplicantOwnerMatch
	}
	if !actor.CanField(character.OwnerID) {
		return ErrCannotField
	}
	if post.HasCharacter(character.ID) {
		return ErrAlreadyApplied
	}
	if post.IsFull() {
		return ErrRosterFull
	}

	if err := s.posts.AddApplicant(ctx, postID, userID, character.ID, model.RosterSize); err != nil {
		switch {
		case errors.Is(err, database.ErrLimitExceeded):
			return ErrRosterFull
		case errors.Is(err, database.ErrDuplicate):
			return ErrAlreadyApplied
		case errors.Is(err, database.ErrNotFound):
			return ErrPostNotFound
		}
		return err
	}

	slog.Info("applicant joined",
		slog.String("post_id", postID),
		slog.String("user_id", userID),
		slog.String("character_id", character.ID),
		slog.String("actor_id", actor.UserID()))
	s.publish(NewBoardEvent(EventPostJoined, map[string]interface{}{
		"post_id":   postID,
		"applicant": model.Applicant{UserID: userID, Character: *character},
	}))
	return nil
}

// LeavePost removes exactly the applicant matching both user and character
func (s *BoardService) LeavePost(ctx context.Context, actor model.Actor, postID, userID, characterID string) (err error) {
	ctx, span := s.start(ctx, "board.LeavePost", actor,
		attribute.String("post.id", postID), attribute.String("character.id", characterID))
	defer func() { finish(span, err); span.End() }()

	if actor.IsAnonymous() {
		return ErrAnonymous
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	applicant := post.FindApplicant(userID, characterID)
	if applicant == nil {
		return ErrApplicantNotFound
	}
	if !actor.CanRemoveApplicant(post, applicant) {
		return ErrCannotRemove
	}

	removed, err := s.posts.RemoveApplicant(ctx, postID, userID, characterID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrApplicantNotFound
	}

	slog.Info("applicant left",
		slog.String("post_id", postID),
		slog.String("user_id", userID),
		slog.String("character_id", characterID),
		slog.String("actor_id", actor.UserID()))
	event := NewBoardEvent(EventPostLeft, map[string]string{
		"post_id":      postID,
		"user_id":      userID,
		"character_id": characterID,
	})
	s.publish(event)
	if userID != actor.UserID() && s.hub != nil {
		s.hub.SendToUser(userID, event)
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *BoardService) start(ctx context.Context, name string, actor model.Actor, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("actor.id", actor.UserID()),
		attribute.String("actor.role", string(actor.Role())))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish records err on the span and returns it unchanged
func finish(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *BoardService) publish(event *Event) {
	if s.hub != nil {
		s.hub.Publish(event)
	}
}
