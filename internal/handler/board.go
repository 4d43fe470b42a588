package handler

import (
	"context"
	"net/http"

	"github.com/forgo/lfg/internal/middleware"
	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
	"github.com/forgo/lfg/internal/view"
)

// BoardStore is the command interface the handlers drive
type BoardStore interface {
	CurrentUser(ctx context.Context, id string) (*model.User, error)
	Directory(ctx context.Context) (model.Directory, error)
	Posts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	GetCharacter(ctx context.Context, id string) (*model.Character, error)
	Snapshot(ctx context.Context) (*model.Snapshot, error)

	AddPost(ctx context.Context, actor model.Actor, req *model.CreatePostRequest) (*model.Post, error)
	EditPost(ctx context.Context, actor model.Actor, id string, req *model.UpdatePostRequest) (*model.Post, error)
	DeletePost(ctx context.Context, actor model.Actor, id string) error

	AddCharacter(ctx context.Context, actor model.Actor, c *model.Character) (*model.Character, error)
	EditCharacter(ctx context.Context, actor model.Actor, c *model.Character) (*model.Character, error)
	UpdateCharacter(ctx context.Context, actor model.Actor, id string, req *model.CharacterRequest) (*model.Character, error)
	DeleteCharacter(ctx context.Context, actor model.Actor, id string) error

	JoinPost(ctx context.Context, actor model.Actor, postID string, req service.JoinRequest) error
	LeavePost(ctx context.Context, actor model.Actor, postID, userID, characterID string) error
}

// BoardHandler serves the JSON API
type BoardHandler struct {
	store  BoardStore
	errors *view.ErrorStore
	format view.Formatter
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(store BoardStore, errs *view.ErrorStore, format view.Formatter) *BoardHandler {
	if errs == nil {
		errs = view.NewErrorStore()
	}
	return &BoardHandler{store: store, errors: errs, format: format}
}

// MeResponse is the body of GET /v1/me
type MeResponse struct {
	Anonymous bool        `json:"anonymous"`
	User      *model.User `json:"user,omitempty"`
}

// JoinBody is the body of POST /v1/posts/{postId}/applicants. user_id
// defaults to the character's owner.
type JoinBody struct {
	CharacterID string `json:"character_id"`
	UserID      string `json:"user_id,omitempty"`
}

// ============================================================================
// Users
// ============================================================================

// Me handles GET /v1/me
func (h *BoardHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	if actor.IsAnonymous() {
		WriteData(w, http.StatusOK, MeResponse{Anonymous: true}, nil)
		return
	}

	user, err := h.store.CurrentUser(ctx, actor.UserID())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, MeResponse{User: user}, map[string]string{
		"characters": "/v1/characters",
	})
}

// Users handles GET /v1/users
func (h *BoardHandler) Users(w http.ResponseWriter, r *http.Request) {
	dir, err := h.store.Directory(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	users := dir.Sorted()
	WriteCollection(w, http.StatusOK, users, len(users), nil)
}

// ============================================================================
// Board
// ============================================================================

// Board handles GET /v1/board - the post list as the viewer sees it
func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	list := view.NewPostListView(actor, snap, h.errors.ForPosts(actor.UserID(), snap.Posts), h.format).Build()
	WriteData(w, http.StatusOK, list, nil)
}

// DismissError handles DELETE /v1/board/errors/{postId}
func (h *BoardHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	if actor.IsAnonymous() {
		WriteServiceError(w, service.ErrAnonymous)
		return
	}
	h.errors.Dismiss(actor.UserID(), r.PathValue("postId"))
	WriteNoContent(w)
}

// ============================================================================
// Posts
// ============================================================================

// ListPosts handles GET /v1/posts
func (h *BoardHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.Posts(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteCollection(w, http.StatusOK, posts, len(posts), nil)
}

// CreatePost handles POST /v1/posts
func (h *BoardHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreatePostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	post, err := h.store.AddPost(ctx, middleware.GetActor(ctx), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, post, postLinks(post.ID))
}

// GetPost handles GET /v1/posts/{postId}
func (h *BoardHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.GetPost(r.Context(), r.PathValue("postId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, post, postLinks(post.ID))
}

// UpdatePost handles PATCH /v1/posts/{postId}
func (h *BoardHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.UpdatePostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	post, err := h.store.EditPost(ctx, middleware.GetActor(ctx), r.PathValue("postId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, post, postLinks(post.ID))
}

// DeletePost handles DELETE /v1/posts/{postId}
func (h *BoardHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.store.DeletePost(ctx, middleware.GetActor(ctx), r.PathValue("postId")); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// JoinOptions handles GET /v1/posts/{postId}/join-options
func (h *BoardHandler) JoinOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	prompt, err := view.NewPostListView(actor, snap, nil, h.format).OpenJoin(r.PathValue("postId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, prompt, nil)
}

// Join handles POST /v1/posts/{postId}/applicants
func (h *BoardHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID := r.PathValue("postId")

	var body JoinBody
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if body.CharacterID == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "character_id", Message: "character_id is required"}}))
		return
	}

	req := service.JoinRequest{UserID: body.UserID, CharacterID: body.CharacterID}
	if err := h.store.JoinPost(ctx, middleware.GetActor(ctx), postID, req); err != nil {
		WriteServiceError(w, err)
		return
	}

	post, err := h.store.GetPost(ctx, postID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, post, postLinks(post.ID))
}

// Leave handles DELETE /v1/posts/{postId}/applicants/{userId}/{characterId}
func (h *BoardHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.store.LeavePost(ctx, middleware.GetActor(ctx),
		r.PathValue("postId"), r.PathValue("userId"), r.PathValue("characterId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// ============================================================================
// Characters
// ============================================================================

// ListCharacters handles GET /v1/characters - the viewer's own characters
func (h *BoardHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	if actor.IsAnonymous() {
		WriteServiceError(w, service.ErrAnonymous)
		return
	}

	user, err := h.store.CurrentUser(ctx, actor.UserID())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	characters := user.Characters
	if characters == nil {
		characters = []model.Character{}
	}
	WriteCollection(w, http.StatusOK, characters, len(characters), nil)
}

// CreateCharacter handles POST /v1/characters
func (h *BoardHandler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CharacterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	var c model.Character
	req.ApplyTo(&c)
	created, err := h.store.AddCharacter(ctx, middleware.GetActor(ctx), &c)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, created, characterLinks(created.ID))
}

// UpdateCharacter handles PATCH /v1/characters/{characterId}
func (h *BoardHandler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CharacterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	updated, err := h.store.UpdateCharacter(ctx, middleware.GetActor(ctx), r.PathValue("characterId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, updated, characterLinks(updated.ID))
}

// DeleteCharacter handles DELETE /v1/characters/{characterId}
func (h *BoardHandler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.store.DeleteCharacter(ctx, middleware.GetActor(ctx), r.PathValue("characterId")); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// CharacterCard handles GET /v1/characters/{characterId}/card
func (h *BoardHandler) CharacterCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := h.store.GetCharacter(ctx, r.PathValue("characterId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	posts, err := h.store.Posts(ctx)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, view.NewCharacterCard(*c, posts, middleware.GetActor(ctx)), characterLinks(c.ID))
}

func postLinks(id string) map[string]string {
	return map[string]string{
		"self":       "/v1/posts/" + id,
		"applicants": "/v1/posts/" + id + "/applicants",
		"join":       "/v1/posts/" + id + "/join-options",
	}
}

func characterLinks(id string) map[string]string {
	return map[string]string{
		"self": "/v1/characters/" + id,
		"card": "/v1/characters/" + id + "/card",
	}
}
