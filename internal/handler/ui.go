package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/forgo/lfg/internal/jobs"
	"github.com/forgo/lfg/internal/middleware"
	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
	"github.com/forgo/lfg/internal/view"
)

// IntentDispatcher runs store commands off the request path
type IntentDispatcher interface {
	Dispatch(ctx context.Context, intent jobs.Intent) error
}

// UIHandlerConfig holds the dependencies of the HTML surface
type UIHandlerConfig struct {
	Store      BoardStore
	Dispatcher IntentDispatcher
	Errors     *view.ErrorStore
	Format     view.Formatter
}

// UIHandler serves the server-rendered board. Reads render synchronously;
// every mutation is dispatched and answered with a 303 back to the page.
type UIHandler struct {
	store      BoardStore
	dispatcher IntentDispatcher
	errors     *view.ErrorStore
	format     view.Formatter
}

// NewUIHandler creates a new UI handler
func NewUIHandler(cfg UIHandlerConfig) *UIHandler {
	if cfg.Errors == nil {
		cfg.Errors = view.NewErrorStore()
	}
	return &UIHandler{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		errors:     cfg.Errors,
		format:     cfg.Format,
	}
}

const (
	boardPath      = "/"
	charactersPath = "/characters"
	dismissPath    = "/ui/dismiss"
)

// ============================================================================
// Pages
// ============================================================================

// Board handles GET /
func (h *UIHandler) Board(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := h.formatter(w, r)
	actor := middleware.GetActor(ctx)

	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		h.renderFailure(w, r, format, err)
		return
	}

	errs := h.errors.ForPosts(actor.UserID(), snap.Posts)
	list := view.NewPostListView(actor, snap, errs, format).Build()
	body := view.Stack(
		view.Alert(errs.Banner(""), dismissPath),
		view.Board(list, format),
	)
	h.render(w, r, http.StatusOK, format, "Board", snap.Users, actor, body)
}

// JoinPrompt handles GET /ui/posts/{postId}/join
func (h *UIHandler) JoinPrompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := h.formatter(w, r)
	actor := middleware.GetActor(ctx)
	postID := r.PathValue("postId")

	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		h.renderFailure(w, r, format, err)
		return
	}

	prompt, err := view.NewPostListView(actor, snap, nil, format).OpenJoin(postID)
	if err != nil {
		status := MapServiceError(err).Status
		h.render(w, r, status, format, "Join", snap.Users, actor, view.Join(postID, nil, service.UserMessage(err)))
		return
	}
	h.render(w, r, http.StatusOK, format, "Join", snap.Users, actor, view.Join(postID, prompt, ""))
}

// Characters handles GET /characters. ?edit={id} opens the editor on a
// character the viewer may manage.
func (h *UIHandler) Characters(w http.ResponseWriter, r *http.Request) {
	format := h.formatter(w, r)
	actor := middleware.GetActor(r.Context())

	var editing *model.Character
	if id := r.URL.Query().Get("edit"); id != "" && !actor.IsAnonymous() {
		c, err := h.store.GetCharacter(r.Context(), id)
		if err == nil && actor.CanManageCharacter(c.OwnerID) {
			editing = c
		}
	}
	h.renderCharacters(w, r, format, http.StatusOK, view.NewCharacterEditor(view.EditorHandlers{}, editing))
}

func (h *UIHandler) renderCharacters(w http.ResponseWriter, r *http.Request, format view.Formatter, status int, editor *view.CharacterEditor) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	if actor.IsAnonymous() {
		h.render(w, r, status, format, "Characters", nil, actor,
			view.Stack(view.Alert(service.UserMessage(service.ErrAnonymous), ""), view.Characters(nil, nil)))
		return
	}

	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		h.renderFailure(w, r, format, err)
		return
	}

	own := snap.Users.Characters(actor.UserID())
	cards := make([]view.CharacterCard, 0, len(own))
	for _, c := range own {
		cards = append(cards, view.NewCharacterCard(c, snap.Posts, actor))
	}

	body := view.Stack(
		view.Alert(h.errors.For(actor.UserID()).Banner(""), dismissPath),
		view.Characters(cards, editor),
	)
	h.render(w, r, status, format, "Characters", snap.Users, actor, body)
}

// ============================================================================
// Post intents
// ============================================================================

// CreatePost handles POST /ui/posts
func (h *UIHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}
	req := &model.CreatePostRequest{
		Title:     r.PostForm.Get("title"),
		StartTime: r.PostForm.Get("start_time"),
	}
	h.dispatch(w, r, boardPath, jobs.Intent{
		Name:     "create_post",
		ViewerID: actor.UserID(),
		Run: func(ctx context.Context) error {
			_, err := h.store.AddPost(ctx, actor, req)
			return err
		},
	})
}

// EditPost handles POST /ui/posts/{postId}/edit. Empty fields are left unchanged.
func (h *UIHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}
	postID := r.PathValue("postId")
	req := &model.UpdatePostRequest{
		Title:     formValue(r, "title"),
		StartTime: formValue(r, "start_time"),
	}
	h.dispatch(w, r, boardPath, jobs.Intent{
		Name:     "edit_post",
		ViewerID: actor.UserID(),
		PostID:   postID,
		Run: func(ctx context.Context) error {
			_, err := h.store.EditPost(ctx, actor, postID, req)
			return err
		},
	})
}

// DeletePost handles POST /ui/posts/{postId}/delete
func (h *UIHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}
	postID := r.PathValue("postId")
	h.dispatch(w, r, boardPath, jobs.Intent{
		Name:     "delete_post",
		ViewerID: actor.UserID(),
		PostID:   postID,
		Run: func(ctx context.Context) error {
			return h.store.DeletePost(ctx, actor, postID)
		},
	})
}

// Join handles POST /ui/posts/{postId}/join. The applicant is the owner of
// the picked character; a character with no owner is dropped silently.
func (h *UIHandler) Join(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	postID := r.PathValue("postId")

	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		h.errors.Record(actor.UserID(), postID, err)
		http.Redirect(w, r, boardPath, http.StatusSeeOther)
		return
	}

	req, found := view.NewPostListView(actor, snap, nil, h.format).Join(r.PostForm.Get("character_id"))
	if !found {
		http.Redirect(w, r, boardPath, http.StatusSeeOther)
		return
	}

	h.dispatch(w, r, boardPath, jobs.Intent{
		Name:     "join",
		ViewerID: actor.UserID(),
		PostID:   postID,
		Run: func(ctx context.Context) error {
			return h.store.JoinPost(ctx, actor, postID, req)
		},
	})
}

// Leave handles POST /ui/posts/{postId}/leave
func (h *UIHandler) Leave(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}
	postID := r.PathValue("postId")
	userID := r.PostForm.Get("user_id")
	characterID := r.PostForm.Get("character_id")
	h.dispatch(w, r, boardPath, jobs.Intent{
		Name:     "leave",
		ViewerID: actor.UserID(),
		PostID:   postID,
		Run: func(ctx context.Context) error {
			return h.store.LeavePost(ctx, actor, postID, userID, characterID)
		},
	})
}

// DismissPost handles POST /ui/posts/{postId}/dismiss
func (h *UIHandler) DismissPost(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	h.errors.Dismiss(actor.UserID(), r.PathValue("postId"))
	http.Redirect(w, r, boardPath, http.StatusSeeOther)
}

// Dismiss handles POST /ui/dismiss, clearing the banner not tied to a post
func (h *UIHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	h.errors.Dismiss(actor.UserID(), "")
	target := boardPath
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path == charactersPath {
		target = charactersPath
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ============================================================================
// Character intents
// ============================================================================

// AddCharacter handles POST /ui/characters. An invalid form is rendered
// again with the offending fields flagged.
func (h *UIHandler) AddCharacter(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}

	var dispatched bool
	editor := view.NewCharacterEditor(view.EditorHandlers{
		Add: func(c model.Character) {
			dispatched = true
			h.dispatch(w, r, charactersPath, jobs.Intent{
				Name:     "add_character",
				ViewerID: actor.UserID(),
				Run: func(ctx context.Context) error {
					_, err := h.store.AddCharacter(ctx, actor, &c)
					return err
				},
			})
		},
	}, nil)
	fillEditor(editor, r)

	if !editor.Confirm() || !dispatched {
		h.renderCharacters(w, r, h.formatter(w, r), http.StatusUnprocessableEntity, editor)
	}
}

// EditCharacter handles POST /ui/characters/{characterId}/edit
func (h *UIHandler) EditCharacter(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}

	original, err := h.store.GetCharacter(r.Context(), r.PathValue("characterId"))
	if err != nil {
		h.errors.Record(actor.UserID(), "", err)
		http.Redirect(w, r, charactersPath, http.StatusSeeOther)
		return
	}

	var dispatched bool
	editor := view.NewCharacterEditor(view.EditorHandlers{
		Edit: func(c model.Character) {
			dispatched = true
			h.dispatch(w, r, charactersPath, jobs.Intent{
				Name:     "edit_character",
				ViewerID: actor.UserID(),
				Run: func(ctx context.Context) error {
					_, err := h.store.EditCharacter(ctx, actor, &c)
					return err
				},
			})
		},
	}, original)
	fillEditor(editor, r)

	if !editor.Confirm() || !dispatched {
		h.renderCharacters(w, r, h.formatter(w, r), http.StatusUnprocessableEntity, editor)
	}
}

// DeleteCharacter handles POST /ui/characters/{characterId}/delete
func (h *UIHandler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.viewer(w, r)
	if !ok {
		return
	}
	id := r.PathValue("characterId")
	h.dispatch(w, r, charactersPath, jobs.Intent{
		Name:     "delete_character",
		ViewerID: actor.UserID(),
		Run: func(ctx context.Context) error {
			return h.store.DeleteCharacter(ctx, actor, id)
		},
	})
}

// ============================================================================
// Helpers
// ============================================================================

// viewer parses the form and requires a signed-in actor.
func (h *UIHandler) viewer(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return nil, false
	}
	actor := middleware.GetActor(r.Context())
	if actor.IsAnonymous() {
		format := h.formatter(w, r)
		h.render(w, r, http.StatusUnauthorized, format, "Sign in", nil, actor,
			view.Alert(service.UserMessage(service.ErrAnonymous), ""))
		return nil, false
	}
	return actor, true
}

// dispatch hands the intent to the dispatcher and redirects to target. A
// dispatcher that refuses the intent shows as a banner like any failure.
func (h *UIHandler) dispatch(w http.ResponseWriter, r *http.Request, target string, intent jobs.Intent) {
	if err := h.dispatcher.Dispatch(r.Context(), intent); err != nil {
		h.errors.Record(intent.ViewerID, intent.PostID, err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *UIHandler) formatter(w http.ResponseWriter, r *http.Request) view.Formatter {
	tag, persist := ResolveLanguage(r, h.format.Language())
	if persist {
		SetLanguageCookie(w, tag)
	}
	return h.format.WithLanguage(tag)
}

// render writes a full page. It renders into a buffer first so a failing
// component never leaves half a page behind.
func (h *UIHandler) render(w http.ResponseWriter, r *http.Request, status int, format view.Formatter, title string, dir model.Directory, actor model.Actor, body templ.Component) {
	viewerName := ""
	if !actor.IsAnonymous() {
		viewerName = dir.DisplayName(actor.UserID())
	}

	var buf bytes.Buffer
	page := view.Page(title, format.Language().String(), viewerName, body)
	if err := page.Render(r.Context(), &buf); err != nil {
		slog.Error("render failed",
			slog.String("page", title),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		http.Error(w, service.GenericFailure, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *UIHandler) renderFailure(w http.ResponseWriter, r *http.Request, format view.Formatter, err error) {
	problem := MapServiceError(err)
	if problem.Status >= http.StatusInternalServerError {
		slog.Error("page load failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	h.render(w, r, problem.Status, format, "Error", nil, middleware.GetActor(r.Context()),
		view.Alert(service.UserMessage(err), ""))
}

func fillEditor(e *view.CharacterEditor, r *http.Request) {
	e.Name = r.PostForm.Get("name")
	e.Class = model.CharacterClass(r.PostForm.Get("class"))
	e.SetItemLevel(r.PostForm.Get("item_level"))
}

// formValue returns a pointer to a non-empty form field, nil otherwise
func formValue(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.PostForm.Get(key))
	if v == "" {
		return nil
	}
	return &v
}
