package handler

import (
	"net/http"

	"github.com/forgo/lfg/internal/middleware"
)

// Routes bundles the handlers and auth middleware mounted on the mux
type Routes struct {
	Health *HealthHandler
	Board  *BoardHandler
	UI     *UIHandler
	Events *EventsHandler

	Auth        middleware.AuthService
	Provisioner middleware.UserProvisioner
}

// Register mounts the JSON API and the HTML surface on mux
func Register(mux *http.ServeMux, r Routes) {
	auth := middleware.Auth(r.Auth, r.Provisioner)
	optional := middleware.OptionalAuth(r.Auth, r.Provisioner)

	withAuth := func(h http.HandlerFunc) http.Handler { return auth(h) }
	withViewer := func(h http.HandlerFunc) http.Handler { return optional(h) }

	// Health check (public)
	if r.Health != nil {
		mux.HandleFunc("GET /health", r.Health.Health)
	}

	// Board (anonymous viewers may read)
	if b := r.Board; b != nil {
		mux.Handle("GET /v1/me", withViewer(b.Me))
		mux.Handle("GET /v1/users", withViewer(b.Users))
		mux.Handle("GET /v1/board", withViewer(b.Board))
		mux.Handle("DELETE /v1/board/errors/{postId}", withAuth(b.DismissError))

		mux.Handle("GET /v1/posts", withViewer(b.ListPosts))
		mux.Handle("POST /v1/posts", withAuth(b.CreatePost))
		mux.Handle("GET /v1/posts/{postId}", withViewer(b.GetPost))
		mux.Handle("PATCH /v1/posts/{postId}", withAuth(b.UpdatePost))
		mux.Handle("DELETE /v1/posts/{postId}", withAuth(b.DeletePost))
		mux.Handle("GET /v1/posts/{postId}/join-options", withAuth(b.JoinOptions))
		mux.Handle("POST /v1/posts/{postId}/applicants", withAuth(b.Join))
		mux.Handle("DELETE /v1/posts/{postId}/applicants/{userId}/{characterId}", withAuth(b.Leave))

		mux.Handle("GET /v1/characters", withAuth(b.ListCharacters))
		mux.Handle("POST /v1/characters", withAuth(b.CreateCharacter))
		mux.Handle("PATCH /v1/characters/{characterId}", withAuth(b.UpdateCharacter))
		mux.Handle("DELETE /v1/characters/{characterId}", withAuth(b.DeleteCharacter))
		mux.Handle("GET /v1/characters/{characterId}/card", withViewer(b.CharacterCard))
	}

	// Real-time events
	if r.Events != nil {
		mux.Handle("GET /v1/events/stream", withViewer(r.Events.Stream))
	}

	// HTML surface. Form posts resolve the viewer themselves so an anonymous
	// submit renders a page instead of a problem document.
	if u := r.UI; u != nil {
		mux.Handle("GET /{$}", withViewer(u.Board))
		mux.Handle("GET /characters", withViewer(u.Characters))
		mux.Handle("GET /ui/posts/{postId}/join", withViewer(u.JoinPrompt))

		mux.Handle("POST /ui/posts", withViewer(u.CreatePost))
		mux.Handle("POST /ui/posts/{postId}/edit", withViewer(u.EditPost))
		mux.Handle("POST /ui/posts/{postId}/delete", withViewer(u.DeletePost))
		mux.Handle("POST /ui/posts/{postId}/join", withViewer(u.Join))
		mux.Handle("POST /ui/posts/{postId}/leave", withViewer(u.Leave))
		mux.Handle("POST /ui/posts/{postId}/dismiss", withViewer(u.DismissPost))
		mux.Handle("POST /ui/dismiss", withViewer(u.Dismiss))

		mux.Handle("POST /ui/characters", withViewer(u.AddCharacter))
		mux.Handle("POST /ui/characters/{characterId}/edit", withViewer(u.EditCharacter))
		mux.Handle("POST /ui/characters/{characterId}/delete", withViewer(u.DeleteCharacter))
	}
}
