// Package handler provides the HTTP surfaces of the LFG board.
//
// Two surfaces share the same BoardService:
//
//   - BoardHandler: the JSON API under /v1. Commands apply synchronously and
//     failures come back as RFC 9457 Problem Details.
//   - UIHandler: server-rendered HTML. Form posts are handed to the intent
//     dispatcher and answered with a 303 redirect; a rejected intent shows
//     up as a banner on the viewer's next render.
//
// EventsHandler streams board changes over Server-Sent Events and
// HealthHandler reports storage reachability.
//
// # Response Format
//
//   - WriteData: single resource wrapped in {"data": ...}
//   - WriteJSON: raw JSON response
//   - WriteError: Problem Details error response
//
// Service errors are translated by MapServiceError.
//
// # Authentication
//
// Reads run behind OptionalAuth, so an anonymous viewer can browse the
// board. Mutations on the JSON API run behind Auth. The HTML form posts
// resolve the viewer themselves so an anonymous submit renders a page.
//
// # Example Usage
//
//	mux := http.NewServeMux()
//	handler.Register(mux, handler.Routes{
//	    Health: handler.NewHealthHandler(pinger),
//	    Board:  handler.NewBoardHandler(board, errorStore, format),
//	    Auth:   jwtService,
//	})
package handler
