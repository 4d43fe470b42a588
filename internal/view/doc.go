// Package view derives what a viewer sees from a board snapshot.
//
// The view-models (PostListView, CharacterCard, CharacterEditor) are plain
// values: the JSON API returns them as-is and the HTML pages in html.go
// render them with templ components. Nothing here mutates the board;
// intents go back to service.BoardService.
//
// Per-post banner errors live in an ErrorStore keyed by viewer, then by post
// id, so a failure shows only on the post the viewer acted on.
package view
