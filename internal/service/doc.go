// Package service implements the board's business logic.
//
// BoardService is the single authoritative store: the only writer of posts,
// characters and rosters. Every command takes the acting model.Actor, checks
// the permission predicate, persists through a repository interface defined
// here, and publishes a change on the EventHub.
//
//	board := service.NewBoardService(service.BoardServiceConfig{
//	    UserRepo:      repos.Users,
//	    CharacterRepo: repos.Characters,
//	    PostRepo:      repos.Posts,
//	    EventHub:      hub,
//	    Location:      cfg.Location(),
//	})
//	err := board.JoinPost(ctx, actor, postID, service.JoinRequest{CharacterID: id})
//
// # Errors
//
// Commands return the sentinels in errors.go, or a *model.ProblemDetails
// for validation failures. The sentinel text is what the viewer sees;
// UserMessage resolves any error to that sentence.
package service
