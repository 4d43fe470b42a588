package view

import (
	"sync"

	"github.com/google/uuid"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
)

// PostErrors maps a post id to the last failed intent on that post. A post
// without an entry has no banner.
type PostErrors map[string]error

// Banner returns the banner text for postID, or "" when there is none.
func (e PostErrors) Banner(postID string) string {
	err, ok := e[postID]
	if !ok || err == nil {
		return ""
	}
	return service.UserMessage(err)
}

// ErrorStore keeps PostErrors per viewer so a failure only shows to the
// viewer who caused it, on the post they acted on.
type ErrorStore struct {
	mu       sync.Mutex
	byViewer map[string]PostErrors
}

// NewErrorStore creates an empty store
func NewErrorStore() *ErrorStore {
	return &ErrorStore{byViewer: make(map[string]PostErrors)}
}

// Record replaces the error shown to viewerID on postID. Anonymous viewers
// have no banner state.
func (s *ErrorStore) Record(viewerID, postID string, err error) {
	if viewerID == "" || err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	errs, ok := s.byViewer[viewerID]
	if !ok {
		errs = make(PostErrors)
		s.byViewer[viewerID] = errs
	}
	errs[postID] = err
}

// For returns a copy of the viewer's errors
func (s *ErrorStore) For(viewerID string) PostErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(PostErrors, len(s.byViewer[viewerID]))
	for postID, err := range s.byViewer[viewerID] {
		out[postID] = err
	}
	return out
}

// ForPosts is For with banners on posts missing from posts pruned first.
// The banner not tied to a post is kept.
func (s *ErrorStore) ForPosts(viewerID string, posts []model.Post) PostErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := s.byViewer[viewerID]
	out := make(PostErrors, len(errs))
	if len(errs) == 0 {
		return out
	}
	live := make(map[string]bool, len(posts))
	for i := range posts {
		live[posts[i].ID] = true
	}
	for postID, err := range errs {
		if postID != "" && !live[postID] {
			delete(errs, postID)
			continue
		}
		out[postID] = err
	}
	if len(errs) == 0 {
		delete(s.byViewer, viewerID)
	}
	return out
}

// Forget drops every viewer's banner on postID
func (s *ErrorStore) Forget(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for viewerID, errs := range s.byViewer {
		delete(errs, postID)
		if len(errs) == 0 {
			delete(s.byViewer, viewerID)
		}
	}
}

// Watch forgets the banners of posts deleted on hub until stop is called or
// the hub closes. A post.deleted dropped on a full buffer is caught later by
// ForPosts.
func (s *ErrorStore) Watch(hub *service.EventHub) (stop func()) {
	sub := hub.Subscribe(service.TopicBoard, "", "errors-"+uuid.NewString())
	go func() {
		for event := range sub.Events {
			if event.Type != service.EventPostDeleted {
				continue
			}
			if data, ok := event.Data.(map[string]string); ok && data["id"] != "" {
				s.Forget(data["id"])
			}
		}
	}()
	return func() { hub.Unsubscribe(sub) }
}

// Dismiss clears the banner on one post
func (s *ErrorStore) Dismiss(viewerID, postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs, ok := s.byViewer[viewerID]
	if !ok {
		return
	}
	delete(errs, postID)
	if len(errs) == 0 {
		delete(s.byViewer, viewerID)
	}
}
