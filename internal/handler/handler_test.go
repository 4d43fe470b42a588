package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/jobs"
	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/repository/sqlstore"
	"github.com/forgo/lfg/internal/service"
	"github.com/forgo/lfg/internal/testing/fixtures"
	"github.com/forgo/lfg/internal/testing/helpers"
	"github.com/forgo/lfg/internal/testing/testdb"
	"github.com/forgo/lfg/internal/view"
)

// ============================================================================
// Harness
// ============================================================================

// inlineDispatcher runs intents on the calling goroutine so a redirect is
// only returned once the command has been applied.
type inlineDispatcher struct {
	errors  *view.ErrorStore
	closed  bool
	intents []string
}

func (d *inlineDispatcher) Dispatch(ctx context.Context, intent jobs.Intent) error {
	if d.closed {
		return service.ErrDispatcherClosed
	}
	d.intents = append(d.intents, intent.Name)
	if err := intent.Run(ctx); err != nil {
		d.errors.Record(intent.ViewerID, intent.PostID, err)
	}
	return nil
}

type harness struct {
	mux        *http.ServeMux
	jwt        *helpers.JWTHelper
	factory    *fixtures.Factory
	store      *sqlstore.Store
	board      *service.BoardService
	errors     *view.ErrorStore
	dispatcher *inlineDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testdb.NewSQLite(t)
	store := sqlstore.New(db, database.DialectSQLite)
	board := service.NewBoardService(service.BoardServiceConfig{
		UserRepo:      store.Users,
		CharacterRepo: store.Characters,
		PostRepo:      store.Posts,
		Location:      time.UTC,
	})

	errs := view.NewErrorStore()
	format := view.NewFormatter(time.UTC, "en-US")
	dispatcher := &inlineDispatcher{errors: errs}
	jwtHelper := helpers.NewJWTHelper(t)

	mux := http.NewServeMux()
	Register(mux, Routes{
		Health: NewHealthHandler(store),
		Board:  NewBoardHandler(board, errs, format),
		UI: NewUIHandler(UIHandlerConfig{
			Store:      board,
			Dispatcher: dispatcher,
			Errors:     errs,
			Format:     format,
		}),
		Auth:        jwtHelper.Service,
		Provisioner: board,
	})

	return &harness{
		mux:        mux,
		jwt:        jwtHelper,
		factory:    &fixtures.Factory{Users: store.Users, Characters: store.Characters, Posts: store.Posts},
		store:      store,
		board:      board,
		errors:     errs,
		dispatcher: dispatcher,
	}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	return helpers.Serve(h.mux, req)
}

func (h *harness) post(t *testing.T, id string) *model.Post {
	t.Helper()
	p, err := h.board.GetPost(context.Background(), id)
	if err != nil {
		t.Fatalf("expected post %s, got error %v", id, err)
	}
	return p
}
