package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
	"github.com/forgo/lfg/internal/testing/fixtures"
	"github.com/forgo/lfg/internal/testing/helpers"
	"github.com/forgo/lfg/internal/view"
)

// ============================================================================
// Me / Users
// ============================================================================

func TestMe_Anonymous(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/me").Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	var me MeResponse
	helpers.DecodeData(t, rec, &me)
	assert.True(t, me.Anonymous)
	assert.Nil(t, me.User)
}

func TestMe_ProvisionsUserFromToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	user := fixtures.User()

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/me").WithAuth(h.jwt, user).Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	var me MeResponse
	helpers.DecodeData(t, rec, &me)
	require.NotNil(t, me.User)
	assert.Equal(t, user.ID, me.User.ID)
	assert.Equal(t, user.DisplayName, me.User.DisplayName)
	assert.Equal(t, model.UserRoleUser, me.User.Role)
}

func TestMe_InvalidTokenFallsBackToAnonymous(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	req := helpers.NewRequest(t, http.MethodGet, "/v1/me").
		WithHeader("Authorization", "Bearer garbage").
		Build()
	rec := h.do(req)

	helpers.AssertStatus(t, rec, http.StatusOK)
	var me MeResponse
	helpers.DecodeData(t, rec, &me)
	assert.True(t, me.Anonymous)
}

func TestUsers_ListsDirectorySorted(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.factory.CreateUser(t, func(u *model.User) { u.DisplayName = "Zed" })
	h.factory.CreateUser(t, func(u *model.User) { u.DisplayName = "Amy" })

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/users").Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	var users []model.User
	helpers.DecodeData(t, rec, &users)
	require.Len(t, users, 2)
	assert.Equal(t, "Amy", users[0].DisplayName)
	assert.Equal(t, "Zed", users[1].DisplayName)
}

// ============================================================================
// Board
// ============================================================================

func TestBoard_EditDisabledForNonOwner(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	other := h.factory.CreateUser(t)
	p := h.factory.CreatePost(t, owner)

	tests := []struct {
		name    string
		viewer  *model.User
		canEdit bool
	}{
		{"owner", owner, true},
		{"other member", other, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/board").WithAuth(h.jwt, tt.viewer).Build())

			helpers.AssertStatus(t, rec, http.StatusOK)
			var list view.PostList
			helpers.DecodeData(t, rec, &list)
			require.Len(t, list.Posts, 1)
			assert.Equal(t, p.ID, list.Posts[0].ID)
			assert.Equal(t, tt.canEdit, list.Posts[0].CanEdit)
			assert.Len(t, list.Posts[0].Slots, model.RosterSize)
			assert.Equal(t, owner.DisplayName, list.Posts[0].OwnerName)
		})
	}
}

func TestBoard_AnonymousCannotCreate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/board").Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	var list view.PostList
	helpers.DecodeData(t, rec, &list)
	assert.False(t, list.CanCreate)
	assert.Empty(t, list.Posts)
}

func TestBoard_ShowsAndDismissesBanner(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	p := h.factory.CreatePost(t, owner)
	h.errors.Record(owner.ID, p.ID, service.ErrRosterFull)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/board").WithAuth(h.jwt, owner).Build())
	var list view.PostList
	helpers.DecodeData(t, rec, &list)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, service.ErrRosterFull.Error(), list.Posts[0].Error)

	rec = h.do(helpers.NewRequest(t, http.MethodDelete, "/v1/board/errors/"+p.ID).WithAuth(h.jwt, owner).Build())
	helpers.AssertStatus(t, rec, http.StatusNoContent)
	assert.Empty(t, h.errors.For(owner.ID))
}

// ============================================================================
// Posts
// ============================================================================

func TestCreatePost_ReturnsCreated(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	user := h.factory.CreateUser(t)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/posts").
		WithAuth(h.jwt, user).
		WithBody(model.CreatePostRequest{Title: "Valtan hard", StartTime: "2030-05-01T19:30:00Z"}).
		Build()
	rec := h.do(req)

	helpers.AssertStatus(t, rec, http.StatusCreated)
	var post model.Post
	helpers.DecodeData(t, rec, &post)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "Valtan hard", post.Title)
	assert.Equal(t, user.ID, post.OwnerID)
	assert.Empty(t, post.Applicants)
}

func TestCreatePost_Anonymous_Returns401(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/posts").
		WithBody(model.CreatePostRequest{Title: "x", StartTime: "2030-05-01T19:30:00Z"}).
		Build()
	rec := h.do(req)

	helpers.AssertProblemDetails(t, rec, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

func TestCreatePost_Invalid_ReturnsValidationError(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	user := h.factory.CreateUser(t)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/posts").
		WithAuth(h.jwt, user).
		WithBody(model.CreatePostRequest{Title: "", StartTime: "tomorrow"}).
		Build()
	rec := h.do(req)

	helpers.AssertValidationError(t, rec, "title")
	helpers.AssertValidationError(t, rec, "start_time")
}

func TestCreatePost_UnknownField_ReturnsBadRequest(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	user := h.factory.CreateUser(t)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/posts").
		WithAuth(h.jwt, user).
		WithBody(map[string]string{"title": "x", "owner_id": "someone"}).
		Build()
	rec := h.do(req)

	helpers.AssertProblemDetails(t, rec, http.StatusBadRequest, model.ErrCodeInvalidInput)
}

func TestGetPost_NotFound(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/posts/missing").Build())

	helpers.AssertProblemDetails(t, rec, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestUpdatePost_Permissions(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	other := h.factory.CreateUser(t)
	admin := h.factory.CreateUser(t, func(u *model.User) { u.Role = model.UserRoleAdmin })
	p := h.factory.CreatePost(t, owner)

	tests := []struct {
		name   string
		viewer *model.User
		title  string
		status int
	}{
		{"other member is forbidden", other, "Hijacked", http.StatusForbidden},
		{"owner may edit", owner, "By owner", http.StatusOK},
		{"admin may edit", admin, "By admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := helpers.NewRequest(t, http.MethodPatch, "/v1/posts/"+p.ID).
				WithAuth(h.jwt, tt.viewer).
				WithBody(model.UpdatePostRequest{Title: helpers.StringPtr(tt.title)}).
				Build()
			rec := h.do(req)

			helpers.AssertStatus(t, rec, tt.status)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.title, h.post(t, p.ID).Title)
			} else {
				assert.NotEqual(t, tt.title, h.post(t, p.ID).Title)
			}
		})
	}
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	other := h.factory.CreateUser(t)
	p := h.factory.CreatePost(t, owner)

	rec := h.do(helpers.NewRequest(t, http.MethodDelete, "/v1/posts/"+p.ID).WithAuth(h.jwt, other).Build())
	helpers.AssertProblemDetails(t, rec, http.StatusForbidden, model.ErrCodeForbidden)

	rec = h.do(helpers.NewRequest(t, http.MethodDelete, "/v1/posts/"+p.ID).WithAuth(h.jwt, owner).Build())
	helpers.AssertStatus(t, rec, http.StatusNoContent)

	_, err := h.board.GetPost(context.Background(), p.ID)
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

// ============================================================================
// Roster
// ============================================================================

func TestJoinOptions_NoCharacters_Returns409(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	p := h.factory.CreatePost(t, owner)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/posts/"+p.ID+"/join-options").WithAuth(h.jwt, owner).Build())

	helpers.AssertProblemDetails(t, rec, http.StatusConflict, model.ErrCodeNoCharacters)
	assert.Contains(t, rec.Body.String(), "You dont have characters")
}

func TestJoinOptions_AdminSeesEveryonesCharacters(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	admin := h.factory.CreateUser(t, func(u *model.User) { u.Role = model.UserRoleAdmin })
	member := h.factory.CreateUser(t)
	own := h.factory.CreateCharacter(t, admin)
	theirs := h.factory.CreateCharacter(t, member)
	p := h.factory.CreatePost(t, member)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/posts/"+p.ID+"/join-options").WithAuth(h.jwt, admin).Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	var prompt view.JoinPrompt
	helpers.DecodeData(t, rec, &prompt)
	ids := make([]string, 0, len(prompt.Characters))
	for _, c := range prompt.Characters {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{own.ID, theirs.ID}, ids)
}

func TestJoin_AddsApplicant(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	player := h.factory.CreateUser(t)
	c := h.factory.CreateCharacter(t, player)
	p := h.factory.CreatePost(t, owner)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/posts/"+p.ID+"/applicants").
		WithAuth(h.jwt, player).
		WithBody(JoinBody{CharacterID: c.ID}).
		Build()
	rec := h.do(req)

	helpers.AssertStatus(t, rec, http.StatusCreated)
	var post model.Post
	helpers.DecodeData(t, rec, &post)
	require.Len(t, post.Applicants, 1)
	assert.Equal(t, player.ID, post.Applicants[0].UserID)
	assert.Equal(t, c.ID, post.Applicants[0].Character.ID)
}

func TestJoin_Errors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	player := h.factory.CreateUser(t)
	mine := h.factory.CreateCharacter(t, player)
	theirs := h.factory.CreateCharacter(t, owner)

	open := h.factory.CreatePost(t, owner)
	h.factory.Join(t, open, mine)

	full := h.factory.CreatePost(t, owner)
	for i := 0; i < model.RosterSize; i++ {
		u := h.factory.CreateUser(t)
		h.factory.Join(t, full, h.factory.CreateCharacter(t, u))
	}
	spare := h.factory.CreateCharacter(t, player)

	tests := []struct {
		name   string
		postID string
		body   JoinBody
		status int
		code   model.ErrorCode
	}{
		{"missing character", open.ID, JoinBody{}, http.StatusUnprocessableEntity, model.ErrCodeValidation},
		{"already applied", open.ID, JoinBody{CharacterID: mine.ID}, http.StatusConflict, model.ErrCodeConflict},
		{"someone else's character", open.ID, JoinBody{CharacterID: theirs.ID}, http.StatusForbidden, model.ErrCodeForbidden},
		{"roster full", full.ID, JoinBody{CharacterID: spare.ID}, http.StatusUnprocessableEntity, model.ErrCodeLimitExceeded},
		{"unknown post", "missing", JoinBody{CharacterID: spare.ID}, http.StatusNotFound, model.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := helpers.NewRequest(t, http.MethodPost, "/v1/posts/"+tt.postID+"/applicants").
				WithAuth(h.jwt, player).
				WithBody(tt.body).
				Build()
			rec := h.do(req)

			helpers.AssertProblemDetails(t, rec, tt.status, tt.code)
		})
	}
}

func TestLeave_RemovesExactlyTheApplicant(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	player := h.factory.CreateUser(t)
	first := h.factory.CreateCharacter(t, player)
	second := h.factory.CreateCharacter(t, player)
	p := h.factory.CreatePost(t, owner)
	h.factory.Join(t, p, first)
	h.factory.Join(t, p, second)

	req := helpers.NewRequest(t, http.MethodDelete, "/v1/posts/"+p.ID+"/applicants/"+player.ID+"/"+first.ID).
		WithAuth(h.jwt, player).
		Build()
	rec := h.do(req)

	helpers.AssertStatus(t, rec, http.StatusNoContent)
	post := h.post(t, p.ID)
	require.Len(t, post.Applicants, 1)
	assert.Equal(t, second.ID, post.Applicants[0].Character.ID)
}

func TestLeave_StrangerIsForbidden(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	player := h.factory.CreateUser(t)
	stranger := h.factory.CreateUser(t)
	c := h.factory.CreateCharacter(t, player)
	p := h.factory.CreatePost(t, owner)
	h.factory.Join(t, p, c)

	req := helpers.NewRequest(t, http.MethodDelete, "/v1/posts/"+p.ID+"/applicants/"+player.ID+"/"+c.ID).
		WithAuth(h.jwt, stranger).
		Build()
	rec := h.do(req)

	helpers.AssertProblemDetails(t, rec, http.StatusForbidden, model.ErrCodeForbidden)
	assert.Len(t, h.post(t, p.ID).Applicants, 1)
}

// ============================================================================
// Characters
// ============================================================================

func TestListCharacters_RequiresAuth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/characters").Build())

	helpers.AssertProblemDetails(t, rec, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

func TestListCharacters_EmptyIsArray(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	user := h.factory.CreateUser(t)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/characters").WithAuth(h.jwt, user).Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestCreateCharacter_FlagsOffendingFields(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	user := h.factory.CreateUser(t)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/characters").
		WithAuth(h.jwt, user).
		WithBody(map[string]interface{}{"name": "Aria", "class": "", "item_level": 0}).
		Build()
	rec := h.do(req)

	helpers.AssertValidationError(t, rec, "class")
	helpers.AssertValidationError(t, rec, "item_level")
	assert.NotContains(t, rec.Body.String(), `"field":"name"`)
}

func TestCreateCharacter_ReturnsCreated(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	user := h.factory.CreateUser(t)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/characters").
		WithAuth(h.jwt, user).
		WithBody(map[string]interface{}{"name": "Aria", "class": "Bard", "item_level": 1620}).
		Build()
	rec := h.do(req)

	helpers.AssertStatus(t, rec, http.StatusCreated)
	var c model.Character
	helpers.DecodeData(t, rec, &c)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, user.ID, c.OwnerID)
	assert.Equal(t, model.ClassBard, c.Class)
}

func TestUpdateCharacter_OwnerOrAdmin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	other := h.factory.CreateUser(t)
	c := h.factory.CreateCharacter(t, owner)

	body := map[string]interface{}{"item_level": 1700}

	rec := h.do(helpers.NewRequest(t, http.MethodPatch, "/v1/characters/"+c.ID).WithAuth(h.jwt, other).WithBody(body).Build())
	helpers.AssertProblemDetails(t, rec, http.StatusForbidden, model.ErrCodeForbidden)

	rec = h.do(helpers.NewRequest(t, http.MethodPatch, "/v1/characters/"+c.ID).WithAuth(h.jwt, owner).WithBody(body).Build())
	helpers.AssertStatus(t, rec, http.StatusOK)
	var updated model.Character
	helpers.DecodeData(t, rec, &updated)
	assert.Equal(t, 1700, updated.ItemLevel)
	assert.Equal(t, c.Name, updated.Name)
}

func TestDeleteCharacter_LeavesEveryRoster(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	c := h.factory.CreateCharacter(t, owner)
	p1 := h.factory.CreatePost(t, owner)
	p2 := h.factory.CreatePost(t, owner)
	h.factory.Join(t, p1, c)
	h.factory.Join(t, p2, c)

	rec := h.do(helpers.NewRequest(t, http.MethodDelete, "/v1/characters/"+c.ID).WithAuth(h.jwt, owner).Build())

	helpers.AssertStatus(t, rec, http.StatusNoContent)
	assert.Empty(t, h.post(t, p1.ID).Applicants)
	assert.Empty(t, h.post(t, p2.ID).Applicants)
}

func TestCharacterCard_AverageGemLevel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	owner := h.factory.CreateUser(t)
	withGems := h.factory.CreateCharacter(t, owner, fixtures.WithGems(10, 20))
	noGems := h.factory.CreateCharacter(t, owner)

	tests := []struct {
		name string
		id   string
		avg  string
	}{
		{"mean of gems", withGems.ID, "15.0"},
		{"no gems", noGems.ID, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(helpers.NewRequest(t, http.MethodGet, "/v1/characters/"+tt.id+"/card").Build())

			helpers.AssertStatus(t, rec, http.StatusOK)
			var card view.CharacterCard
			helpers.DecodeData(t, rec, &card)
			assert.Equal(t, tt.avg, card.AverageGemLevel)
			assert.False(t, card.CanEdit)
		})
	}
}

// ============================================================================
// Health
// ============================================================================

func TestHealth_OK(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(helpers.NewRequest(t, http.MethodGet, "/health").Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return context.DeadlineExceeded }

func TestHealth_Degraded(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	Register(mux, Routes{Health: NewHealthHandler(failingPinger{})})

	rec := helpers.Serve(mux, helpers.NewRequest(t, http.MethodGet, "/health").Build())

	helpers.AssertStatus(t, rec, http.StatusServiceUnavailable)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
