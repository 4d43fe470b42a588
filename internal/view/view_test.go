package view

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
)

// ============================================================================
// Fixtures
// ============================================================================

var (
	memberA = model.NewActor("user-a", model.UserRoleUser)
	memberB = model.NewActor("user-b", model.UserRoleUser)
	admin   = model.NewActor("admin", model.UserRoleAdmin)
)

func char(id, owner string, gems ...int) model.Character {
	c := model.Character{ID: id, OwnerID: owner, Name: "Char " + id, Class: model.ClassBard, ItemLevel: 1600}
	for i, level := range gems {
		t := model.GemTypeAttack
		if i%2 == 1 {
			t = model.GemTypeCooldown
		}
		c.Gems = append(c.Gems, model.Gem{Type: t, Level: level, Skill: "skill"})
	}
	return c
}

func snapshot() *model.Snapshot {
	// 2026-10-21 is a Wednesday; 15:30 UTC is 18:30 in Helsinki.
	start := time.Date(2026, 10, 21, 15, 30, 0, 0, time.UTC)
	return &model.Snapshot{
		Users: model.Directory{
			"user-a": {ID: "user-a", DisplayName: "Aino", Characters: []model.Character{char("a1", "user-a"), char("a2", "user-a")}},
			"user-b": {ID: "user-b", DisplayName: "Bertta", Characters: []model.Character{char("b1", "user-b")}},
			"admin":  {ID: "admin", DisplayName: "Admin"},
		},
		Posts: []model.Post{
			{
				ID: "p1", Title: "Valtan", StartTime: start, OwnerID: "user-a",
				Applicants: []model.Applicant{{UserID: "user-b", Character: char("b1", "user-b")}},
			},
			{ID: "p2", Title: "Ghost", StartTime: start, OwnerID: "deleted-user"},
		},
	}
}

func helsinki(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	return loc
}

// ============================================================================
// Formatter
// ============================================================================

func TestFormatter_FinnishDefaults(t *testing.T) {
	t.Parallel()
	f := NewFormatter(helsinki(t), "fi")
	ts := time.Date(2026, 3, 5, 16, 7, 0, 0, time.UTC)

	if got := f.Date(ts); got != "5.3.2026" {
		t.Errorf("expected 5.3.2026, got %q", got)
	}
	if got := f.Clock(ts); got != "18:07" {
		t.Errorf("expected 18:07, got %q", got)
	}
	if got := f.Weekday(ts); got != "Thursday" {
		t.Errorf("expected Thursday, got %q", got)
	}
}

func TestFormatter_WeekdayFollowsDisplayZone(t *testing.T) {
	t.Parallel()
	f := NewFormatter(helsinki(t), "fi")
	// Saturday 23:30 UTC is already Sunday in Helsinki.
	ts := time.Date(2026, 10, 24, 23, 30, 0, 0, time.UTC)

	if got := f.Weekday(ts); got != "Sunday" {
		t.Errorf("expected Sunday, got %q", got)
	}
}

func TestFormatter_Languages(t *testing.T) {
	t.Parallel()
	ts := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		locale string
		want   string
	}{
		{"fi", "5.3.2026"},
		{"en-US", "3/5/2026"},
		{"en-GB", "05/03/2026"},
		{"sv", "2026-03-05"},
		{"xx-unknown", "5.3.2026"},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			t.Parallel()
			if got := NewFormatter(time.UTC, tt.locale).Date(ts); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMatchLanguage(t *testing.T) {
	t.Parallel()

	if got := MatchLanguage(); got != language.Finnish {
		t.Errorf("expected Finnish default, got %v", got)
	}
	if got := MatchLanguage(language.MustParse("en-GB")); got != language.BritishEnglish {
		t.Errorf("expected en-GB, got %v", got)
	}
	if _, ok := ParseLanguage(""); ok {
		t.Error("expected empty value to be rejected")
	}
}

// ============================================================================
// PostListView
// ============================================================================

func TestPostListView_EditDisabledForNonOwner(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name  string
		actor model.Actor
		want  bool
	}{
		{"owner", memberA, true},
		{"other member", memberB, false},
		{"admin", admin, true},
		{"anonymous", model.Anonymous(), false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			list := NewPostListView(tt.actor, snapshot(), nil, NewFormatter(time.UTC, "fi")).Build()
			if got := list.Posts[0].CanEdit; got != tt.want {
				t.Errorf("expected CanEdit=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestPostListView_CardFields(t *testing.T) {
	t.Parallel()
	list := NewPostListView(memberB, snapshot(), nil, NewFormatter(helsinki(t), "fi")).Build()

	card := list.Posts[0]
	if card.Weekday != "Wednesday" || card.Time != "18:30" || card.Date != "21.10.2026" {
		t.Errorf("unexpected derived time %q %q %q", card.Weekday, card.Time, card.Date)
	}
	if card.OwnerName != "Aino" {
		t.Errorf("expected owner Aino, got %q", card.OwnerName)
	}
	if list.Posts[1].OwnerName != model.DisplayNameFallback {
		t.Errorf("expected fallback owner name, got %q", list.Posts[1].OwnerName)
	}
	if len(card.Slots) != model.RosterSize {
		t.Fatalf("expected %d slots, got %d", model.RosterSize, len(card.Slots))
	}
	if card.Slots[0].Open || card.Slots[0].PlayerName != "Bertta" || !card.Slots[0].CanLeave {
		t.Errorf("unexpected first slot %+v", card.Slots[0])
	}
	for _, s := range card.Slots[1:] {
		if !s.Open {
			t.Errorf("expected slot %d open", s.Index)
		}
	}
}

func TestPostListView_CreateHiddenForAnonymous(t *testing.T) {
	t.Parallel()
	f := NewFormatter(time.UTC, "fi")

	if NewPostListView(model.Anonymous(), snapshot(), nil, f).Build().CanCreate {
		t.Error("anonymous viewers should not see the create form")
	}
	if !NewPostListView(memberA, snapshot(), nil, f).Build().CanCreate {
		t.Error("members should see the create form")
	}
}

func TestPostListView_BannerScopedToPost(t *testing.T) {
	t.Parallel()
	errs := PostErrors{"p2": service.ErrRosterFull}

	list := NewPostListView(memberA, snapshot(), errs, NewFormatter(time.UTC, "fi")).Build()
	if list.Posts[0].Error != "" {
		t.Errorf("expected no banner on p1, got %q", list.Posts[0].Error)
	}
	if list.Posts[1].Error != "the party is full" {
		t.Errorf("expected banner on p2, got %q", list.Posts[1].Error)
	}
}

func TestPostListView_OpenJoin(t *testing.T) {
	t.Parallel()
	f := NewFormatter(time.UTC, "fi")

	t.Run("member sees own characters", func(t *testing.T) {
		t.Parallel()
		prompt, err := NewPostListView(memberA, snapshot(), nil, f).OpenJoin("p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(prompt.Characters) != 2 {
			t.Errorf("expected 2 characters, got %d", len(prompt.Characters))
		}
	})

	t.Run("admin with characters sees everyone's", func(t *testing.T) {
		t.Parallel()
		snap := snapshot()
		snap.Users["admin"].Characters = []model.Character{char("x1", "admin")}
		prompt, err := NewPostListView(admin, snap, nil, f).OpenJoin("p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(prompt.Characters) != 4 {
			t.Errorf("expected all 4 characters, got %d", len(prompt.Characters))
		}
	})

	t.Run("no characters blocks the prompt", func(t *testing.T) {
		t.Parallel()
		prompt, err := NewPostListView(admin, snapshot(), nil, f).OpenJoin("p1")
		if !errors.Is(err, service.ErrNoCharacters) {
			t.Errorf("expected ErrNoCharacters, got %v", err)
		}
		if prompt != nil {
			t.Error("prompt must not open")
		}
		if err.Error() != "You dont have characters" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("unknown post", func(t *testing.T) {
		t.Parallel()
		if _, err := NewPostListView(memberA, snapshot(), nil, f).OpenJoin("nope"); !errors.Is(err, service.ErrPostNotFound) {
			t.Errorf("expected ErrPostNotFound, got %v", err)
		}
	})
}

func TestPostListView_JoinResolvesOwner(t *testing.T) {
	t.Parallel()
	v := NewPostListView(admin, snapshot(), nil, NewFormatter(time.UTC, "fi"))

	req, ok := v.Join("b1")
	if !ok {
		t.Fatal("expected owner found")
	}
	if req.UserID != "user-b" || req.CharacterID != "b1" {
		t.Errorf("expected user-b/b1, got %+v", req)
	}
	if _, ok := v.Join("missing"); ok {
		t.Error("expected join without owner to be dropped")
	}
}

// ============================================================================
// CharacterCard
// ============================================================================

func TestAverageGemLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		gems []int
		want string
	}{
		{nil, "-"},
		{[]int{10, 20}, "15.0"},
		{[]int{7, 8, 8}, "7.7"},
		{[]int{9}, "9.0"},
		{[]int{1, 1, 1, 2}, "1.3"},
		{[]int{3, 3, 3, 4}, "3.3"},
		{[]int{1, 2}, "1.5"},
		{[]int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2}, "1.2"},
	}
	for _, tt := range tests {
		if got := AverageGemLevel(char("c", "u", tt.gems...)); got != tt.want {
			t.Errorf("gems %v: expected %q, got %q", tt.gems, tt.want, got)
		}
	}
}

func TestNewCharacterCard(t *testing.T) {
	t.Parallel()
	snap := snapshot()
	c := char("b1", "user-b", 5, 6, 7)

	card := NewCharacterCard(c, snap.Posts, memberB)
	if card.Subheader != "Bard  1600" {
		t.Errorf("expected two-space subheader, got %q", card.Subheader)
	}
	if len(card.AppliedTo) != 1 || card.AppliedTo[0] != "Valtan" {
		t.Errorf("expected applied to Valtan, got %v", card.AppliedTo)
	}
	if len(card.GemGroups) != 2 || len(card.GemGroups[0].Gems) != 2 || len(card.GemGroups[1].Gems) != 1 {
		t.Errorf("unexpected gem partition %+v", card.GemGroups)
	}
	if !card.CanEdit {
		t.Error("owner should be able to edit")
	}
	if NewCharacterCard(c, snap.Posts, memberA).CanEdit {
		t.Error("other member should not be able to edit")
	}
	if got := NewCharacterCard(char("a1", "user-a"), snap.Posts, memberA).AppliedTo; len(got) != 0 || got == nil {
		t.Errorf("expected empty non-nil applied list, got %v", got)
	}
}

// ============================================================================
// CharacterEditor
// ============================================================================

func TestCharacterEditor_FlagsExactlyOffendingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		charName  string
		class     model.CharacterClass
		itemLevel int
		want      model.CharacterValidation
	}{
		{"all missing", "", model.ClassUnset, 0, model.CharacterValidation{Name: true, Class: true, ItemLevel: true}},
		{"name only", "", model.ClassBard, 1600, model.CharacterValidation{Name: true}},
		{"class only", "Lumi", model.ClassUnset, 1600, model.CharacterValidation{Class: true}},
		{"item level only", "Lumi", model.ClassBard, 0, model.CharacterValidation{ItemLevel: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			called := false
			e := NewCharacterEditor(EditorHandlers{Add: func(model.Character) { called = true }}, nil)
			e.Name, e.Class, e.ItemLevel = tt.charName, tt.class, tt.itemLevel

			if e.Confirm() {
				t.Fatal("expected invalid form to be rejected")
			}
			if called {
				t.Error("handler must not run for invalid input")
			}
			if e.Errors != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, e.Errors)
			}
			if e.Name != tt.charName {
				t.Error("rejected form should keep its values")
			}
		})
	}
}

func TestCharacterEditor_AddWinsAndGeneratesID(t *testing.T) {
	t.Parallel()

	var added, edited []model.Character
	e := NewCharacterEditor(EditorHandlers{
		Add:  func(c model.Character) { added = append(added, c) },
		Edit: func(c model.Character) { edited = append(edited, c) },
	}, nil)
	e.Name, e.Class = "Lumi", model.ClassArtist
	e.SetItemLevel("1610")

	if e.Mode() != EditorModeAdd {
		t.Errorf("expected add mode")
	}
	if !e.Confirm() {
		t.Fatal("expected valid form to submit")
	}
	if len(added) != 1 || len(edited) != 0 {
		t.Fatalf("expected only add called, got add=%d edit=%d", len(added), len(edited))
	}
	if added[0].ID == "" || added[0].ItemLevel != 1610 {
		t.Errorf("unexpected character %+v", added[0])
	}
	if e.Name != "" || e.Class != model.ClassUnset || e.ItemLevel != 0 {
		t.Error("expected form cleared after confirm")
	}
}

func TestCharacterEditor_EditKeepsIDAndLoadout(t *testing.T) {
	t.Parallel()

	gear := "Salvation"
	original := char("keep-me", "user-a", 9, 10)
	original.GearSet = &gear
	original.Engravings = []model.Engraving{{Name: "Grudge", Level: 3}}

	var edited model.Character
	e := NewCharacterEditor(EditorHandlers{Edit: func(c model.Character) { edited = c }}, &original)
	if e.Name != original.Name || e.ItemLevel != 1600 || e.SubmitLabel() != "Confirm" {
		t.Errorf("expected pre-filled edit form, got %+v", e)
	}
	e.Name = "Renamed"

	if !e.Confirm() {
		t.Fatal("expected valid form to submit")
	}
	if edited.ID != "keep-me" || edited.Name != "Renamed" {
		t.Errorf("unexpected edit %+v", edited)
	}
	if len(edited.Gems) != 2 || len(edited.Engravings) != 1 || edited.GearSet == nil {
		t.Errorf("expected loadout preserved, got %+v", edited)
	}
}

func TestCharacterEditor_CancelClears(t *testing.T) {
	t.Parallel()
	e := NewCharacterEditor(EditorHandlers{}, nil)
	e.Name, e.Class, e.ItemLevel = "x", model.ClassBard, 5
	e.Validate()
	e.Errors.Name = true

	e.Cancel()
	if e.Name != "" || e.Class != model.ClassUnset || e.ItemLevel != 0 || !e.Errors.Valid() {
		t.Errorf("expected cleared form, got %+v", e)
	}
	if e.SubmitLabel() != "Add" {
		t.Errorf("expected Add label, got %q", e.SubmitLabel())
	}
}

func TestCharacterEditor_SetItemLevelRejectsGarbage(t *testing.T) {
	t.Parallel()
	e := NewCharacterEditor(EditorHandlers{}, nil)
	e.SetItemLevel("lots")
	if e.ItemLevel != 0 {
		t.Errorf("expected 0, got %d", e.ItemLevel)
	}
}

// ============================================================================
// ErrorStore
// ============================================================================

func TestErrorStore(t *testing.T) {
	t.Parallel()
	s := NewErrorStore()

	s.Record("user-a", "p1", service.ErrRosterFull)
	s.Record("user-a", "p2", service.ErrAlreadyApplied)
	s.Record("", "p1", service.ErrRosterFull)

	if got := s.For("user-a").Banner("p1"); got != "the party is full" {
		t.Errorf("unexpected banner %q", got)
	}
	if got := s.For("user-b").Banner("p1"); got != "" {
		t.Errorf("other viewer should see nothing, got %q", got)
	}

	s.Dismiss("user-a", "p1")
	errs := s.For("user-a")
	if errs.Banner("p1") != "" || errs.Banner("p2") == "" {
		t.Errorf("dismiss should clear only p1, got %v", errs)
	}
}

func TestErrorStore_ForPostsPrunesGonePosts(t *testing.T) {
	t.Parallel()
	s := NewErrorStore()
	s.Record("user-a", "p1", service.ErrRosterFull)
	s.Record("user-a", "gone", service.ErrNotPostOwner)
	s.Record("user-a", "", service.ErrDispatcherClosed)

	errs := s.ForPosts("user-a", []model.Post{{ID: "p1"}})
	if len(errs) != 2 || errs.Banner("p1") == "" || errs.Banner("") == "" {
		t.Errorf("expected p1 and the page banner, got %v", errs)
	}
	if _, ok := s.For("user-a")["gone"]; ok {
		t.Error("expected banner on a deleted post to be pruned")
	}
}

func TestErrorStore_Forget(t *testing.T) {
	t.Parallel()
	s := NewErrorStore()
	s.Record("user-a", "p1", service.ErrRosterFull)
	s.Record("user-b", "p1", service.ErrAlreadyApplied)
	s.Record("user-b", "p2", service.ErrAlreadyApplied)

	s.Forget("p1")

	if len(s.For("user-a")) != 0 {
		t.Errorf("expected user-a cleared, got %v", s.For("user-a"))
	}
	if errs := s.For("user-b"); len(errs) != 1 || errs.Banner("p2") == "" {
		t.Errorf("expected only p2 left for user-b, got %v", errs)
	}
}

func TestErrorStore_WatchForgetsDeletedPosts(t *testing.T) {
	t.Parallel()
	hub := service.NewEventHub()
	defer hub.Close()

	s := NewErrorStore()
	stop := s.Watch(hub)
	defer stop()

	s.Record("user-a", "p1", service.ErrRosterFull)
	s.Record("user-a", "p2", service.ErrRosterFull)
	hub.Publish(service.NewBoardEvent(service.EventPostUpdated, map[string]string{"id": "p2"}))
	hub.Publish(service.NewBoardEvent(service.EventPostDeleted, map[string]string{"id": "p1"}))

	deadline := time.Now().Add(2 * time.Second)
	for s.For("user-a").Banner("p1") != "" {
		if time.Now().After(deadline) {
			t.Fatal("expected banner on deleted post to be forgotten")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s.For("user-a").Banner("p2") == "" {
		t.Error("expected banner on updated post to stay")
	}
}

// ============================================================================
// HTML
// ============================================================================

func TestBoardHTML(t *testing.T) {
	t.Parallel()
	f := NewFormatter(time.UTC, "fi")
	snap := snapshot()
	snap.Posts[0].Title = `<script>alert(1)</script>`

	var b strings.Builder
	list := NewPostListView(memberB, snap, PostErrors{"p1": service.ErrRosterFull}, f).Build()
	if err := Board(list, f).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := b.String()

	if strings.Contains(got, "<script>alert(1)</script>") {
		t.Error("title must be escaped")
	}
	if !strings.Contains(got, "Create lfg post") {
		t.Error("expected create form for member")
	}
	if !strings.Contains(got, `<button type="submit" disabled aria-disabled="true">Edit</button>`) {
		t.Error("expected disabled edit for non-owner")
	}
	if !strings.Contains(got, "Owner:</span> Aino") {
		t.Error("expected owner line")
	}
	if strings.Count(got, `class="slot open"`) != 2*model.RosterSize-1 {
		t.Errorf("expected %d open slots", 2*model.RosterSize-1)
	}
	if !strings.Contains(got, `role="alert"><span>the party is full</span>`) {
		t.Error("expected banner on p1")
	}
}

func TestJoinHTML_Alert(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	if err := Join("p1", nil, service.ErrNoCharacters.Error()).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(b.String(), "You dont have characters") {
		t.Errorf("expected alert, got %q", b.String())
	}
}

func TestCharactersHTML_EditorFlags(t *testing.T) {
	t.Parallel()
	e := NewCharacterEditor(EditorHandlers{}, nil)
	e.Name = "Lumi"
	e.Validate()

	var b strings.Builder
	if err := Page("Characters", "fi", "Aino", Characters(nil, e)).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := b.String()
	if !strings.Contains(got, `<select name="class" required class="error" aria-invalid="true">`) {
		t.Error("expected class flagged")
	}
	if strings.Contains(got, `name="name" value="Lumi" maxlength="32" required class="error"`) {
		t.Error("name must not be flagged")
	}
	if !strings.Contains(got, `<html lang="fi">`) {
		t.Error("expected document language")
	}
}

func TestJoinHTML_Picker(t *testing.T) {
	t.Parallel()
	prompt := &JoinPrompt{
		PostID:    "p1",
		PostTitle: "Valtan",
		Characters: []CharacterOption{
			{ID: "a1", Name: "Lumi", Class: "Bard", ItemLevel: 1600, OwnerName: "Aino"},
		},
	}

	var b strings.Builder
	if err := Join("p1", prompt, "").Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := b.String()
	if !strings.Contains(got, `action="/ui/posts/p1/join"`) {
		t.Errorf("expected join action, got %q", got)
	}
	if !strings.Contains(got, `<button type="submit" name="character_id" value="a1">Lumi</button>`) {
		t.Errorf("expected character option, got %q", got)
	}
	if strings.Contains(got, `role="alert"`) {
		t.Error("picker must not render the alert")
	}
}

func TestCharactersHTML_Card(t *testing.T) {
	t.Parallel()
	snap := snapshot()
	card := NewCharacterCard(char("b1", "user-b", 10, 20), snap.Posts, memberB)

	var b strings.Builder
	if err := Characters([]CharacterCard{card}, nil).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := b.String()
	for _, want := range []string{
		`href="/characters?edit=b1"`,
		`action="/ui/characters/b1/delete"`,
		"Currently applied to",
		"Average gem level: 15.0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, `class="editor"`) {
		t.Error("expected no editor without one")
	}
}

func TestAlertHTML(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	if err := Stack(nil, Alert("", "/ui/dismiss"), Alert("oops", "")).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := b.String(); got != `<div class="banner" role="alert"><span>oops</span></div>` {
		t.Errorf("unexpected alert markup %q", got)
	}
}
