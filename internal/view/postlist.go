package view

import (
	"time"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
)

// Slot is one roster position. Open slots have no applicant.
type Slot struct {
	Index       int    `json:"index"`
	Open        bool   `json:"open"`
	UserID      string `json:"user_id,omitempty"`
	CharacterID string `json:"character_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Class       string `json:"class,omitempty"`
	ItemLevel   int    `json:"item_level,omitempty"`
	PlayerName  string `json:"player_name,omitempty"`
	CanLeave    bool   `json:"can_leave"`
}

// PostCard is the rendered form of one post
type PostCard struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	Weekday   string    `json:"weekday"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	// Edit and delete are always rendered; CanEdit false renders them disabled.
	CanEdit bool   `json:"can_edit"`
	Slots   []Slot `json:"slots"`
	Filled  int    `json:"filled"`
	Full    bool   `json:"full"`
	Error   string `json:"error,omitempty"`
}

// PostList is the whole board as one viewer sees it
type PostList struct {
	ViewerID  string     `json:"viewer_id,omitempty"`
	CanCreate bool       `json:"can_create"`
	Posts     []PostCard `json:"posts"`
}

// CharacterOption is one entry of the join prompt
type CharacterOption struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	ItemLevel int    `json:"item_level"`
	OwnerID   string `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

// JoinPrompt is the character picker for one post
type JoinPrompt struct {
	PostID     string            `json:"post_id"`
	PostTitle  string            `json:"post_title"`
	Characters []CharacterOption `json:"characters"`
}

// PostListView derives the board for one viewer from a snapshot. It holds
// no state beyond the viewer's banner errors.
type PostListView struct {
	actor    model.Actor
	snapshot *model.Snapshot
	errors   PostErrors
	format   Formatter
}

// NewPostListView creates the view. errs may be nil.
func NewPostListView(actor model.Actor, snapshot *model.Snapshot, errs PostErrors, format Formatter) *PostListView {
	if actor == nil {
		actor = model.Anonymous()
	}
	if snapshot == nil {
		snapshot = &model.Snapshot{Users: model.Directory{}}
	}
	return &PostListView{actor: actor, snapshot: snapshot, errors: errs, format: format}
}

// Build renders every post in snapshot order.
func (v *PostListView) Build() PostList {
	list := PostList{
		ViewerID:  v.actor.UserID(),
		CanCreate: v.actor.CanCreatePost(),
		Posts:     make([]PostCard, 0, len(v.snapshot.Posts)),
	}
	for i := range v.snapshot.Posts {
		list.Posts = append(list.Posts, v.card(&v.snapshot.Posts[i]))
	}
	return list
}

func (v *PostListView) card(post *model.Post) PostCard {
	dir := v.snapshot.Users
	card := PostCard{
		ID:        post.ID,
		Title:     post.Title,
		StartTime: post.StartTime,
		Weekday:   v.format.Weekday(post.StartTime),
		Date:      v.format.Date(post.StartTime),
		Time:      v.format.Clock(post.StartTime),
		OwnerID:   post.OwnerID,
		OwnerName: dir.DisplayName(post.OwnerID),
		CanEdit:   v.actor.CanManagePost(post),
		Slots:     make([]Slot, model.RosterSize),
		Filled:    len(post.Applicants),
		Full:      post.IsFull(),
		Error:     v.errors.Banner(post.ID),
	}

	for i := range card.Slots {
		card.Slots[i] = Slot{Index: i, Open: true}
		if i >= len(post.Applicants) {
			continue
		}
		a := &post.Applicants[i]
		card.Slots[i] = Slot{
			Index:       i,
			UserID:      a.UserID,
			CharacterID: a.Character.ID,
			Name:        a.Character.Name,
			Class:       string(a.Character.Class),
			ItemLevel:   a.Character.ItemLevel,
			PlayerName:  dir.DisplayName(a.UserID),
			CanLeave:    v.actor.CanRemoveApplicant(post, a),
		}
	}
	return card
}

// Post finds a post in the snapshot.
func (v *PostListView) Post(postID string) (*model.Post, bool) {
	for i := range v.snapshot.Posts {
		if v.snapshot.Posts[i].ID == postID {
			return &v.snapshot.Posts[i], true
		}
	}
	return nil, false
}

// OpenJoin builds the character picker. A viewer with no characters of
// their own gets ErrNoCharacters instead, admins included; an admin who has
// characters is then offered everyone's.
func (v *PostListView) OpenJoin(postID string) (*JoinPrompt, error) {
	if v.actor.IsAnonymous() {
		return nil, service.ErrAnonymous
	}
	post, ok := v.Post(postID)
	if !ok {
		return nil, service.ErrPostNotFound
	}
	if len(v.snapshot.Users.Characters(v.actor.UserID())) == 0 {
		return nil, service.ErrNoCharacters
	}

	prompt := &JoinPrompt{PostID: post.ID, PostTitle: post.Title}
	for _, c := range v.actor.SelectableCharacters(v.snapshot.Users) {
		owner, _ := v.snapshot.Users.OwnerOf(c.ID)
		prompt.Characters = append(prompt.Characters, CharacterOption{
			ID:        c.ID,
			Name:      c.Name,
			Class:     string(c.Class),
			ItemLevel: c.ItemLevel,
			OwnerID:   owner,
			OwnerName: v.snapshot.Users.DisplayName(owner),
		})
	}
	return prompt, nil
}

// Join turns a picked character into a join request. The applicant is the
// character's owner, which for admins may be someone else. ok is false when
// no owner is found, and the join is dropped without an error.
func (v *PostListView) Join(characterID string) (req service.JoinRequest, ok bool) {
	owner, found := v.snapshot.Users.OwnerOf(characterID)
	if !found {
		return service.JoinRequest{}, false
	}
	return service.JoinRequest{UserID: owner, CharacterID: characterID}, true
}
