package view

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// boardEventNames lists the stream events that make an open page reload.
var boardEventNames = strings.Join([]string{
	"post.created", "post.updated", "post.deleted", "post.joined", "post.left",
	"character.created", "character.updated", "character.deleted", "dispatch.failed",
}, " ")

// uiPath joins escaped segments into an absolute path.
func uiPath(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func postAction(postID, verb string) templ.SafeURL {
	return templ.SafeURL(uiPath("ui", "posts", postID, verb))
}

func characterAction(characterID, verb string) templ.SafeURL {
	return templ.SafeURL(uiPath("ui", "characters", characterID, verb))
}

func editCharacterURL(characterID string) templ.SafeURL {
	return templ.SafeURL("/characters?edit=" + url.QueryEscape(characterID))
}

func editorAction(e *CharacterEditor) templ.SafeURL {
	if c := e.Editing(); c != nil {
		return characterAction(c.ID, "edit")
	}
	return templ.SafeURL("/ui/characters")
}

// itemLevelValue leaves the input empty until a level is entered.
func itemLevelValue(level int) string {
	if level == 0 {
		return ""
	}
	return strconv.Itoa(level)
}
