package view

import (
	"fmt"
	"math"
	"strconv"

	"github.com/forgo/lfg/internal/model"
)

// NoGems is shown as the average gem level of a character without gems.
const NoGems = "-"

// GemGroup is one gem bucket of the expanded card
type GemGroup struct {
	Type model.GemType `json:"type"`
	Gems []model.Gem   `json:"gems"`
}

// CharacterCard is the rendered form of one character
type CharacterCard struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Subheader       string            `json:"subheader"`
	Class           string            `json:"class"`
	ItemLevel       int               `json:"item_level"`
	GearSet         string            `json:"gear_set,omitempty"`
	AppliedTo       []string          `json:"applied_to"`
	Engravings      []model.Engraving `json:"engravings"`
	GemGroups       []GemGroup        `json:"gem_groups"`
	AverageGemLevel string            `json:"average_gem_level"`
	CanEdit         bool              `json:"can_edit"`
}

// NewCharacterCard derives the card of c against the current posts.
func NewCharacterCard(c model.Character, posts []model.Post, actor model.Actor) CharacterCard {
	card := CharacterCard{
		ID:              c.ID,
		Title:           c.Name,
		Subheader:       Subheader(c),
		Class:           string(c.Class),
		ItemLevel:       c.ItemLevel,
		AppliedTo:       AppliedTo(c.ID, posts),
		Engravings:      c.Engravings,
		AverageGemLevel: AverageGemLevel(c),
	}
	if card.Engravings == nil {
		card.Engravings = []model.Engraving{}
	}
	if c.GearSet != nil {
		card.GearSet = *c.GearSet
	}
	for _, t := range model.GemTypes() {
		card.GemGroups = append(card.GemGroups, GemGroup{Type: t, Gems: c.GemsOfType(t)})
	}
	if actor != nil {
		card.CanEdit = actor.CanManageCharacter(c.OwnerID)
	}
	return card
}

// Subheader is "<class>  <item level>", two spaces apart.
func Subheader(c model.Character) string {
	return fmt.Sprintf("%s  %d", c.Class, c.ItemLevel)
}

// AppliedTo lists the titles of posts with characterID on the roster.
func AppliedTo(characterID string, posts []model.Post) []string {
	titles := []string{}
	for i := range posts {
		if posts[i].HasCharacter(characterID) {
			titles = append(titles, posts[i].Title)
		}
	}
	return titles
}

// AverageGemLevel is the mean gem level with one decimal, or NoGems.
// Halves round up, so levels 1, 1, 1, 2 show as "1.3".
func AverageGemLevel(c model.Character) string {
	if _, ok := c.AverageGemLevel(); !ok {
		return NoGems
	}
	total := 0
	for _, g := range c.Gems {
		total += g.Level
	}
	// Rounded on integer tenths: total*10/n is exact at every half.
	tenths := math.Round(float64(total*10) / float64(len(c.Gems)))
	return strconv.FormatFloat(tenths/10, 'f', 1, 64)
}
