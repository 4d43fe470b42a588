package view

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/forgo/lfg/internal/model"
)

// EditorMode is the intent a confirmed editor submits.
type EditorMode int

const (
	EditorModeNone EditorMode = iota
	EditorModeAdd
	EditorModeEdit
)

// EditorHandlers receive the confirmed character. Add wins when both are set.
type EditorHandlers struct {
	Add  func(model.Character)
	Edit func(model.Character)
}

// CharacterEditor is the add/edit form state.
type CharacterEditor struct {
	Name      string                    `json:"name"`
	Class     model.CharacterClass      `json:"class"`
	ItemLevel int                       `json:"item_level"`
	Errors    model.CharacterValidation `json:"errors"`

	original *model.Character
	handlers EditorHandlers
}

// NewCharacterEditor opens the form, pre-filled from editing when it is set.
func NewCharacterEditor(handlers EditorHandlers, editing *model.Character) *CharacterEditor {
	e := &CharacterEditor{handlers: handlers}
	if editing != nil {
		cp := *editing
		e.original = &cp
		e.Name = cp.Name
		e.Class = cp.Class
		e.ItemLevel = cp.ItemLevel
	}
	return e
}

// Mode reports which handler Confirm will call.
func (e *CharacterEditor) Mode() EditorMode {
	switch {
	case e.handlers.Add != nil:
		return EditorModeAdd
	case e.handlers.Edit != nil:
		return EditorModeEdit
	default:
		return EditorModeNone
	}
}

// Editing is the character the form was opened on, if any.
func (e *CharacterEditor) Editing() *model.Character {
	return e.original
}

// SubmitLabel is "Confirm" when editing and "Add" otherwise.
func (e *CharacterEditor) SubmitLabel() string {
	if e.original != nil {
		return "Confirm"
	}
	return "Add"
}

// Classes lists the class menu.
func (e *CharacterEditor) Classes() []model.CharacterClass {
	return model.Classes()
}

// SetItemLevel parses a form value; anything unparsable counts as zero.
func (e *CharacterEditor) SetItemLevel(value string) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		n = 0
	}
	e.ItemLevel = n
}

// Validate sets the error flags and reports whether the form may submit.
func (e *CharacterEditor) Validate() bool {
	e.Errors = model.ValidateCharacterFields(e.Name, e.Class, e.ItemLevel)
	return e.Errors.Valid()
}

// Character builds the record the form describes. The edited character's id
// is kept, and its gems, engravings and gear set carry over; otherwise a new
// id is generated.
func (e *CharacterEditor) Character() model.Character {
	c := model.Character{
		Name:      strings.TrimSpace(e.Name),
		Class:     e.Class,
		ItemLevel: e.ItemLevel,
	}
	if e.original != nil {
		c.ID = e.original.ID
		c.OwnerID = e.original.OwnerID
		c.Gems = e.original.Gems
		c.Engravings = e.original.Engravings
		c.GearSet = e.original.GearSet
	} else {
		c.ID = uuid.NewString()
	}
	return c
}

// Confirm validates, hands the character to the chosen handler and clears
// the form. An invalid form keeps its values and flags and returns false.
func (e *CharacterEditor) Confirm() bool {
	if !e.Validate() {
		return false
	}
	c := e.Character()
	switch e.Mode() {
	case EditorModeAdd:
		e.handlers.Add(c)
	case EditorModeEdit:
		e.handlers.Edit(c)
	}
	e.Clear()
	return true
}

// Cancel discards the form.
func (e *CharacterEditor) Cancel() {
	e.Clear()
}

// Clear resets name, class, item level and the error flags.
func (e *CharacterEditor) Clear() {
	e.Name = ""
	e.Class = model.ClassUnset
	e.ItemLevel = 0
	e.Errors = model.CharacterValidation{}
}
