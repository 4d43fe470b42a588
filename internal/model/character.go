package model

import (
	"fmt"
	"strings"
	"time"
)

// CharacterClass is the advanced class of a character.
// The zero value is the unset sentinel shown as "Select class" in forms.
type CharacterClass string

const (
	ClassUnset CharacterClass = ""

	ClassBerserker    CharacterClass = "Berserker"
	ClassDestroyer    CharacterClass = "Destroyer"
	ClassGunlancer    CharacterClass = "Gunlancer"
	ClassPaladin      CharacterClass = "Paladin"
	ClassSlayer       CharacterClass = "Slayer"
	ClassArcanist     CharacterClass = "Arcanist"
	ClassSummoner     CharacterClass = "Summoner"
	ClassBard         CharacterClass = "Bard"
	ClassSorceress    CharacterClass = "Sorceress"
	ClassWardancer    CharacterClass = "Wardancer"
	ClassScrapper     CharacterClass = "Scrapper"
	ClassSoulfist     CharacterClass = "Soulfist"
	ClassGlaivier     CharacterClass = "Glaivier"
	ClassStriker      CharacterClass = "Striker"
	ClassBreaker      CharacterClass = "Breaker"
	ClassDeathblade   CharacterClass = "Deathblade"
	ClassShadowhunter CharacterClass = "Shadowhunter"
	ClassReaper       CharacterClass = "Reaper"
	ClassSouleater    CharacterClass = "Souleater"
	ClassSharpshooter CharacterClass = "Sharpshooter"
	ClassDeadeye      CharacterClass = "Deadeye"
	ClassArtillerist  CharacterClass = "Artillerist"
	ClassMachinist    CharacterClass = "Machinist"
	ClassGunslinger   CharacterClass = "Gunslinger"
	ClassArtist       CharacterClass = "Artist"
	ClassAeromancer   CharacterClass = "Aeromancer"
	ClassWildsoul     CharacterClass = "Wildsoul"
)

var allClasses = []CharacterClass{
	ClassBerserker, ClassDestroyer, ClassGunlancer, ClassPaladin, ClassSlayer,
	ClassArcanist, ClassSummoner, ClassBard, ClassSorceress,
	ClassWardancer, ClassScrapper, ClassSoulfist, ClassGlaivier, ClassStriker, ClassBreaker,
	ClassDeathblade, ClassShadowhunter, ClassReaper, ClassSouleater,
	ClassSharpshooter, ClassDeadeye, ClassArtillerist, ClassMachinist, ClassGunslinger,
	ClassArtist, ClassAeromancer, ClassWildsoul,
}

// Classes returns every selectable class in menu order. The unset sentinel is not included.
func Classes() []CharacterClass {
	out := make([]CharacterClass, len(allClasses))
	copy(out, allClasses)
	return out
}

// IsValid reports whether c is a known, selectable class.
func (c CharacterClass) IsValid() bool {
	for _, known := range allClasses {
		if c == known {
			return true
		}
	}
	return false
}

// IsUnset reports whether c is the unset sentinel.
func (c CharacterClass) IsUnset() bool {
	return c == ClassUnset
}

// GemType tags which bucket a gem belongs to
type GemType string

const (
	GemTypeAttack   GemType = "attack"
	GemTypeCooldown GemType = "cooldown"
)

// GemTypes lists the display buckets in order.
func GemTypes() []GemType {
	return []GemType{GemTypeAttack, GemTypeCooldown}
}

func (t GemType) IsValid() bool {
	return t == GemTypeAttack || t == GemTypeCooldown
}

// Gem is a socketed gem boosting one skill.
type Gem struct {
	Type  GemType `json:"type"`
	Level int     `json:"level"`
	Skill string  `json:"skill"`
}

// Engraving is a named passive with a level.
type Engraving struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Character limits
const (
	MaxCharacterNameLength = 32
	MaxItemLevel           = 9999
	MinGemLevel            = 1
	MaxGemLevel            = 10
	MinEngravingLevel      = 1
	MaxEngravingLevel      = 3
	MaxGemsPerCharacter    = 11
	MaxEngravings          = 6
	MaxGearSetLength       = 64
)

// Character is one playable character on a user's roster.
// Ownership lives next to the record (OwnerID), not inside the editable fields.
type Character struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id,omitempty"`
	Name       string         `json:"name"`
	Class      CharacterClass `json:"class"`
	ItemLevel  int            `json:"item_level"`
	Gems       []Gem          `json:"gems,omitempty"`
	Engravings []Engraving    `json:"engravings,omitempty"`
	GearSet    *string        `json:"gear_set,omitempty"`
	CreatedOn  time.Time      `json:"created_on"`
	UpdatedOn  time.Time      `json:"updated_on"`
}

// AverageGemLevel returns the arithmetic mean of all gem levels.
// ok is false when the character has no gems.
func (c *Character) AverageGemLevel() (avg float64, ok bool) {
	if len(c.Gems) == 0 {
		return 0, false
	}
	total := 0
	for _, g := range c.Gems {
		total += g.Level
	}
	return float64(total) / float64(len(c.Gems)), true
}

// GemsOfType returns the gems of one bucket, preserving order.
func (c *Character) GemsOfType(t GemType) []Gem {
	var out []Gem
	for _, g := range c.Gems {
		if g.Type == t {
			out = append(out, g)
		}
	}
	return out
}

// CharacterValidation flags which editor fields are invalid.
type CharacterValidation struct {
	Name      bool `json:"name"`
	Class     bool `json:"class"`
	ItemLevel bool `json:"item_level"`
}

// Valid reports whether no field is flagged.
func (v CharacterValidation) Valid() bool {
	return !v.Name && !v.Class && !v.ItemLevel
}

// ValidateCharacterFields checks the three required editor fields.
// Each flag is set only for the field that is actually at fault.
func ValidateCharacterFields(name string, class CharacterClass, itemLevel int) CharacterValidation {
	return CharacterValidation{
		Name:      strings.TrimSpace(name) == "",
		Class:     class.IsUnset(),
		ItemLevel: itemLevel == 0,
	}
}

// Validate checks the whole character record and returns field errors.
func (c *Character) Validate() []FieldError {
	var errors []FieldError

	flags := ValidateCharacterFields(c.Name, c.Class, c.ItemLevel)
	if flags.Name {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(c.Name) > MaxCharacterNameLength {
		errors = append(errors, FieldError{Field: "name", Message: fmt.Sprintf("name must be %d characters or less", MaxCharacterNameLength)})
	}
	if flags.Class {
		errors = append(errors, FieldError{Field: "class", Message: "class is required"})
	} else if !c.Class.IsValid() {
		errors = append(errors, FieldError{Field: "class", Message: "class is not a known class"})
	}
	if flags.ItemLevel {
		errors = append(errors, FieldError{Field: "item_level", Message: "item_level is required"})
	} else if c.ItemLevel < 0 || c.ItemLevel > MaxItemLevel {
		errors = append(errors, FieldError{Field: "item_level", Message: fmt.Sprintf("item_level must be between 1 and %d", MaxItemLevel)})
	}

	if len(c.Gems) > MaxGemsPerCharacter {
		errors = append(errors, FieldError{Field: "gems", Message: fmt.Sprintf("at most %d gems allowed", MaxGemsPerCharacter)})
	}
	for i, g := range c.Gems {
		if !g.Type.IsValid() {
			errors = append(errors, FieldError{Field: fmt.Sprintf("gems[%d].type", i), Message: "type must be 'attack' or 'cooldown'"})
		}
		if g.Level < MinGemLevel || g.Level > MaxGemLevel {
			errors = append(errors, FieldError{Field: fmt.Sprintf("gems[%d].level", i), Message: fmt.Sprintf("level must be between %d and %d", MinGemLevel, MaxGemLevel)})
		}
	}

	if len(c.Engravings) > MaxEngravings {
		errors = append(errors, FieldError{Field: "engravings", Message: fmt.Sprintf("at most %d engravings allowed", MaxEngravings)})
	}
	for i, e := range c.Engravings {
		if strings.TrimSpace(e.Name) == "" {
			errors = append(errors, FieldError{Field: fmt.Sprintf("engravings[%d].name", i), Message: "name is required"})
		}
		if e.Level < MinEngravingLevel || e.Level > MaxEngravingLevel {
			errors = append(errors, FieldError{Field: fmt.Sprintf("engravings[%d].level", i), Message: fmt.Sprintf("level must be between %d and %d", MinEngravingLevel, MaxEngravingLevel)})
		}
	}

	if c.GearSet != nil && len(*c.GearSet) > MaxGearSetLength {
		errors = append(errors, FieldError{Field: "gear_set", Message: fmt.Sprintf("gear_set must be %d characters or less", MaxGearSetLength)})
	}

	return errors
}

// CharacterRequest is the body of POST /v1/characters and PATCH /v1/characters/{id}.
// On PATCH nil fields keep their current value.
type CharacterRequest struct {
	Name       *string         `json:"name,omitempty"`
	Class      *CharacterClass `json:"class,omitempty"`
	ItemLevel  *int            `json:"item_level,omitempty"`
	Gems       *[]Gem          `json:"gems,omitempty"`
	Engravings *[]Engraving    `json:"engravings,omitempty"`
	GearSet    *string         `json:"gear_set,omitempty"`
}

// ApplyTo copies the set fields of the request onto c.
func (r *CharacterRequest) ApplyTo(c *Character) {
	if r.Name != nil {
		c.Name = strings.TrimSpace(*r.Name)
	}
	if r.Class != nil {
		c.Class = *r.Class
	}
	if r.ItemLevel != nil {
		c.ItemLevel = *r.ItemLevel
	}
	if r.Gems != nil {
		c.Gems = *r.Gems
	}
	if r.Engravings != nil {
		c.Engravings = *r.Engravings
	}
	if r.GearSet != nil {
		if *r.GearSet == "" {
			c.GearSet = nil
		} else {
			gs := *r.GearSet
			c.GearSet = &gs
		}
	}
}
