package view

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Supported display languages. The first is the fallback.
var supported = []language.Tag{
	language.Finnish,
	language.AmericanEnglish,
	language.BritishEnglish,
	language.Swedish,
	language.German,
}

var matcher = language.NewMatcher(supported)

// dateLayouts are the numeric short date forms per language, fi "d.M.yyyy".
var dateLayouts = map[language.Tag]string{
	language.Finnish:         "2.1.2006",
	language.AmericanEnglish: "1/2/2006",
	language.BritishEnglish:  "02/01/2006",
	language.Swedish:         "2006-01-02",
	language.German:          "2.1.2006",
}

const clockLayout = "15:04"

// MatchLanguage picks the supported language closest to the preferred tags,
// falling back to Finnish.
func MatchLanguage(preferred ...language.Tag) language.Tag {
	if len(preferred) == 0 {
		return supported[0]
	}
	_, idx, conf := matcher.Match(preferred...)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// ParseLanguage matches a single BCP 47 value such as "en-GB" or "fi".
func ParseLanguage(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// Formatter derives the display strings of a start time.
type Formatter struct {
	loc *time.Location
	tag language.Tag
}

// NewFormatter formats in loc using the best match for locale.
func NewFormatter(loc *time.Location, locale string) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	tag, ok := ParseLanguage(locale)
	if !ok {
		tag = supported[0]
	}
	return Formatter{loc: loc, tag: tag}
}

// WithLanguage returns a copy formatting dates for tag.
func (f Formatter) WithLanguage(tag language.Tag) Formatter {
	f.tag = MatchLanguage(tag)
	return f
}

// Language is the tag dates are formatted for.
func (f Formatter) Language() language.Tag {
	return f.tag
}

// Location is the zone times are shown in.
func (f Formatter) Location() *time.Location {
	if f.loc == nil {
		return time.UTC
	}
	return f.loc
}

// Weekday is the English day name, Sunday..Saturday.
func (f Formatter) Weekday(t time.Time) string {
	return t.In(f.Location()).Weekday().String()
}

// Date is the numeric short date in the formatter's language.
func (f Formatter) Date(t time.Time) string {
	layout, ok := dateLayouts[f.tag]
	if !ok {
		layout = dateLayouts[supported[0]]
	}
	return t.In(f.Location()).Format(layout)
}

// Clock is the 24-hour HH:mm time.
func (f Formatter) Clock(t time.Time) string {
	return t.In(f.Location()).Format(clockLayout)
}

// InputValue formats t for a datetime-local input in the display zone.
func (f Formatter) InputValue(t time.Time) string {
	return t.In(f.Location()).Format("2006-01-02T15:04")
}
