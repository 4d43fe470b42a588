package handler

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/forgo/lfg/internal/view"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookie stores the viewer's language preference.
	LangCookie = "lfg_lang"
)

// ResolveLanguage picks the display language for a request: the lang query
// parameter, then the cookie, then Accept-Language, then fallback. The bool
// reports whether the choice came from the query and should be persisted.
func ResolveLanguage(r *http.Request, fallback language.Tag) (language.Tag, bool) {
	if tag, ok := view.ParseLanguage(r.URL.Query().Get(LangParam)); ok {
		return tag, true
	}

	if cookie, err := r.Cookie(LangCookie); err == nil {
		if tag, ok := view.ParseLanguage(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return view.MatchLanguage(tags...), false
		}
	}

	return fallback, false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookie,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
