package web

import (
	"net/http"
	"time"

	"github.com/sakif/whispering-network/internal/auth"
)

// VisitedCookie remembers that the browser has passed the splash page.
const VisitedCookie = "wn_visited"

// Session is everything the pages need to know about the browser.
//
// Visited gates the splash page. AdminID is non-zero when the request
// carries a valid signed session cookie; it says nothing about whether the
// admin is still active, which HandleAdmin checks against the store.
type Session struct {
	Visited bool
	AdminID int64
}

// Authenticated reports whether the browser holds a valid admin session.
func (s Session) Authenticated() bool {
	return s.AdminID > 0
}

// LoadSession reads the session from the request. An admin id already put
// in the context by auth.OptionalSession is used as is; otherwise the
// session cookie is validated with tokens, which may be nil.
func LoadSession(r *http.Request, tokens *auth.TokenService) Session {
	var s Session
	if c, err := r.Cookie(VisitedCookie); err == nil && c.Value == "1" {
		s.Visited = true
	}
	if id, ok := auth.AdminIDFromContext(r.Context()); ok {
		s.AdminID = id
	} else if tokens != nil {
		if id, err := auth.AdminIDFromRequest(r, tokens); err == nil {
			s.AdminID = id
		}
	}
	return s
}

// MarkVisited sets the visited cookie for a year.
func MarkVisited(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     VisitedCookie,
		Value:    "1",
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
