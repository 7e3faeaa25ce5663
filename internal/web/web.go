// Package web renders the browser-facing pages of the board.
//
// Pages are server-rendered from embedded html/template files. Reads go
// through the services directly; every mutation (posting, replying, making
// a message public, logging in) is sent by static/app.js to the JSON API,
// and the page reloads on success.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/whispering-network/internal/auth"
	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{"splash", "home", "login", "admin"}

// Pages holds the parsed templates and the services the pages read from.
type Pages struct {
	messages  *service.MessageService
	admins    *service.AdminService
	tokens    *auth.TokenService
	logger    *slog.Logger
	templates map[string]*template.Template
}

// NewPages parses every page template once. Each page is parsed together
// with base.html, which provides the layout and pulls in the page's
// "content" block.
func NewPages(messages *service.MessageService, admins *service.AdminService, tokens *auth.TokenService, logger *slog.Logger) (*Pages, error) {
	funcs := template.FuncMap{
		"deref":    deref,
		"category": categoryLabel,
		"initial":  initial,
	}

	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Pages{
		messages:  messages,
		admins:    admins,
		tokens:    tokens,
		logger:    logger,
		templates: templates,
	}, nil
}

// Static serves the embedded script and stylesheet. Mount it under
// /static/ with the prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(sub)
}

type homeData struct {
	Session    Session
	Categories []model.Category
	Selected   string
	Messages   []model.MessageWithReplies
	Recipients []string
}

// HandleHome shows the splash page on a first visit, and the public feed
// otherwise. ?category= narrows the feed to one category.
//
// HTTP: GET /
func (p *Pages) HandleHome(w http.ResponseWriter, r *http.Request) {
	sess := LoadSession(r, p.tokens)
	if !sess.Visited {
		p.render(w, r, http.StatusOK, "splash", nil)
		return
	}

	messages, err := p.messages.ListPublic(r.Context())
	if err != nil {
		p.fail(w, r, err)
		return
	}
	recipients, err := p.admins.Recipients(r.Context())
	if err != nil {
		p.fail(w, r, err)
		return
	}

	selected := strings.TrimSpace(r.URL.Query().Get("category"))
	p.render(w, r, http.StatusOK, "home", homeData{
		Session:    sess,
		Categories: model.Categories,
		Selected:   selected,
		Messages:   filterCategory(messages, selected),
		Recipients: recipients,
	})
}

// HandleEnter marks the browser as visited and sends it to the feed.
//
// HTTP: POST /enter
func (p *Pages) HandleEnter(w http.ResponseWriter, r *http.Request) {
	MarkVisited(w, r.TLS != nil)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type adminData struct {
	Session Session
	Admin   *model.Admin
	Stats   Stats
	Private []model.MessageWithReplies
}

// HandleAdmin shows the login form to anyone without an active admin
// session, and the moderation dashboard otherwise.
//
// HTTP: GET /admin
func (p *Pages) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	sess := LoadSession(r, p.tokens)
	if !sess.Authenticated() {
		p.render(w, r, http.StatusOK, "login", nil)
		return
	}

	admin, err := p.admins.GetByID(r.Context(), sess.AdminID)
	if err != nil || !admin.IsActive {
		auth.ClearSessionCookie(w)
		p.render(w, r, http.StatusOK, "login", nil)
		return
	}

	private, err := p.messages.ListPrivate(r.Context())
	if err != nil {
		p.fail(w, r, err)
		return
	}
	public, err := p.messages.ListPublic(r.Context())
	if err != nil {
		p.fail(w, r, err)
		return
	}

	p.render(w, r, http.StatusOK, "admin", adminData{
		Session: sess,
		Admin:   admin,
		Stats:   ComputeStats(private, public),
		Private: private,
	})
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind a 200.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.templates[name].ExecuteTemplate(&buf, "base", data); err != nil {
		p.fail(w, r, fmt.Errorf("rendering %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		p.logger.WarnContext(r.Context(), "writing page failed", slog.String("page", name), slog.String("error", err.Error()))
	}
}

func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.ErrorContext(r.Context(), "page failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
}

func filterCategory(messages []model.MessageWithReplies, category string) []model.MessageWithReplies {
	if category == "" {
		return messages
	}
	out := make([]model.MessageWithReplies, 0, len(messages))
	for _, m := range messages {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// categoryLabel renders a suggested category as "emoji name". Unknown
// categories are shown as stored.
func categoryLabel(id string) string {
	if c, ok := model.LookupCategory(id); ok {
		return c.Emoji + " " + c.Name
	}
	return id
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}
