package handler_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/sakif/whispering-network/internal/auth"
	"github.com/sakif/whispering-network/internal/handler"
	sqliteRepo "github.com/sakif/whispering-network/internal/repository/sqlite"
	"github.com/sakif/whispering-network/internal/service"
)

// testAPI wires the real services over an in-memory SQLite store, the same
// way the server does, and exposes the routes under test.
type testAPI struct {
	router *chi.Mux
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messages := service.NewMessageService(db, db, logger)
	admins := service.NewAdminService(db, auth.NewPasswordServiceForTest(), logger)

	mh := handler.NewMessageHandler(messages)
	ah := handler.NewAdminHandler(admins)
	auh := handler.NewAuthHandler(admins, tokens)

	r := chi.NewRouter()
	r.Get("/healthz", handler.HandleHealth(db))
	r.Route("/api", func(r chi.Router) {
		r.Get("/messages/public", mh.HandleListPublic)
		r.Get("/messages/private", mh.HandleListPrivate)
		r.Get("/messages/category/{category}", mh.HandleListByCategory)
		r.Get("/messages/recipient/{recipient}", mh.HandleListByRecipient)
		r.Get("/messages/{id}/replies", mh.HandleListReplies)
		r.Post("/messages", mh.HandleCreate)
		r.Patch("/messages/{id}", mh.HandleUpdateVisibility)
		r.Post("/replies", mh.HandleCreateReply)
		r.Get("/recipients", ah.HandleRecipients)
		r.Get("/categories", handler.HandleListCategories)
		r.Post("/admins", ah.HandleCreate)
		r.Get("/admins", ah.HandleList)
		r.Patch("/admins/{id}", ah.HandleUpdateStatus)
		r.Post("/auth/login", auh.HandleLogin)
		r.Post("/auth/logout", auh.HandleLogout)
		r.Get("/auth/me", auh.HandleMe)
	})

	return &testAPI{router: r, db: db, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}
