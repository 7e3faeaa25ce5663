package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sakif/whispering-network/internal/model"
)

// HandleListCategories returns the categories suggested to message authors.
// The store accepts any category; this list only drives the compose form.
//
// HTTP: GET /api/categories
func HandleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Categories)
}

// Pinger is satisfied by repository.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth reports 200 when the store answers a ping within two seconds
// and 503 otherwise.
//
// HTTP: GET /healthz
func HandleHealth(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
