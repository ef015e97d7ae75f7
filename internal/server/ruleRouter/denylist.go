package ruleRouter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"procurerisk/rules"
)

type DenylistGetResponse struct {
	Source  string   `json:"source"`
	Vendors []string `json:"vendors"`
}

func DenyListRouter(denylist *rules.VendorDenylist) chi.Router {

	router := chi.NewRouter()

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		vendors, err := denylist.Vendors(r.Context())
		if err != nil {
			slog.Error("denylist fetch failed", slog.String("error", err.Error()))
			http.Error(w, "failed to fetch denylist", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		response := DenylistGetResponse{
			Source:  denylist.Source(),
			Vendors: vendors,
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	})

	router.Put("/", func(w http.ResponseWriter, r *http.Request) {
		type DenylistUpdate struct {
			Vendor string `json:"vendor"`
		}

		var payload DenylistUpdate
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		defer r.Body.Close()

		errCode, err := denylist.Update(r.Context(), payload.Vendor, "add")
		if err != nil {
			http.Error(w, err.Error(), errCode)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	})

	router.Delete("/{vendor}", func(w http.ResponseWriter, r *http.Request) {
		vendor, err := url.PathUnescape(chi.URLParam(r, "vendor"))
		if err != nil {
			http.Error(w, "invalid encoding", http.StatusBadRequest)
			return
		}

		errCode, err := denylist.Update(r.Context(), vendor, "remove")
		if err != nil {
			http.Error(w, err.Error(), errCode)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	})

	return router
}
