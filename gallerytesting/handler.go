package gallerytesting

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/forestrie/go-gallerygrid/thumbs"
)

// Handler serves the store over the asset api routes. When apiKey is not
// empty every request must carry it in the key header or query parameter.
func (s *MemStore) Handler(apiKey string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /assets", func(w http.ResponseWriter, r *http.Request) {
		page, err := s.ListAssets(r.Context(), r.URL.Query().Get("next"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	})

	mux.HandleFunc("GET /thumb", func(w http.ResponseWriter, r *http.Request) {
		data, contentType, err := s.ReadThumb(r.Context(), r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	})

	mux.HandleFunc("GET /thumb-page", func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.ParseUint(r.URL.Query().Get("index"), 10, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := s.ReadPage(r.Context(), uint32(index))
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	})

	edit := func(apply func(r *http.Request, body map[string]string) error) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			body := map[string]string{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := apply(r, body); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}
	mux.HandleFunc("POST /asset/add-label", edit(func(r *http.Request, body map[string]string) error {
		return s.AddLabel(r.Context(), body["id"], body["label"])
	}))
	mux.HandleFunc("POST /asset/remove-label", edit(func(r *http.Request, body map[string]string) error {
		return s.RemoveLabel(r.Context(), body["id"], body["label"])
	}))
	mux.HandleFunc("POST /asset/description", edit(func(r *http.Request, body map[string]string) error {
		return s.SetDescription(r.Context(), body["id"], body["description"])
	}))

	if apiKey == "" {
		return mux
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("key") != apiKey && r.URL.Query().Get("key") != apiKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, thumbs.ErrThumbMissing) || errors.Is(err, thumbs.ErrPageNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
