package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

// Static contains the entry page and its assets.
//
//go:embed static
var Static embed.FS

type Handler struct {
	files fs.FS
}

// NewHandler serves the embedded assets, or dir when it is set.
func NewHandler(dir string) *Handler {
	if dir != "" {
		log.Printf("📁 [Web] Serving static files from %s", dir)
		return &Handler{files: os.DirFS(dir)}
	}
	sub, err := fs.Sub(Static, "static")
	if err != nil {
		panic(err)
	}
	return &Handler{files: sub}
}

// RegisterRoutes - GET / (index.html), GET /static/*
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.Index).Methods("GET")
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.FS(h.files))),
	).Methods("GET")
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(h.files, "index.html")
	if err != nil {
		log.Printf("❌ [Web] index.html not found: %v", err)
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
