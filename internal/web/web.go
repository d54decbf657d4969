// Package web serves the diagnostic page and the check endpoint behind its
// button.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/mwhitford/pgprobe/internal/config"
	"github.com/mwhitford/pgprobe/internal/logger"
	"github.com/mwhitford/pgprobe/internal/probe"
)

//go:embed templates/index.html.tmpl
var templates embed.FS

// Prober runs a single connection check
type Prober interface {
	Check(ctx context.Context) probe.Result
}

// Handler serves the diagnostic page and its check endpoint
type Handler struct {
	prober Prober
	db     config.DatabaseConfig
	tmpl   *template.Template
}

// pageData is what the index template renders. The password never reaches
// the template.
type pageData struct {
	Title    string
	Host     string
	Port     int
	Database string
	User     string
	SSLMode  string
}

// checkResponse is the JSON body returned by the check endpoint
type checkResponse struct {
	OK            bool   `json:"ok"`
	Message       string `json:"message"`
	ElapsedMS     int64  `json:"elapsed_ms"`
	ServerVersion string `json:"server_version,omitempty"`
	CheckedAt     string `json:"checked_at"`
}

// NewHandler creates a Handler for the given probe and target details
func NewHandler(prober Prober, db config.DatabaseConfig) (*Handler, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html.tmpl")
	if err != nil {
		return nil, err
	}

	return &Handler{
		prober: prober,
		db:     db,
		tmpl:   tmpl,
	}, nil
}

// Index renders the diagnostic page
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := pageData{
		Title:    "PostgreSQL Connection Check",
		Host:     h.db.Host,
		Port:     h.db.Port,
		Database: h.db.Database,
		User:     h.db.User,
		SSLMode:  h.db.SSLMode,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		logger.Error("web", "Failed to render index: %v", err)
	}
}

// Check runs one connection check and reports the outcome as JSON. A failed
// check is still HTTP 200: the diagnostic worked, the database did not.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.prober.Check(r.Context())

	response := checkResponse{
		OK:            result.OK,
		Message:       result.Message,
		ElapsedMS:     result.Elapsed.Milliseconds(),
		ServerVersion: result.ServerVersion,
		CheckedAt:     result.CheckedAt.UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("web", "Failed to encode check response: %v", err)
	}
}
