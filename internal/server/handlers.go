package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dlx/internal/catalog"
	"github.com/desertthunder/dlx/internal/jobs"
	"github.com/desertthunder/dlx/internal/models"
	"github.com/desertthunder/dlx/internal/shared"
)

var schemePattern = regexp.MustCompile(`^https?://`)

// API bundles the service dependencies behind the HTTP surface.
type API struct {
	catalog *catalog.Catalog
	orch    *jobs.Orchestrator
	gateway *jobs.Gateway
	logger  *log.Logger
}

// NewAPI creates the API handler set.
func NewAPI(cat *catalog.Catalog, orch *jobs.Orchestrator, gateway *jobs.Gateway, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{catalog: cat, orch: orch, gateway: gateway, logger: logger}
}

// Register attaches all endpoints to the router.
func (a *API) Register(router Router) {
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(a.Health))
	router.Handle(http.MethodPost, "/get_info", http.HandlerFunc(a.GetInfo))
	router.Handle(http.MethodPost, "/download", http.HandlerFunc(a.Download))
	router.Handle(http.MethodGet, "/progress/{id}", http.HandlerFunc(a.Progress))
	router.Handle(http.MethodGet, "/download_file/{id}", http.HandlerFunc(a.DownloadFile))
	router.Handle(http.MethodGet, "/cleanup/{id}", http.HandlerFunc(a.Cleanup))
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// infoRequest is the POST /get_info payload.
type infoRequest struct {
	URL string `json:"url"`
}

// GetInfo inspects a URL and returns its media catalog.
func (a *API) GetInfo(w http.ResponseWriter, r *http.Request) {
	var req infoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	url, err := normalizeURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := a.catalog.Inspect(r.Context(), url)
	if err != nil {
		a.logger.Error("catalog inspection failed", "url", url, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// downloadRequest is the POST /download payload. FormatInfo carries the
// variant the caller selected from a prior /get_info response.
type downloadRequest struct {
	URL        string                `json:"url"`
	FormatID   string                `json:"format_id"`
	Type       string                `json:"type"`
	FormatInfo *models.FormatVariant `json:"format_info"`
}

// Download submits an asynchronous fetch job and returns its identity.
func (a *API) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	if req.Type == "" {
		req.Type = jobs.KindVideo
	}

	variant := models.FormatVariant{}
	if req.FormatInfo != nil {
		variant = *req.FormatInfo
	}
	variant.FormatID = strings.TrimSpace(req.FormatID)

	id, err := a.orch.Submit(strings.TrimSpace(req.URL), variant, req.Type)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Missing required parameters")
			return
		}
		a.logger.Error("job submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"download_id": id})
}

// Progress returns the current job status. For a well-formed request this
// endpoint never fails: unknown identities yield a not_found status body.
func (a *API) Progress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, a.orch.Tracker().Get(id))
}

// DownloadFile streams a finished artifact as an attachment.
func (a *API) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	reader, name, err := a.gateway.Open(id)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotReady):
			writeError(w, http.StatusBadRequest, "Download not finished")
		case errors.Is(err, shared.ErrNotFound):
			writeError(w, http.StatusNotFound, "File not found")
		default:
			a.logger.Error("artifact retrieval failed", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, reader); err != nil {
		a.logger.Warn("artifact stream interrupted", "id", id, "error", err)
	}
}

// Cleanup disposes a job's artifact, scratch directory, and tracker entry.
// Idempotent: repeated calls succeed.
func (a *API) Cleanup(w http.ResponseWriter, r *http.Request) {
	a.gateway.Dispose(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// normalizeURL trims the input, defaults the scheme to https, and enforces
// the supported-site restriction.
func normalizeURL(raw string) (string, error) {
	url := strings.TrimSpace(raw)
	if url == "" {
		return "", fmt.Errorf("Please provide a valid URL")
	}

	if !schemePattern.MatchString(url) {
		url = "https://" + url
	}

	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return "", fmt.Errorf("Please provide a valid YouTube URL")
	}
	return url, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
