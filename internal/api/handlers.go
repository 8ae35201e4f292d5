package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vibeloop/ops-copilot/internal/analytics"
	"github.com/vibeloop/ops-copilot/internal/dataset"
	"github.com/vibeloop/ops-copilot/internal/pkg/httputil"
	"github.com/vibeloop/ops-copilot/internal/pkg/logger"
	"github.com/vibeloop/ops-copilot/internal/uploads"
)

// maxUploadBytes caps in-memory multipart parsing.
const maxUploadBytes = 64 << 20 // 64 MiB

// Handlers holds the dependencies for all API endpoints.
type Handlers struct {
	store   dataset.Store
	uploads *uploads.Manager
	svc     *analytics.Service
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(store dataset.Store, uploadMgr *uploads.Manager, svc *analytics.Service) *Handlers {
	return &Handlers{store: store, uploads: uploadMgr, svc: svc}
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	DatasetID string `json:"dataset_id"`
	Question  string `json:"question"`
}

// ReprocessRequest is the body of POST /reprocess.
type ReprocessRequest struct {
	FileID string `json:"file_id"`
}

// UploadResponse is the envelope returned by upload and reprocess.
type UploadResponse struct {
	DatasetID  string `json:"dataset_id"`
	Rows       int    `json:"rows"`
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"uploaded_at"`
}

// Upload accepts a CSV file, normalizes it, stores the table under a new
// dataset handle, and records the upload for later reprocessing.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		httputil.BadRequest(w, "Only CSV files are supported.")
		return
	}

	contents, err := io.ReadAll(file)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	raw, err := dataset.ReadCSV(bytes.NewReader(contents))
	if err != nil {
		httputil.BadRequest(w, "invalid CSV: "+err.Error())
		return
	}
	table := dataset.Normalize(raw)

	if !dataset.HasExpected(table) {
		httputil.BadRequest(w, "CSV missing expected columns. Include date, item, revenue, units_sold, inventory_on_hand.")
		return
	}

	rec, err := h.uploads.Save(header.Filename, contents)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	datasetID, err := h.store.Put(r.Context(), table)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("upload accepted",
		"file_id", rec.FileID, "dataset_id", datasetID,
		"filename", header.Filename, "rows", table.NumRows())

	httputil.OK(w, UploadResponse{
		DatasetID:  datasetID,
		Rows:       table.NumRows(),
		FileID:     rec.FileID,
		Filename:   rec.Filename,
		UploadedAt: rec.UploadedAt,
	})
}

// Ask runs the full analytics pipeline for a question against a dataset.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	table, err := h.store.Get(r.Context(), req.DatasetID)
	if errors.Is(err, dataset.ErrNotFound) {
		httputil.NotFound(w, "Dataset not found.")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	result := h.svc.Ask(r.Context(), table, req.Question)
	httputil.OK(w, result)
}

// ListUploads returns the recent upload records, newest first.
func (h *Handlers) ListUploads(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"uploads": h.uploads.List()})
}

// Reprocess re-reads a stored upload, renormalizes it, and issues a fresh
// dataset handle.
func (h *Handlers) Reprocess(w http.ResponseWriter, r *http.Request) {
	var req ReprocessRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	contents, rec, err := h.uploads.Read(req.FileID)
	if errors.Is(err, uploads.ErrUnknownUpload) {
		httputil.NotFound(w, "Upload not found.")
		return
	}
	if errors.Is(err, uploads.ErrFileMissing) {
		httputil.NotFound(w, "Stored file missing.")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	raw, err := dataset.ReadCSV(bytes.NewReader(contents))
	if err != nil {
		httputil.BadRequest(w, "invalid CSV: "+err.Error())
		return
	}
	table := dataset.Normalize(raw)

	datasetID, err := h.store.Put(r.Context(), table)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("upload reprocessed", "file_id", rec.FileID, "dataset_id", datasetID)

	httputil.OK(w, UploadResponse{
		DatasetID:  datasetID,
		Rows:       table.NumRows(),
		FileID:     rec.FileID,
		Filename:   rec.Filename,
		UploadedAt: rec.UploadedAt,
	})
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
