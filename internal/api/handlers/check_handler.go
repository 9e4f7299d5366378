package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/markdave123-py/rulecheck/internal/core"
	objectclient "github.com/markdave123-py/rulecheck/internal/core/object-client"
	"github.com/markdave123-py/rulecheck/internal/core/pipeline"
	"github.com/markdave123-py/rulecheck/internal/models"
)

type CheckHandler struct {
	pipeline       *pipeline.Pipeline
	objects        core.ObjectClient
	bucket         string
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewCheckHandler wires the check endpoints. objects may be nil, in which
// case object intake answers 503.
func NewCheckHandler(p *pipeline.Pipeline, objects core.ObjectClient, bucket string, maxUploadBytes int64, logger *slog.Logger) *CheckHandler {
	return &CheckHandler{
		pipeline:       p,
		objects:        objects,
		bucket:         bucket,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "check_handler"),
	}
}

// Check handles a multipart upload with a "pdfFile" part and a "rules" field
// holding a JSON array of strings.
func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var (
		document []byte
		filename string
		rules    string
	)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
			return
		}
		// Not multipart at all: fall through so the pipeline reports what is missing.
		h.logger.WarnContext(r.Context(), "multipart parse failed", "error", err)
	} else {
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		rules = r.PostFormValue("rules")
		file, header, err := r.FormFile("pdfFile")
		if err == nil {
			defer file.Close()
			if document, err = io.ReadAll(file); err != nil {
				h.logger.ErrorContext(r.Context(), "read upload failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to read uploaded file.")
				return
			}
			filename = header.Filename
		}
	}

	results, err := h.pipeline.RunEncoded(r.Context(), document, filename, rules)
	h.respond(w, results, err)
}

type objectCheckRequest struct {
	Key   string   `json:"key"`
	Rules []string `json:"rules"`
}

// CheckObject runs the pipeline on a document already stored in the
// configured bucket.
func (h *CheckHandler) CheckObject(w http.ResponseWriter, r *http.Request) {
	if h.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}

	var req objectCheckRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	var document []byte
	if req.Key != "" {
		data, err := h.objects.GetFile(r.Context(), h.bucket, req.Key)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "object fetch failed", "key", req.Key, "error", err)
			if errors.Is(err, objectclient.ErrObjectTooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "Stored document is too large.")
				return
			}
			writeError(w, http.StatusBadGateway, "Failed to fetch document from object storage.")
			return
		}
		document = data
	}

	results, err := h.pipeline.Run(r.Context(), pipeline.Request{Document: document, Filename: req.Key, Rules: req.Rules})
	h.respond(w, results, err)
}

func (h *CheckHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CheckHandler) respond(w http.ResponseWriter, results []models.VerdictRecord, err error) {
	if err != nil {
		writeError(w, pipeline.HTTPStatus(err), pipeline.PublicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, models.CheckResponse{Success: true, Results: results})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
