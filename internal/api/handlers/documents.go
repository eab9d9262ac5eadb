package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/document"
	"github.com/nikhilbhutani/docchat/internal/ingest"
	"github.com/nikhilbhutani/docchat/internal/models"
)

// Processor runs the ingestion pipeline synchronously.
type Processor interface {
	Process(ctx context.Context, id uuid.UUID) (*ingest.Result, error)
}

type DocumentHandler struct {
	svc        *document.Service
	processor  Processor
	maxUpload  int64
	runTimeout time.Duration
}

// NewDocumentHandler bounds each synchronous process call by runTimeout.
func NewDocumentHandler(svc *document.Service, p Processor, maxUpload int64, runTimeout time.Duration) *DocumentHandler {
	return &DocumentHandler{svc: svc, processor: p, maxUpload: maxUpload, runTimeout: runTimeout}
}

type documentView struct {
	*models.Document
	Analysis *models.Analysis `json:"analysis,omitempty"`
}

func viewOf(doc *models.Document) documentView {
	return documentView{Document: doc, Analysis: doc.Analysis()}
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeFailure(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "could not read file")
		return
	}

	doc, err := h.svc.Upload(r.Context(), document.UploadRequest{
		UserID:      user,
		Title:       r.FormValue("title"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusCreated, map[string]any{"document": viewOf(doc)})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := h.svc.List(r.Context(), user, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]documentView, 0, len(docs))
	for i := range docs {
		views = append(views, viewOf(&docs[i]))
	}
	writeOK(w, http.StatusOK, map[string]any{"documents": views, "count": len(views)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"document": viewOf(doc)})
}

func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"id":         doc.ID,
		"status":     doc.Status,
		"last_error": doc.LastError,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := urlID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// Process runs the pipeline for the document and waits for the outcome.
// Calling it again re-analyzes the document. The run is detached from the
// request, so a client that hangs up does not cancel it.
func (h *DocumentHandler) Process(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}

	ctx, cancel := detachedRun(w, r, h.runTimeout)
	defer cancel()

	res, err := h.processor.Process(ctx, doc.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"analysis":   res.Analysis,
		"status":     res.Status,
		"source":     res.Source,
		"extraction": res.Extraction,
	})
}

func (h *DocumentHandler) load(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	id, ok := urlID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid document ID")
		return nil, false
	}

	doc, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return doc, true
}
