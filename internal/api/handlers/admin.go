package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nikhilbhutani/docchat/internal/ingest"
	"github.com/nikhilbhutani/docchat/internal/llm"
)

type Sweeper interface {
	ReprocessStuck(ctx context.Context) (*ingest.SweepReport, error)
}

type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context) error
}

type AdminHandler struct {
	sweeper      Sweeper
	enqueuer     SweepEnqueuer
	gateway      llm.Gateway
	sweepTimeout time.Duration
}

// NewAdminHandler takes an optional enqueuer; when it is nil sweeps run
// inside the request.
func NewAdminHandler(s Sweeper, enq SweepEnqueuer, gw llm.Gateway, sweepTimeout time.Duration) *AdminHandler {
	return &AdminHandler{sweeper: s, enqueuer: enq, gateway: gw, sweepTimeout: sweepTimeout}
}

// ReprocessStuck re-runs the pipeline for every document still in
// processing. With a task queue the sweep is queued (202) unless the caller
// asks for ?wait=true; without one it always runs inline and returns the report.
func (h *AdminHandler) ReprocessStuck(w http.ResponseWriter, r *http.Request) {
	wait := r.URL.Query().Get("wait") == "true"
	if h.enqueuer != nil && !wait {
		if err := h.enqueuer.EnqueueSweep(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, http.StatusAccepted, map[string]any{"status": "queued"})
		return
	}

	ctx, cancel := detachedRun(w, r, h.sweepTimeout)
	defer cancel()

	report, err := h.sweeper.ReprocessStuck(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"report": report})
}

// Models lists the models of every configured provider.
func (h *AdminHandler) Models(w http.ResponseWriter, r *http.Request) {
	list := h.gateway.ListModels()
	writeOK(w, http.StatusOK, map[string]any{"models": list, "count": len(list)})
}
