// Package server exposes the analysis driver over plain HTTP/2 cleartext
// (h2c — no TLS setup needed for local analysis automation), the serve
// subcommand's backing implementation.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/fatalsec/dalivm/internal/analysis"
	"github.com/fatalsec/dalivm/internal/config"
	"github.com/fatalsec/dalivm/internal/dex"
	"github.com/fatalsec/dalivm/internal/mock"
)

// Server holds the loaded archive one serve invocation analyzes; every
// request targets the same archive, only the method spec varies.
type Server struct {
	prog *dex.Program
	cfg  *config.Config
}

// New returns a Server ready to handle /analyze requests against prog.
func New(prog *dex.Program, cfg *config.Config) *Server {
	return &Server{prog: prog, cfg: cfg}
}

type analyzeRequest struct {
	Target string `json:"target"`
}

type analyzeResponse struct {
	RunID     string                   `json:"runId"`
	Target    string                   `json:"target"`
	CallSites []analysis.CallResult    `json:"callSites"`
	Error     string                   `json:"error,omitempty"`
}

// ListenAndServe starts the h2c listener on addr. It blocks until the
// server errors out, the same contract http.Server.ListenAndServe makes.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/healthz", s.handleHealthz)

	h2s := &http2.Server{}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(mux, h2s),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpSrv.ListenAndServe()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	target, err := analysis.FindTarget(s.prog, req.Target)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var hooks *mock.Script
	if s.cfg.HooksPath != "" {
		h, err := mock.LoadScript(s.cfg.HooksPath)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("load hooks: %w", err))
			return
		}
		hooks = h
	}

	ctx := analysis.New(s.prog, s.cfg.ToMockConfig(), hooks, s.cfg.StepCap, s.cfg.ClinitStepCap)
	ctx.CallSiteCap = s.cfg.CallSiteCap
	ctx.MaxErrorsPerSite = s.cfg.MaxErrorsPerSite

	result := ctx.Run(target)

	resp := analyzeResponse{RunID: result.RunID, Target: result.Target, CallSites: result.CallSites}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(analyzeResponse{Error: err.Error()})
}
