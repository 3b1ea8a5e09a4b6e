package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/bryanwahyu/chestlogic/internal/application/analysis"
	appreview "github.com/bryanwahyu/chestlogic/internal/application/review"
	"github.com/bryanwahyu/chestlogic/internal/domain/caselog"
	"github.com/bryanwahyu/chestlogic/internal/middleware"
)

const adminPasswordHeader = "X-Admin-Password"

type analyzeResponse struct {
	AIOutput  string          `json:"ai_output"`
	Record    *caselog.Record `json:"record,omitempty"`
	SaveError string          `json:"save_error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeGate answers a request that did not pass the admin gate.
func writeGate(w http.ResponseWriter, gate appreview.Gate) {
	if gate == appreview.GateNone {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing " + adminPasswordHeader})
		return
	}
	writeJSON(w, http.StatusForbidden, map[string]string{"error": "incorrect password"})
}

// POST /v1/analyses
// Body: {"user_input": "<case text>"}
func (r *Router) handleAPIAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		UserInput string `json:"user_input"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid body: %v", err)})
		return nil
	}

	res, err := r.analysisSvc.Analyze(req.Context(), body.UserInput)
	if errors.Is(err, appanalysis.ErrEmptyInput) {
		middleware.ObserveAnalysis(middleware.OutcomeEmpty)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil
	}
	if err != nil {
		middleware.ObserveAnalysis(middleware.OutcomeAIFailed)
		return err
	}

	out := analyzeResponse{AIOutput: res.Output, Record: res.Record}
	if res.SaveErr != nil {
		middleware.ObserveAnalysis(middleware.OutcomeSaveFailed)
		out.SaveError = res.SaveErr.Error()
	} else {
		middleware.ObserveAnalysis(middleware.OutcomeSaved)
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// GET /v1/analyses
// Header: X-Admin-Password
func (r *Router) handleAPIList(w http.ResponseWriter, req *http.Request) error {
	gate, recs, err := r.reviewSvc.List(req.Context(), req.Header.Get(adminPasswordHeader))
	middleware.ObserveGate(gate.String())
	if err != nil {
		return err
	}
	if gate != appreview.GateGranted {
		writeGate(w, gate)
		return nil
	}
	if recs == nil {
		recs = []*caselog.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
	return nil
}

// PUT /v1/analyses/{id}/feedback
// Header: X-Admin-Password
// Body: {"admin_feedback": "<text>"}
func (r *Router) handleAPIFeedback(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		AdminFeedback string `json:"admin_feedback"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid body: %v", err)})
		return nil
	}

	id := caselog.RecordID(chi.URLParam(req, "id"))
	gate, err := r.reviewSvc.SaveFeedback(req.Context(), req.Header.Get(adminPasswordHeader), id, body.AdminFeedback)
	middleware.ObserveGate(gate.String())
	if err != nil {
		return err
	}
	if gate != appreview.GateGranted {
		writeGate(w, gate)
		return nil
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
