package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/bryanwahyu/chestlogic/internal/application/analysis"
	appreview "github.com/bryanwahyu/chestlogic/internal/application/review"
	"github.com/bryanwahyu/chestlogic/internal/domain/caselog"
	"github.com/bryanwahyu/chestlogic/internal/middleware"
)

const (
	msgEmptyInput   = "Please enter a case to analyze."
	msgSaveFailed   = "Failed to save the log: "
	msgFeedbackSave = "Feedback saved."
)

type analysisPage struct {
	Input     string
	Warning   string
	Submitted bool
	Output    string
	SaveError string
}

type adminPage struct {
	Password       string
	Rejected       bool
	Granted        bool
	Records        []*caselog.Record
	Toast          string
	ArchiveEnabled bool
	ExportURL      string
}

type errorPage struct {
	Message string
}

func (r *Router) renderAnalysis(w http.ResponseWriter, p analysisPage) error {
	return r.views.Render(w, http.StatusOK, viewAnalysis, ViewData{Title: "Case Analysis", Active: "analysis", Data: p})
}

func (r *Router) renderAdmin(w http.ResponseWriter, p adminPage) error {
	p.ArchiveEnabled = r.reviewSvc.ArchiveEnabled()
	return r.views.Render(w, http.StatusOK, viewAdmin, ViewData{Title: "Admin Review", Active: "admin", Data: p})
}

// GET /analysis
func (r *Router) handleAnalysisForm(w http.ResponseWriter, req *http.Request) error {
	return r.renderAnalysis(w, analysisPage{})
}

// POST /analysis
// Form: user_input
func (r *Router) handleAnalysisSubmit(w http.ResponseWriter, req *http.Request) error {
	input := req.PostFormValue("user_input")

	res, err := r.analysisSvc.Analyze(req.Context(), input)
	if errors.Is(err, appanalysis.ErrEmptyInput) {
		middleware.ObserveAnalysis(middleware.OutcomeEmpty)
		return r.renderAnalysis(w, analysisPage{Warning: msgEmptyInput})
	}
	if err != nil {
		middleware.ObserveAnalysis(middleware.OutcomeAIFailed)
		return err
	}

	p := analysisPage{Input: input, Submitted: true, Output: res.Output}
	if res.SaveErr != nil {
		middleware.ObserveAnalysis(middleware.OutcomeSaveFailed)
		p.SaveError = msgSaveFailed + res.SaveErr.Error()
	} else {
		middleware.ObserveAnalysis(middleware.OutcomeSaved)
	}
	return r.renderAnalysis(w, p)
}

// GET /admin
func (r *Router) handleAdminForm(w http.ResponseWriter, req *http.Request) error {
	return r.renderAdmin(w, adminPage{})
}

// POST /admin
// Form: password
func (r *Router) handleAdminLogin(w http.ResponseWriter, req *http.Request) error {
	password := req.PostFormValue("password")
	gate, recs, err := r.reviewSvc.List(req.Context(), password)
	middleware.ObserveGate(gate.String())
	if err != nil {
		return err
	}
	return r.renderAdmin(w, gatedPage(gate, password, recs))
}

// POST /admin/records/{id}/feedback
// Form: password, feedback
func (r *Router) handleAdminFeedback(w http.ResponseWriter, req *http.Request) error {
	id := caselog.RecordID(chi.URLParam(req, "id"))
	password := req.PostFormValue("password")

	gate, err := r.reviewSvc.SaveFeedback(req.Context(), password, id, req.PostFormValue("feedback"))
	middleware.ObserveGate(gate.String())
	if err != nil {
		return err
	}
	if gate != appreview.GateGranted {
		return r.renderAdmin(w, gatedPage(gate, password, nil))
	}

	_, recs, err := r.reviewSvc.List(req.Context(), password)
	if err != nil {
		return err
	}
	p := gatedPage(gate, password, recs)
	p.Toast = msgFeedbackSave
	return r.renderAdmin(w, p)
}

// POST /admin/export
// Form: password
func (r *Router) handleAdminExport(w http.ResponseWriter, req *http.Request) error {
	password := req.PostFormValue("password")

	gate, url, err := r.reviewSvc.Export(req.Context(), password)
	middleware.ObserveGate(gate.String())
	if err != nil {
		return err
	}
	if gate != appreview.GateGranted {
		return r.renderAdmin(w, gatedPage(gate, password, nil))
	}

	_, recs, err := r.reviewSvc.List(req.Context(), password)
	if err != nil {
		return err
	}
	p := gatedPage(gate, password, recs)
	p.ExportURL = url
	return r.renderAdmin(w, p)
}

// gatedPage only echoes the password back once it has been accepted.
func gatedPage(gate appreview.Gate, password string, recs []*caselog.Record) adminPage {
	switch gate {
	case appreview.GateGranted:
		return adminPage{Password: password, Granted: true, Records: recs}
	case appreview.GateRejected:
		return adminPage{Rejected: true}
	default:
		return adminPage{}
	}
}
