package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// ReportHandler exposes the on-demand report trigger: the asynchronous
// "produce a report now" signal from the command surface.
type ReportHandler struct {
	trigger ReportTrigger
	loc     *time.Location
}

func NewReportHandler(trigger ReportTrigger, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{trigger: trigger, loc: loc}
}

type triggerReportRequest struct {
	Date string `json:"date,omitempty"`
}

type triggerReportResponse struct {
	Date   string `json:"date"`
	Queued bool   `json:"queued"`
}

// Trigger enqueues a report request. An empty or absent date means today.
func (h *ReportHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().In(h.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	if !h.trigger.RequestReport(date) {
		respondError(w, http.StatusServiceUnavailable, "report queue is full, try again shortly")
		return
	}

	respondJSON(w, http.StatusAccepted, triggerReportResponse{Date: date, Queued: true})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
