package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/service"
	"github.com/gorilla/mux"
)

const defaultHistoryDays = 7

type createPlanRequest struct {
	State    domain.UserStudyState `json:"state"`
	CourseID domain.CourseID       `json:"course_id"`
	Force    bool                  `json:"force"`
}

type completionRequest struct {
	ActivityID       string              `json:"activity_id"`
	Section          string              `json:"section"`
	CourseID         domain.CourseID     `json:"course_id"`
	EstimatedMinutes int                 `json:"estimated_minutes"`
	ActivityType     domain.ActivityType `json:"activity_type"`
}

type feedbackRequest struct {
	ActivityType domain.ActivityType   `json:"activity_type"`
	Rating       domain.FeedbackRating `json:"rating"`
	Tag          string                `json:"tag"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetToday(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	plan := s.plans.FetchTodaysPlan(r.Context(), user, lookupSection(r))
	if plan == nil {
		writeError(w, http.StatusNotFound, "no plan for today")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCreateToday(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := s.plans.GetOrCreateTodaysPlan(r.Context(), service.GetOrCreateRequest{
		UserID:          mux.Vars(r)["user"],
		State:           req.State,
		CourseID:        req.CourseID,
		ForceRegenerate: req.Force,
	})
	if err != nil {
		s.log.ErrorContext(r.Context(), "plan generation failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "no plan for today")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleClearToday drops today's cached plans. With ?remote=true the
// synced copy of the requested section goes too.
func (s *Server) handleClearToday(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	if remote, _ := strconv.ParseBool(r.URL.Query().Get("remote")); remote {
		section, course := r.URL.Query().Get("section"), courseParam(r)
		writeJSON(w, http.StatusOK, s.plans.DeleteTodaysPlan(r.Context(), user, domain.NormalizeSection(section, course)))
		return
	}
	n := s.plans.ClearTodaysPlan(r.Context(), user, lookupSection(r))
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ActivityID == "" {
		writeError(w, http.StatusBadRequest, "activity_id is required")
		return
	}

	report := s.plans.MarkActivityCompleted(r.Context(), service.CompletionRequest{
		UserID:           mux.Vars(r)["user"],
		ActivityID:       req.ActivityID,
		Section:          req.Section,
		CourseID:         req.CourseID,
		EstimatedMinutes: req.EstimatedMinutes,
		ActivityType:     req.ActivityType,
	})
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCompletionStatus(w http.ResponseWriter, r *http.Request) {
	ids := s.plans.GetTodaysCompletionStatus(r.Context(), mux.Vars(r)["user"], lookupSection(r))
	writeJSON(w, http.StatusOK, map[string][]string{"completed_activity_ids": ids})
}

func (s *Server) handleCarryover(w http.ResponseWriter, r *http.Request) {
	items := s.plans.GetPreviousIncomplete(r.Context(), mux.Vars(r)["user"], r.URL.Query().Get("section"), courseParam(r))
	writeJSON(w, http.StatusOK, map[string][]domain.Activity{"activities": items})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	plans := s.plans.GetPlanHistory(r.Context(), mux.Vars(r)["user"], days)
	writeJSON(w, http.StatusOK, map[string][]*domain.StudyPlan{"plans": plans})
}

func (s *Server) handleCompletionRate(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.plans.GetCompletionRate(r.Context(), mux.Vars(r)["user"], days))
}

// courseParam reads ?course=, defaulting to the default course.
func courseParam(r *http.Request) domain.CourseID {
	if c := r.URL.Query().Get("course"); c != "" {
		return domain.CourseID(c)
	}
	return domain.DefaultCourse
}

// lookupSection is the section today's plan is read under. An empty
// result matches a plan of any section.
func lookupSection(r *http.Request) string {
	return domain.LookupSection(r.URL.Query().Get("section"), courseParam(r))
}

// daysParam reads ?days=, defaulting to a week. Non-positive values are
// passed through; the service answers them with an empty result.
func daysParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return defaultHistoryDays, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "days must be an integer")
		return 0, false
	}
	return n, true
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.MarkActivityStarted(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.tracker.RecordActivityFeedback(r.Context(), req.ActivityType, req.Rating, req.Tag)
	switch {
	case errors.Is(err, service.ErrInvalidFeedback):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDurationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.GetActivityDurationStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.GetActivityFeedbackStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
