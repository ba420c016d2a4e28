package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/moiseiyaa/iremeHub-lms/internal/auth/middleware"
	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
	"github.com/moiseiyaa/iremeHub-lms/internal/progress"
	"github.com/moiseiyaa/iremeHub-lms/internal/rbac"
)

func RecordLessonCompletionHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := authmw.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		lessonID := chi.URLParam(r, "lessonID")
		view, err := svc.RecordLessonCompletion(r.Context(), learnerID, courseID, lessonID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"completion_percent": view.CompletionPercent,
			"completed":          view.Completed,
			"total_lessons":      view.TotalLessons,
		})
	}
}

func SubmitQuizHandler(svc *progress.Service) http.HandlerFunc {
	type req struct {
		Answers []int `json:"answers" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeAndValidate(r, &in); err != nil {
			writeEngineError(w, err)
			return
		}
		learnerID := authmw.SubjectFromContext(r.Context())
		out, err := svc.SubmitQuiz(r.Context(),
			learnerID, chi.URLParam(r, "courseID"), chi.URLParam(r, "lessonID"), in.Answers)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func SubmitAssignmentHandler(svc *progress.Service) http.HandlerFunc {
	type req struct {
		SubmissionText string `json:"submission_text" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeAndValidate(r, &in); err != nil {
			writeEngineError(w, err)
			return
		}
		learnerID := authmw.SubjectFromContext(r.Context())
		sub, err := svc.SubmitAssignment(r.Context(),
			learnerID, chi.URLParam(r, "courseID"), chi.URLParam(r, "lessonID"), in.SubmissionText)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

// GetProgressHandler serves the caller's own record, or any learner's when
// the caller is the course owner or an admin.
func GetProgressHandler(svc *progress.Service, cat catalog.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := authmw.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		learnerID := chi.URLParam(r, "learnerID")
		if learnerID == "" {
			learnerID = caller
		}
		if learnerID != caller {
			role := rbac.RoleFromContext(r.Context())
			if role != "admin" {
				snap, err := cat.Snapshot(r.Context(), courseID)
				if err != nil || snap.Course.OwnerID != caller {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}
		}
		view, err := svc.Progress(r.Context(), learnerID, courseID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
