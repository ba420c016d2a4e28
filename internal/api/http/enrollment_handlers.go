package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/moiseiyaa/iremeHub-lms/internal/auth/middleware"
	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
	"github.com/moiseiyaa/iremeHub-lms/internal/enrollment"
	"github.com/moiseiyaa/iremeHub-lms/internal/progress"
	"github.com/moiseiyaa/iremeHub-lms/internal/rbac"
)

func EnrollHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := authmw.SubjectFromContext(r.Context())
		view, err := svc.Enroll(r.Context(), learnerID, chi.URLParam(r, "courseID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"course_id": view.CourseID,
			"status":    view.Status,
		})
	}
}

// ownerOrAdmin guards enrollment decisions: only the course owner or an
// admin may approve or reject.
func ownerOrAdmin(r *http.Request, cat catalog.Reader, courseID string) bool {
	if rbac.RoleFromContext(r.Context()) == "admin" {
		return true
	}
	snap, err := cat.Snapshot(r.Context(), courseID)
	return err == nil && snap.Course.OwnerID == authmw.SubjectFromContext(r.Context())
}

func ApproveEnrollmentHandler(svc *progress.Service, cat catalog.Reader) http.HandlerFunc {
	return decideEnrollment(svc, cat, enrollment.StatusActive)
}

func RejectEnrollmentHandler(svc *progress.Service, cat catalog.Reader) http.HandlerFunc {
	return decideEnrollment(svc, cat, enrollment.StatusRejected)
}

func decideEnrollment(svc *progress.Service, cat catalog.Reader, to enrollment.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if !ownerOrAdmin(r, cat, courseID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		learnerID := chi.URLParam(r, "learnerID")
		if err := svc.SetEnrollmentStatus(r.Context(), learnerID, courseID, enrollment.StatusPending, to); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"learner_id": learnerID, "status": to})
	}
}

func CancelEnrollmentHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := authmw.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		if err := svc.SetEnrollmentStatus(r.Context(), learnerID, courseID,
			enrollment.StatusActive, enrollment.StatusCancelled); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": enrollment.StatusCancelled})
	}
}
