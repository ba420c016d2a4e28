package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/moiseiyaa/iremeHub-lms/internal/auth/middleware"
	"github.com/moiseiyaa/iremeHub-lms/internal/progress"
)

func StartExamHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := authmw.SubjectFromContext(r.Context())
		out, err := svc.StartExam(r.Context(),
			learnerID, chi.URLParam(r, "courseID"), chi.URLParam(r, "lessonID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func SubmitExamHandler(svc *progress.Service) http.HandlerFunc {
	type req struct {
		AttemptID string `json:"attempt_id" validate:"required"`
		Answers   []int  `json:"answers" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeAndValidate(r, &in); err != nil {
			writeEngineError(w, err)
			return
		}
		learnerID := authmw.SubjectFromContext(r.Context())
		out, err := svc.SubmitExam(r.Context(),
			learnerID, chi.URLParam(r, "courseID"), chi.URLParam(r, "lessonID"),
			in.AttemptID, in.Answers)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
