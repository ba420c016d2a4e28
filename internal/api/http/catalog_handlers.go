package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/moiseiyaa/iremeHub-lms/internal/auth/middleware"
	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
	"github.com/moiseiyaa/iremeHub-lms/internal/rbac"
)

// CatalogStore is the authoring surface over the catalog.
type CatalogStore interface {
	catalog.Reader
	PutCourse(ctx context.Context, c catalog.Course) error
	PutLesson(ctx context.Context, l catalog.Lesson) error
}

type lessonReq struct {
	ID          string             `json:"id" validate:"required"`
	Title       string             `json:"title" validate:"required"`
	ContentType string             `json:"content_type" validate:"required,oneof=video article quiz assignment exam"`
	Position    int                `json:"position" validate:"gte=0"`
	Questions   []catalog.Question `json:"questions,omitempty"`
	Exam        *catalog.ExamMeta  `json:"exam,omitempty"`
}

// UpsertCourseHandler writes a course and its lessons in one shot. The
// caller becomes (or must already be) the owner.
func UpsertCourseHandler(store CatalogStore) http.HandlerFunc {
	type req struct {
		ID      string      `json:"id" validate:"required"`
		Title   string      `json:"title" validate:"required"`
		Price   float64     `json:"price" validate:"gte=0"`
		Lessons []lessonReq `json:"lessons" validate:"dive"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeAndValidate(r, &in); err != nil {
			writeEngineError(w, err)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		if snap, err := store.Snapshot(r.Context(), in.ID); err == nil {
			if snap.Course.OwnerID != sub && rbac.RoleFromContext(r.Context()) != "admin" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			sub = snap.Course.OwnerID
		}
		c := catalog.Course{ID: in.ID, Title: in.Title, OwnerID: sub, Price: in.Price}
		if err := store.PutCourse(r.Context(), c); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		for _, lr := range in.Lessons {
			l := catalog.Lesson{
				ID:          lr.ID,
				CourseID:    in.ID,
				Title:       lr.Title,
				ContentType: catalog.ContentType(lr.ContentType),
				Position:    lr.Position,
				Questions:   lr.Questions,
				Exam:        lr.Exam,
			}
			if err := store.PutLesson(r.Context(), l); err != nil {
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": in.ID, "lessons": len(in.Lessons)})
	}
}

type redactedLesson struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	ContentType catalog.ContentType `json:"content_type"`
	Position    int                 `json:"position"`
	Questions   []redactedQuestion  `json:"questions,omitempty"`
	Exam        *catalog.ExamMeta   `json:"exam,omitempty"`
}

type redactedQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Points  float64  `json:"points"`
}

// GetCourseHandler serves a course snapshot. Learners get the bank with
// answer keys stripped; the owner and admins see the full lessons.
func GetCourseHandler(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Snapshot(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			http.Error(w, "course not found", http.StatusNotFound)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		if sub == snap.Course.OwnerID || rbac.RoleFromContext(r.Context()) == "admin" {
			writeJSON(w, http.StatusOK, snap)
			return
		}
		out := struct {
			Course  catalog.Course   `json:"course"`
			Lessons []redactedLesson `json:"lessons"`
		}{Course: snap.Course}
		for _, l := range snap.Lessons {
			rl := redactedLesson{
				ID:          l.ID,
				Title:       l.Title,
				ContentType: l.ContentType,
				Position:    l.Position,
				Exam:        l.Exam,
			}
			for _, q := range l.Questions {
				rl.Questions = append(rl.Questions, redactedQuestion{
					Prompt: q.Prompt, Options: q.Options, Points: q.Points,
				})
			}
			out.Lessons = append(out.Lessons, rl)
		}
		writeJSON(w, http.StatusOK, out)
	}
}
