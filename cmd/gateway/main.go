package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/moiseiyaa/iremeHub-lms/internal/api/http"
	"github.com/moiseiyaa/iremeHub-lms/internal/audit"
	"github.com/moiseiyaa/iremeHub-lms/internal/auth"
	authmw "github.com/moiseiyaa/iremeHub-lms/internal/auth/middleware"
	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
	"github.com/moiseiyaa/iremeHub-lms/internal/certificate"
	"github.com/moiseiyaa/iremeHub-lms/internal/config"
	"github.com/moiseiyaa/iremeHub-lms/internal/db"
	"github.com/moiseiyaa/iremeHub-lms/internal/exam"
	"github.com/moiseiyaa/iremeHub-lms/internal/identity"
	"github.com/moiseiyaa/iremeHub-lms/internal/progress"
	rbac "github.com/moiseiyaa/iremeHub-lms/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Stores ---
	catStore := catalog.NewSQLStore(dbh)
	progStore := progress.NewSQLStore(dbh)
	attemptStore := exam.NewSQLStore(dbh)
	certStore := certificate.NewSQLStore(dbh)
	users := identity.NewSQLDirectory(dbh)
	events := audit.NewEventRepo(dbh)

	svc := progress.NewService(progStore, catStore, attemptStore, events, time.Now)
	issuer := certificate.NewIssuer(certStore, progStore, catStore, users, events, time.Now)

	// --- Auth ---
	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Certificate verification is a public surface: anyone holding an id can
	// check it.
	r.Get("/certificates/{certificateID}/verify", api.VerifyCertificateHandler(issuer))

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		pr.Use(authmw.AttachRoleFromDB(dbh, cfg.DevAuth))

		pr.Route("/courses", func(cr chi.Router) {
			// Authoring (instructor/admin)
			cr.With(rbac.Require("course:create")).
				Post("/", api.UpsertCourseHandler(catStore))
			cr.With(rbac.Require("course:view")).
				Get("/{courseID}", api.GetCourseHandler(catStore))

			// Enrollment lifecycle
			cr.With(rbac.Require("enrollment:create")).
				Post("/{courseID}/enroll", api.EnrollHandler(svc))
			cr.With(rbac.Require("enrollment:cancel")).
				Post("/{courseID}/enroll/cancel", api.CancelEnrollmentHandler(svc))
			cr.With(rbac.Require("enrollment:approve")).
				Post("/{courseID}/enrollments/{learnerID}/approve", api.ApproveEnrollmentHandler(svc, catStore))
			cr.With(rbac.Require("enrollment:reject")).
				Post("/{courseID}/enrollments/{learnerID}/reject", api.RejectEnrollmentHandler(svc, catStore))

			// Learner flow
			cr.With(rbac.Require("progress:write")).
				Post("/{courseID}/lessons/{lessonID}/complete", api.RecordLessonCompletionHandler(svc))
			cr.With(rbac.Require("progress:write")).
				Post("/{courseID}/lessons/{lessonID}/quiz", api.SubmitQuizHandler(svc))
			cr.With(rbac.Require("progress:write")).
				Post("/{courseID}/lessons/{lessonID}/assignment", api.SubmitAssignmentHandler(svc))
			cr.With(rbac.Require("progress:write")).
				Post("/{courseID}/lessons/{lessonID}/exam/start", api.StartExamHandler(svc))
			cr.With(rbac.Require("progress:write")).
				Post("/{courseID}/lessons/{lessonID}/exam/submit", api.SubmitExamHandler(svc))

			// Progress reads: own record, or any learner for owner/admin.
			// The handler enforces the owner check.
			cr.With(rbac.Require("progress:view-own")).
				Get("/{courseID}/progress", api.GetProgressHandler(svc, catStore))
			cr.With(rbac.RequireAny("progress:view-all", "progress:view-own")).
				Get("/{courseID}/progress/{learnerID}", api.GetProgressHandler(svc, catStore))

			// Certificates
			cr.With(rbac.Require("certificate:request")).
				Post("/{courseID}/certificate", api.IssueCertificateHandler(issuer))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
