package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/moiseiyaa/iremeHub-lms/internal/auth/middleware"
	"github.com/moiseiyaa/iremeHub-lms/internal/certificate"
)

func IssueCertificateHandler(issuer *certificate.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := authmw.SubjectFromContext(r.Context())
		cert, err := issuer.Issue(r.Context(), learnerID, chi.URLParam(r, "courseID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, cert)
	}
}

// VerifyCertificateHandler is public: certificates are bearer-verifiable
// by id, no authentication required.
func VerifyCertificateHandler(issuer *certificate.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := issuer.Verify(r.Context(), chi.URLParam(r, "certificateID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
