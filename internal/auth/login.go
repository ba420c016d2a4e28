package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	authmw "github.com/moiseiyaa/iremeHub-lms/internal/auth/middleware"
)

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *authmw.AuthService, db *sql.DB) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var id, role, hash string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, role, password_hash FROM users WHERE username=$1`, req.Username).
			Scan(&id, &role, &hash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(id, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Role: role})
	}
}
