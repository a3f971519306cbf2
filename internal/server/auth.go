package server

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// withAuth enforces bearer-token auth when a token hash is configured.
// The config stores only the bcrypt hash, never the token itself;
// bcrypt's comparison is constant-time.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.cfg.TokenHash == "" {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || bcrypt.CompareHashAndPassword([]byte(s.cfg.TokenHash), []byte(token)) != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.err(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// HashToken produces the bcrypt hash to store as server.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
