package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// authMiddleware requires HTTP Basic auth whose password matches the
// configured bcrypt hash. The username is ignored. Health checks stay open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	hash := []byte(s.cfg.Web.PasswordHash)
	if len(hash) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		_, pass, ok := r.BasicAuth()
		if !ok || bcrypt.CompareHashAndPassword(hash, []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="research article generator"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassword returns the bcrypt hash to put in web.password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
