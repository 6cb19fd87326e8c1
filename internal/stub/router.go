package stub

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter exposes the subset of the Conduit API the client uses.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			s.log.Warnf("stub: health: %v", err)
		}
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users/login", s.LoginHandler).Methods("POST")
	api.HandleFunc("/users", s.RegisterHandler).Methods("POST")
	api.HandleFunc("/user", s.CurrentUserHandler).Methods("GET")
	api.HandleFunc("/articles", s.ListArticlesHandler).Methods("GET")
	api.HandleFunc("/profiles/{username}", s.ProfileHandler).Methods("GET")
	api.Use(s.requestLog)
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Infof("stub: %s %s id=%s", r.Method, r.URL.RequestURI(), r.Header.Get("X-Request-Id"))
		next.ServeHTTP(w, r)
	})
}
