package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RequireUUIDVars answers 404 when one of the named route variables is not a
// UUID, so malformed ids never reach the database. It must be installed on a
// mux router so the variables are already matched.
func RequireUUIDVars(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			for _, name := range names {
				v, ok := vars[name]
				if ok && uuid.Validate(v) != nil {
					writeError(w, http.StatusNotFound, "nao_encontrado")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
