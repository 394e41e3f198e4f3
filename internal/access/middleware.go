package access

import (
	"net/http"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// Middleware reads the actor forwarded by the authentication gateway. A
// request without an actor id passes through anonymously; an unknown role is
// rejected.
func Middleware(logger application.AppLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderActorID)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			role := RoleUser
			if raw := r.Header.Get(HeaderActorRole); raw != "" {
				parsed, ok := ParseRole(raw)
				if !ok {
					pkgInfra.WriteBadRequest(r.Context(), w, logger, "unknown actor role "+raw)
					return
				}
				role = parsed
			}

			ctx := WithActor(r.Context(), Actor{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
