package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/oilledger/internal/domain"
)

// ActivityRecorder stores activity entries and reports whether one was kept.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *domain.ActivityLog) (bool, error)
}

// Activity records each request an authenticated user makes. It must run
// after Authenticate. Requests running as the system actor are not recorded
// and a failed write never changes the response.
func Activity(recorder ActivityRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := domain.ActorFromContext(r.Context())
			if !ok || actor.ID == domain.SystemActor.ID {
				next.ServeHTTP(w, r)
				return
			}

			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			route := routePattern(r)
			entry := &domain.ActivityLog{
				ActorID:    actor.ID,
				ActorName:  actor.Name,
				Action:     activityAction(r.Method, route),
				Method:     r.Method,
				Route:      route,
				Path:       r.URL.Path,
				ResourceID: resourceID(r),
				RequestID:  chimiddleware.GetReqID(r.Context()),
				IPAddress:  clientIP(r),
				UserAgent:  r.UserAgent(),
				Status:     domain.ActivityStatusFromCode(wrapped.statusCode),
				StatusCode: wrapped.statusCode,
			}

			if _, err := recorder.Record(context.WithoutCancel(r.Context()), entry); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
			}
		})
	}
}

// activityAction names a request after the static segments of its route,
// e.g. PUT /api/v1/clients/{id}/balance becomes clients.balance.update.
func activityAction(method, route string) string {
	route = strings.TrimPrefix(route, "/api/v1")

	var parts []string
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || seg == "*" || strings.HasPrefix(seg, "{") {
			continue
		}
		parts = append(parts, seg)
	}

	if len(parts) == 0 || route == "unmatched" {
		parts = []string{"unknown"}
	}

	return strings.Join(append(parts, domain.ActivityVerb(method)), ".")
}

func resourceID(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	return chi.URLParam(r, "prefix")
}
