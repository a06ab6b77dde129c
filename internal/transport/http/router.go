package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"quizdeck-service/internal/auth"
	"quizdeck-service/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// Router assembles the REST and websocket surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User", "X-Role"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.signup)
		r.Post("/auth/login", h.login)

		r.Get("/quizzes", h.listQuizzes)
		r.Get("/quizzes/{quiz}/questions", h.quizQuestions)
		r.Get("/quizzes/{quiz}/stats", h.stats)
		r.Get("/quizzes/{quiz}/breakdown", h.breakdown)
		r.Get("/quizzes/{quiz}/leaderboard", h.leaderboard)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/quizzes/{quiz}/attempts", h.startAttempt)
			r.Put("/attempts/{attemptID}/answers", h.answer)
			r.Post("/attempts/{attemptID}/submit", h.submit)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser, requireAdmin)
			r.Get("/drafts/questions", h.listStaged)
			r.Post("/drafts/questions", h.stageQuestion)
			r.Delete("/drafts/questions/{index}", h.removeStaged)
			r.Post("/drafts/publish", h.publishDraft)
		})
	})

	r.Get("/ws/leaderboard", h.serveLeaderboardWS)
	return r
}

// requireUser lifts the caller's identity out of the X-User/X-Role headers.
// Credential checking happened upstream at login; here the identity is
// trusted as the collaborator contract prescribes.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get("X-User")
		if username == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing X-User header"})
			return
		}
		identity := domain.UserIdentity{Username: username, Role: r.Header.Get("X-Role")}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r).Role != auth.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFrom(r *http.Request) domain.UserIdentity {
	identity, _ := r.Context().Value(identityKey).(domain.UserIdentity)
	return identity
}
