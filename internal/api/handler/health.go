package handler

import (
	"net/http"

	"github.com/poctrail/assistant/internal/api/response"
	"github.com/poctrail/assistant/internal/llm"
	"github.com/poctrail/assistant/internal/repository/postgres"
	"github.com/poctrail/assistant/internal/repository/redis"
	"github.com/poctrail/assistant/internal/session"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness including database and Redis connectivity
func ReadyCheck(db *postgres.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.ServiceUnavailable(w, "database not ready")
			return
		}
		if err := redisClient.Ping(r.Context()); err != nil {
			response.ServiceUnavailable(w, "redis not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListProviders returns the registered model providers
func ListProviders(providers *llm.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        providers.Names(),
			"default_provider": providers.DefaultName(),
		})
	}
}

// Stats reports live session counts, for operators poking at a node
func Stats(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"live_sessions": registry.Len(),
		})
	}
}

// FlushConfigCache clears every cached tenant assistant config
func FlushConfigCache(cache *redis.ConfigCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := cache.FlushAll(r.Context())
		if err != nil {
			response.InternalError(w, "failed to flush cache")
			return
		}

		response.OK(w, map[string]any{
			"message":      "cache flushed",
			"keys_deleted": deleted,
		})
	}
}
