package domain

import "errors"

// Sentinel errors shared across services and handlers. Upstream failures are
// translated to these at the gateway boundary; callers never see raw provider
// payloads.
var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrSessionNotFound covers absent, expired, and closed sessions alike.
	// Callers cannot distinguish the three; the only recovery is starting a
	// new session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAssistantNotConfigured means the tenant has the assistant disabled
	// or has no upstream credential stored.
	ErrAssistantNotConfigured = errors.New("assistant not configured for tenant")

	// ErrUpstreamAuth means the stored credential was rejected by the model
	// service and an administrator has to replace it.
	ErrUpstreamAuth = errors.New("upstream credential rejected")

	// ErrUpstreamUnavailable is a transient upstream transport failure.
	ErrUpstreamUnavailable = errors.New("upstream model service unavailable")

	// ErrUpstreamRateLimited means the model service throttled the request.
	ErrUpstreamRateLimited = errors.New("upstream model service rate limited")

	// ErrConversationFull means the session reached its message cap.
	ErrConversationFull = errors.New("conversation message limit reached")

	// ErrInvalidCredentials is returned on failed login attempts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")
)
