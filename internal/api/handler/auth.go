package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/poctrail/assistant/internal/api/middleware"
	"github.com/poctrail/assistant/internal/api/response"
	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/service"
)

var validate = validator.New()

var errBadJSON = errors.New("request body is not valid JSON")

// decodeValid unmarshals a JSON body into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadJSON
	}
	return validate.Struct(dst)
}

// badInput writes the 400 for a decodeValid failure.
func badInput(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadJSON) {
		response.BadRequest(w, errBadJSON.Error())
		return
	}
	response.BadRequest(w, validationErrors(err))
}

// validationErrors flattens validator output into field -> reason
func validationErrors(err error) any {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	out := make(map[string]string)
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			out[e.Field()] = "field is required"
		case "email":
			out[e.Field()] = "invalid email format"
		case "min":
			out[e.Field()] = "must be at least " + e.Param() + " characters"
		case "max":
			out[e.Field()] = "must be at most " + e.Param() + " characters"
		default:
			out[e.Field()] = "validation failed on " + e.Tag()
		}
	}
	return out
}

// AuthHandler serves registration, login, and token refresh.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a tenant together with its first user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := decodeValid(r, &input); err != nil {
		badInput(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		response.Conflict(w, err.Error())
	case err != nil:
		response.InternalError(w, "failed to register")
	default:
		response.Created(w, user)
	}
}

// Login exchanges credentials for a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := decodeValid(r, &input); err != nil {
		badInput(w, err)
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	case err != nil:
		response.InternalError(w, "failed to log in")
	default:
		response.OK(w, tokens)
	}
}

// Refresh exchanges a refresh token for a fresh pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := decodeValid(r, &input); err != nil {
		badInput(w, err)
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	case err != nil:
		response.InternalError(w, "failed to refresh tokens")
	default:
		response.OK(w, tokens)
	}
}

// Me returns the profile behind the presented access token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		response.InternalError(w, "failed to load user")
		return
	}
	if user == nil {
		response.Unauthorized(w, "user not found")
		return
	}

	response.OK(w, user)
}
