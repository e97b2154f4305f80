package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	maxBodyBytes = 1 << 20
)

// Handler exposes the auth flows over HTTP (register / login / refresh / logout).
type Handler struct {
	svc          *Service
	logger       *zap.SugaredLogger
	validate     *validator.Validate
	secure       bool
	exposeErrors bool
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewHandler(svc *Service, cfg *config.Config, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		svc:          svc,
		logger:       logger,
		validate:     newValidator(),
		secure:       cfg.IsProduction(),
		exposeErrors: !cfg.IsProduction(),
		accessTTL:    cfg.Token.AccessTTL,
		refreshTTL:   cfg.Token.RefreshTTL,
	}
}

// RegisterRequest request body for the register endpoint.
type RegisterRequest struct {
	Email       string             `json:"email" validate:"required,max=50,email"`
	Password    string             `json:"password" validate:"required,min=8,pwbytes"`
	Role        string             `json:"role" validate:"omitempty,oneof=admin user"`
	FirstName   string             `json:"firstName" validate:"omitempty,max=20"`
	LastName    string             `json:"lastName" validate:"omitempty,max=20"`
	SocialLinks entity.SocialLinks `json:"socialLinks"`
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=50,email"`
	Password string `json:"password" validate:"required,min=8,pwbytes"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Message      string         `json:"message"`
	User         entity.Summary `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Errors  fieldErrors `json:"errors,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if errs := validateBody(h.validate, &req); errs != nil {
		h.writeValidation(w, errs)
		return
	}

	sess, err := h.svc.Register(r.Context(), user.NewUser{
		Email:       req.Email,
		Password:    req.Password,
		Role:        entity.Role(req.Role),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			h.writeValidation(w, fieldErrors{"email": {Msg: "User email already exists.", Path: "email", Location: "body"}})
			return
		case errors.Is(err, user.ErrPasswordTooLong):
			h.writeValidation(w, fieldErrors{"password": {Msg: messages["password.pwbytes"], Path: "password", Location: "body"}})
			return
		}
		h.serverError(w, "Error during user registration", err)
		return
	}
	h.writeSession(w, "New user created", sess)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if errs := validateBody(h.validate, &req); errs != nil {
		h.writeValidation(w, errs)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			h.writeJSON(w, http.StatusNotFound, errorResponse{Code: "NotFound", Message: "User not found"})
		case errors.Is(err, user.ErrBadCredentials):
			h.logger.Debugw("login failed", "err", err)
			h.writeValidation(w, fieldErrors{"password": {Msg: "User email or password is invalid", Path: "password", Location: "body"}})
		default:
			h.serverError(w, "Error during user login", err)
		}
		return
	}
	h.writeSession(w, "User logged in", sess)
}

// RefreshToken issues a new access token for the refreshToken cookie.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	rt, errs := refreshCookie(r)
	if errs != nil {
		h.writeValidation(w, errs)
		return
	}

	access, exp, err := h.svc.Refresh(r.Context(), rt)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "AuthenticationError", Message: "Refresh token expired, please login again"})
		case errors.Is(err, ErrRefreshRevoked), errors.Is(err, token.ErrInvalid):
			h.logger.Debugw("refresh rejected", "err", err)
			h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "AuthenticationError", Message: "Invalid refresh token"})
		default:
			h.serverError(w, "Error during token refresh", err)
		}
		return
	}
	h.setCookie(w, AccessCookie, access, time.Until(exp))
	h.writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// Logout revokes the refresh token from the cookie, if any, and clears both cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		if err := h.svc.Logout(r.Context(), c.Value); err != nil {
			h.serverError(w, "Error during logout", err)
			return
		}
	}
	h.setCookie(w, AccessCookie, "", -1)
	h.setCookie(w, RefreshCookie, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func refreshCookie(r *http.Request) (string, fieldErrors) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		return "", fieldErrors{RefreshCookie: {Msg: "Refresh token is required", Path: RefreshCookie, Location: "cookies"}}
	}
	if !token.WellFormed(c.Value) {
		return "", fieldErrors{RefreshCookie: {Msg: "Invalid refresh token", Path: RefreshCookie, Location: "cookies"}}
	}
	return c.Value, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debugw("invalid payload", "err", err)
		h.writeValidation(w, fieldErrors{"body": {Msg: "Invalid request body", Path: "body", Location: "body"}})
		return false
	}
	return true
}

func (h *Handler) writeSession(w http.ResponseWriter, message string, sess *Session) {
	h.setCookie(w, RefreshCookie, sess.Tokens.RefreshToken, h.refreshTTL)
	h.setCookie(w, AccessCookie, sess.Tokens.AccessToken, h.accessTTL)
	h.writeJSON(w, http.StatusCreated, SessionResponse{
		Message:      message,
		User:         sess.User.Summary(),
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	})
}

// setCookie writes an http-only, same-site strict cookie. A negative ttl deletes it.
func (h *Handler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) writeValidation(w http.ResponseWriter, errs fieldErrors) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Code: "ValidationError", Errors: errs})
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Errorw(msg, "err", err)
	resp := errorResponse{Code: "ServerError", Message: "Internal server error"}
	if h.exposeErrors {
		resp.Error = err.Error()
	}
	h.writeJSON(w, http.StatusInternalServerError, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
