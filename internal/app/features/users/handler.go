// Package users implements registration, login, e-mail verification,
// password recovery, and profile self-service.
package users

import (
	"encoding/json"
	"net/http"
	"time"

	newsletterstore "github.com/instiq/caritas/internal/app/store/newsletter"
	userstore "github.com/instiq/caritas/internal/app/store/users"
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Token lifetimes for the one-time e-mail credentials.
const (
	VerifyTokenTTL = 24 * time.Hour
	ResetTokenTTL  = time.Hour
)

// Handler holds the dependencies for the user endpoints.
type Handler struct {
	Users      *userstore.Store
	Newsletter *newsletterstore.Store
	Tokens     *auth.TokenManager
	Bus        *events.Bus
	Log        *zap.Logger
}

// NewHandler constructs a users Handler over the given database.
func NewHandler(db *mongo.Database, tokens *auth.TokenManager, bus *events.Bus, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Newsletter: newsletterstore.New(db),
		Tokens:     tokens,
		Bus:        bus,
		Log:        logger,
	}
}

type registerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

// HandleRegister creates an account, subscribes the e-mail to the
// newsletter, and mails the verification link. The session token comes back
// in the x-auth-token header so the client is signed in immediately.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}

	if msg := inputval.First(
		inputval.NameLen("First name", req.FirstName),
		inputval.NameLen("Last name", req.LastName),
		inputval.Email(req.Email),
		inputval.Password(req.Password),
	); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user register")
	defer cancel()

	user, verifyToken, err := h.Users.Create(ctx, models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	}, req.Password, VerifyTokenTTL)
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			httpapi.Fail(w, h.Log, httpapi.Conflict("A user with this email already exists."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	// Registration doubles as a newsletter opt-in. Best effort.
	if _, err := h.Newsletter.Subscribe(ctx, user.Email); err != nil && err != newsletterstore.ErrAlreadySubscribed {
		h.Log.Warn("newsletter subscribe on register failed",
			zap.String("email", user.Email),
			zap.Error(err))
	}

	h.Bus.Publish(events.UserRegistered{User: user, PlainVerifyToken: verifyToken})

	token, err := h.Tokens.Issue(&user)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	w.Header().Set(auth.HeaderName, token)
	httpapi.OK(w, "Registration successful. Please check your email to verify your account.", user)
}

// HandleVerifyEmail consumes the mailed verification token.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "verify email")
	defer cancel()

	user, err := h.Users.VerifyEmail(ctx, token)
	if err != nil {
		if err == userstore.ErrTokenInvalid {
			httpapi.Fail(w, h.Log, httpapi.Validation("The verification link is invalid or has expired."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Email verified successfully.", user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates and hands out the session token. An account that
// has not verified its e-mail gets 206 with empty data: signed-in-but-gated.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user login")
	defer cancel()

	user, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if err == userstore.ErrInvalidCredentials {
			httpapi.Fail(w, h.Log, httpapi.Validation("Invalid email or password."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	w.Header().Set(auth.HeaderName, token)

	if !user.IsEmailVerified {
		httpapi.Status(w, http.StatusPartialContent, "success",
			"Please verify your email address to continue.")
		return
	}
	httpapi.OK(w, "Login successful.", user)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword mints a reset token and mails the link.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.Email(req.Email); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "forgot password")
	defer cancel()

	user, resetToken, err := h.Users.MintResetToken(ctx, req.Email, ResetTokenTTL)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("We could not find a user with that email address."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Bus.Publish(events.PasswordResetRequested{User: *user, PlainResetToken: resetToken})
	httpapi.OK(w, "A password reset link has been sent to your email address.", []interface{}{})
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

// HandleUpdatePassword consumes the mailed reset token and installs the new
// password.
func (h *Handler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.Password(req.Password); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update password")
	defer cancel()

	user, err := h.Users.ResetPassword(ctx, token, req.Password)
	if err != nil {
		if err == userstore.ErrTokenInvalid {
			httpapi.Fail(w, h.Log, httpapi.Validation("The reset link is invalid or has expired."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Password updated successfully.", user)
}

// HandleMe returns the caller's profile.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to view your profile."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load profile")
	defer cancel()

	user, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("User not found."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "", user)
}

type updateProfileRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Address       string `json:"address"`
	PhoneNumber   string `json:"phone_number"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
	AccountName   string `json:"account_name"`
}

// HandleUpdateMe replaces the caller's editable profile fields.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to update your profile."))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.First(
		inputval.NameLen("First name", req.FirstName),
		inputval.NameLen("Last name", req.LastName),
	); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update profile")
	defer cancel()

	err := h.Users.UpdateProfile(ctx, p.UserID, userstore.ProfileUpdate{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Address:       req.Address,
		PhoneNumber:   req.PhoneNumber,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountType:   req.AccountType,
		AccountName:   req.AccountName,
	})
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	user, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Profile updated successfully.", user)
}
