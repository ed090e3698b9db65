package handler

import (
	"context"
	"net/http"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/usecase"
)

// AccountFlows is what the account endpoints need from the account service.
type AccountFlows[P domain.Principal] interface {
	Kind() string
	Signup(ctx context.Context, form domain.SignupForm, image *usecase.Upload) (P, error)
	VerifyEmail(ctx context.Context, email, code string) (string, P, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (string, P, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, password, confirm string) error
	GetProfile(ctx context.Context, id string) (P, error)
	UpdateProfile(ctx context.Context, id string, patch map[string]string, image *usecase.Upload) (P, error)
	ChangePassword(ctx context.Context, id, oldPassword, password, confirm string) error
	Logout(ctx context.Context, token string) error
}

// AccountHandler serves the signup, verification and profile endpoints of
// one principal kind.
type AccountHandler[P domain.Principal] struct {
	svc       AccountFlows[P]
	maxUpload int64
	log       *logger.Logger
}

func NewAccountHandler[P domain.Principal](svc AccountFlows[P], maxUpload int64, log *logger.Logger) *AccountHandler[P] {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &AccountHandler[P]{svc: svc, maxUpload: maxUpload, log: log.Named("AccountHandler." + svc.Kind())}
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type principalSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func summarize(p domain.Principal) principalSummary {
	acc := p.Account()
	return principalSummary{ID: acc.ID.Hex(), Email: acc.Email, Role: p.Role()}
}

func (h *AccountHandler[P]) limitBody(w http.ResponseWriter, r *http.Request) {
	// Leave room for the text fields of a multipart form.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
}

func (h *AccountHandler[P]) Signup(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	form, image, err := readForm(r, h.maxUpload)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.svc.Signup(r.Context(), form, image)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Signup successful. Please verify your email.",
		"id":      p.Account().ID.Hex(),
	})
}

func (h *AccountHandler[P]) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Email == "" || req.OTP == "" {
		writeMessage(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}
	token, p, err := h.svc.VerifyEmail(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Account verified successfully",
		"token":   token,
		"user":    summarize(p),
	})
}

func (h *AccountHandler[P]) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.svc.ResendOTP(r.Context(), req.Email); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "New OTP sent successfully")
}

func (h *AccountHandler[P]) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	token, p, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"data":    p,
	})
}

func (h *AccountHandler[P]) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset OTP sent to your email.")
}

func (h *AccountHandler[P]) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Email == "" || req.OTP == "" {
		writeMessage(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Email, req.OTP, req.Password, req.ConfirmPassword); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully")
}

func (h *AccountHandler[P]) GetProfile(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	p, err := h.svc.GetProfile(r.Context(), c.Subject)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

func (h *AccountHandler[P]) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	h.limitBody(w, r)
	patch, image, err := readForm(r, h.maxUpload)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), c.Subject, patch, image)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"data":    p,
	})
}

func (h *AccountHandler[P]) ChangePassword(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), c.Subject, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully")
}

func (h *AccountHandler[P]) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.svc.Logout(r.Context(), token); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
