package handler

import (
	"net/http"

	"github.com/msomdec/skill-match/internal/service"
)

// AuthHandler handles registration, email verification and login.
type AuthHandler struct {
	auth         *service.AuthService
	verification *service.VerificationService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, verification *service.VerificationService) *AuthHandler {
	return &AuthHandler{auth: auth, verification: verification}
}

// HandleRegister creates an unverified account and emails its code.
// POST /api/auth/register
// Request:  {"name":"...","email":"...","password":"..."}
// Response: 201 {"message":"...","user":{...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	user, err := h.verification.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered. Check your email to verify your account.",
		"user":    toUserDTO(user),
	})
}

// HandleVerifyEmail consumes a verification code.
// POST /api/auth/verify-email
// Request:  {"email":"...","code":"..."}
// Response: {"message":"...","alreadyVerified":bool}
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	already, err := h.verification.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, "verify email", err)
		return
	}

	msg := "Email verified successfully."
	if already {
		msg = "Email already verified."
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         msg,
		"alreadyVerified": already,
	})
}

// HandleResendVerification issues a fresh code.
// POST /api/auth/resend-verification-email
// Request:  {"email":"..."}
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	if err := h.verification.Resend(r.Context(), req.Email); err != nil {
		writeServiceError(w, "resend verification email", err)
		return
	}
	writeMessage(w, http.StatusOK, "Verification email resent successfully.")
}

// HandleCheckVerificationStatus reports whether an account is verified.
// GET /api/auth/check-verification-status?email=...
// Response: {"isVerified":bool}
func (h *AuthHandler) HandleCheckVerificationStatus(w http.ResponseWriter, r *http.Request) {
	verified, err := h.verification.CheckStatus(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, "check verification status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isVerified": verified})
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  toUserDTO(user),
		"token": token,
	})
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"user": {...}} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}
