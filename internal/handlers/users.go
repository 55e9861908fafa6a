package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/service"
	"github.com/itsDrac/e-auc-live/pkg/config"
)

type UserHandler struct {
	userService service.UserServicer
	authService service.AuthServicer
	debug       bool
}

func NewUserHandler(userSvc service.UserServicer, authSvc service.AuthServicer, debug bool) (*UserHandler, error) {
	return &UserHandler{
		userService: userSvc,
		authService: authSvc,
		debug:       debug,
	}, nil
}

// RegisterUser godoc
//
//	@Summary		Register a new User
//	@Description	Register a new user with email, username, and password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			user	body		model.CreateUserRequest	true	"User registration details"
//	@Success		201		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		409		{object}	map[string]any
//	@Router			/auth/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userId, err := h.authService.Register(r.Context(), req)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"user_id": userId.String(),
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "user registered successfully", resp)
}

// LoginUser godoc
//
//	@Summary		Login a User
//	@Description	Login a user with username and password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		model.LoginUserRequest	true	"User login credentials"
//	@Success		200			{object}	map[string]any
//	@Failure		400			{object}	map[string]any
//	@Failure		401			{object}	map[string]any
//	@Router			/auth/login [post]
func (h *UserHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req model.LoginUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}

	setRefreshTokenCookie(w, tokens.RefreshToken, time.Now().Add(config.RefreshTokenDuration))

	resp := map[string]any{
		"access_token": tokens.AccessToken,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Login successful", resp)
}

// RefreshToken godoc
//
//	@Summary		Refresh Access Token
//	@Description	Rotate the refresh token cookie and issue a new access token
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/auth/refresh [post]
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(config.RefreshTokenCookieName)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrMissingCookie.Error(), "Refresh token cookie missing", nil)
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	setRefreshTokenCookie(w, tokens.RefreshToken, time.Now().Add(config.RefreshTokenDuration))

	resp := map[string]any{
		"access_token": tokens.AccessToken,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "token refreshed successfully", resp)
}

// LogoutUser godoc
//
//	@Summary		Logout User
//	@Description	Blacklist the access token, retire the refresh token and clear its cookie
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/auth/logout [post]
func (h *UserHandler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := BearerToken(r)
	if !ok {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrMissingToken.Error(), "Missing token in the Authorization header", nil)
		return
	}
	refreshToken := ""
	if cookie, err := r.Cookie(config.RefreshTokenCookieName); err == nil {
		refreshToken = cookie.Value
	}

	if err := h.authService.Logout(r.Context(), accessToken, refreshToken); err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}

	setRefreshTokenCookie(w, "", time.Unix(0, 0))
	RespondSuccessJSON(w, r, http.StatusOK, "Logged out successfully", "")
}

// Profile godoc
//
//	@Summary		Get User Profile
//	@Description	Retrieve the profile information of the authenticated user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		404	{object}	map[string]any
//	@Router			/users/me [get]
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}

	RespondSuccessJSON(w, r, http.StatusOK, "Profile data fetched successfully", user)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setRefreshTokenCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.RefreshTokenCookieName,
		Value:    token,
		Expires:  expiry,
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	})
}
