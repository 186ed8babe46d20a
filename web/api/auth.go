package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"notesync/hub"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
)

// AuthResponse contains the user and token returned on successful authentication
type AuthResponse struct {
	User  hub.UserOutput `json:"user"`
	Token string         `json:"token"`
}

// Register creates a new user account and returns a JWT token.
// POST /api/v1/auth/register
//
// Request body:
//
//	{
//	  "tenant": "home",
//	  "username": "johndoe",
//	  "password": "SecurePass123!",
//	  "email": "john@example.com",      // optional
//	  "display_name": "John Doe"        // optional
//	}
//
// Errors:
//   - 400: Invalid input (missing/weak password, invalid username or tenant)
//   - 409: Username already exists in the tenant
func Register(ctx rweb.Context) error {
	var input hub.UserRegisterInput
	if err := json.Unmarshal(ctx.Request().Body(), &input); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if input.Tenant == "" {
		return writeError(ctx, http.StatusBadRequest, "tenant is required")
	}
	if input.Username == "" {
		return writeError(ctx, http.StatusBadRequest, "username is required")
	}
	if input.Password == "" {
		return writeError(ctx, http.StatusBadRequest, "password is required")
	}

	user, err := hub.CreateUser(input)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "already exists") {
			return writeError(ctx, http.StatusConflict, errMsg)
		}
		if strings.Contains(errMsg, "must be") || strings.Contains(errMsg, "can only") || strings.Contains(errMsg, "required") {
			return writeError(ctx, http.StatusBadRequest, errMsg)
		}
		logger.LogErr(serr.Wrap(err, "failed to create user"), "username", input.Username)
		return writeError(ctx, http.StatusInternalServerError, "failed to create user")
	}

	token, err := hub.GenerateToken(user)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to generate token"), "user_guid", user.GUID)
		return writeError(ctx, http.StatusInternalServerError, "failed to generate token")
	}

	return writeSuccess(ctx, http.StatusCreated, AuthResponse{
		User:  user.ToOutput(),
		Token: token,
	})
}

// Login authenticates a user and returns a JWT token.
// POST /api/v1/auth/login
//
// Request body:
//
//	{
//	  "tenant": "home",
//	  "username": "johndoe",
//	  "password": "SecurePass123!"
//	}
//
// Errors:
//   - 400: Missing tenant, username, or password
//   - 401: Invalid credentials
//   - 403: Account is disabled
func Login(ctx rweb.Context) error {
	var input hub.UserLoginInput
	if err := json.Unmarshal(ctx.Request().Body(), &input); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if input.Tenant == "" {
		return writeError(ctx, http.StatusBadRequest, "tenant is required")
	}
	if input.Username == "" {
		return writeError(ctx, http.StatusBadRequest, "username is required")
	}
	if input.Password == "" {
		return writeError(ctx, http.StatusBadRequest, "password is required")
	}

	user, err := hub.AuthenticateUser(input)
	if err != nil {
		if strings.Contains(err.Error(), "disabled") {
			return writeError(ctx, http.StatusForbidden, "account is disabled")
		}
		logger.LogErr(serr.Wrap(err, "authentication error"), "username", input.Username)
		return writeError(ctx, http.StatusInternalServerError, "authentication error")
	}

	if user == nil {
		// Don't reveal whether the username exists
		return writeError(ctx, http.StatusUnauthorized, "invalid credentials")
	}

	token, err := hub.GenerateToken(user)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to generate token"), "user_guid", user.GUID)
		return writeError(ctx, http.StatusInternalServerError, "failed to generate token")
	}

	return writeSuccess(ctx, http.StatusOK, AuthResponse{
		User:  user.ToOutput(),
		Token: token,
	})
}

// RefreshToken generates a new JWT token for the authenticated user.
// POST /api/v1/auth/refresh
func RefreshToken(ctx rweb.Context) error {
	userGUID := GetCurrentUserGUID(ctx)
	if userGUID == "" {
		return writeError(ctx, http.StatusUnauthorized, "authentication required")
	}

	user, err := hub.GetUserByGUID(userGUID)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to get user"), "user_guid", userGUID)
		return writeError(ctx, http.StatusInternalServerError, "failed to get user")
	}
	if user == nil {
		return writeError(ctx, http.StatusUnauthorized, "user not found")
	}
	if !user.IsActive {
		return writeError(ctx, http.StatusForbidden, "account is disabled")
	}

	token, err := hub.GenerateToken(user)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to generate token"), "user_guid", user.GUID)
		return writeError(ctx, http.StatusInternalServerError, "failed to generate token")
	}

	return writeSuccess(ctx, http.StatusOK, map[string]string{"token": token})
}
