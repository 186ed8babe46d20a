package hub

import (
	"database/sql"
	"strings"
	"time"

	"notesync/store"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"golang.org/x/crypto/bcrypt"
)

// User represents an authenticated account on the hub.
// Design choices:
// - GUID allows external references independent of the row id
// - Tenant scopes the account: usernames are unique per tenant, not globally
// - PasswordHash uses bcrypt and is never exposed in JSON
// - IsActive enables soft account disabling without deletion
type User struct {
	ID           int64          `json:"id"`
	GUID         string         `json:"guid"`
	Tenant       string         `json:"tenant"`
	Username     string         `json:"username"`
	Email        sql.NullString `json:"email"`
	PasswordHash string         `json:"-"` // Never exposed in JSON
	DisplayName  sql.NullString `json:"display_name"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastLoginAt  sql.NullTime   `json:"last_login_at"`
}

// CreateUsersTableSQL returns the DDL for the hub's users table.
// The unique constraint spans (tenant, username) so the same username
// can exist under different tenants.
const CreateUsersTableSQL = `
CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1;

CREATE TABLE IF NOT EXISTS users (
    id            BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
    guid          VARCHAR NOT NULL UNIQUE,
    tenant        VARCHAR NOT NULL,
    username      VARCHAR NOT NULL,
    email         VARCHAR,
    password_hash VARCHAR NOT NULL,
    display_name  VARCHAR,
    is_active     BOOLEAN DEFAULT true,
    created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_login_at TIMESTAMP,
    UNIQUE (tenant, username)
);

CREATE INDEX IF NOT EXISTS idx_users_tenant_username ON users(tenant, username);
`

// DropUsersTableSQL for testing and migration rollback
const DropUsersTableSQL = `
DROP TABLE IF EXISTS users;
DROP SEQUENCE IF EXISTS users_id_seq;
`

// UserRegisterInput contains the data required for user registration.
// Password is plaintext here; it will be hashed before storage.
type UserRegisterInput struct {
	Tenant      string  `json:"tenant"`
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
}

// UserLoginInput contains credentials for authentication
type UserLoginInput struct {
	Tenant   string `json:"tenant"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserOutput provides a JSON-friendly representation of a User.
// Excludes PasswordHash and converts NullString to pointers.
type UserOutput struct {
	ID          int64     `json:"id"`
	GUID        string    `json:"guid"`
	Tenant      string    `json:"tenant"`
	Username    string    `json:"username"`
	Email       *string   `json:"email,omitempty"`
	DisplayName *string   `json:"display_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToOutput converts a User to UserOutput for API responses
func (u *User) ToOutput() UserOutput {
	output := UserOutput{
		ID:        u.ID,
		GUID:      u.GUID,
		Tenant:    u.Tenant,
		Username:  u.Username,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	if u.Email.Valid {
		output.Email = &u.Email.String
	}
	if u.DisplayName.Valid {
		output.DisplayName = &u.DisplayName.String
	}

	return output
}

// Cost of 12 keeps login times reasonable (~250ms) while staying
// resistant to offline cracking
const bcryptCost = 12

// HashPassword creates a bcrypt hash of the plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", serr.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against its hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword checks if a password meets security requirements.
// Currently requires minimum 8 characters.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return serr.New("password must be at least 8 characters")
	}
	return nil
}

// ValidateUsername checks if a username is valid.
// Requires 3-50 characters, alphanumeric and underscores only.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return serr.New("username must be at least 3 characters")
	}
	if len(username) > 50 {
		return serr.New("username must be at most 50 characters")
	}
	for _, c := range username {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return serr.New("username can only contain letters, numbers, and underscores")
		}
	}
	return nil
}

// ValidateTenant checks if a tenant identifier is valid.
// Same character rules as usernames so keys built from the pair stay
// unambiguous.
func ValidateTenant(tenant string) error {
	if tenant == "" {
		return serr.New("tenant is required")
	}
	if len(tenant) > 50 {
		return serr.New("tenant must be at most 50 characters")
	}
	for _, c := range tenant {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return serr.New("tenant can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// CreateUser creates a new user in the database.
// Handles password hashing and GUID generation.
func CreateUser(input UserRegisterInput) (*User, error) {
	if err := ValidateTenant(input.Tenant); err != nil {
		return nil, err
	}
	if err := ValidateUsername(input.Username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	userGUID := uuid.New().String()

	var email sql.NullString
	if input.Email != nil && *input.Email != "" {
		email = sql.NullString{String: *input.Email, Valid: true}
	}

	var displayName sql.NullString
	if input.DisplayName != nil && *input.DisplayName != "" {
		displayName = sql.NullString{String: *input.DisplayName, Valid: true}
	}

	query := `
		INSERT INTO users (guid, tenant, username, email, password_hash, display_name)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, guid, tenant, username, email, password_hash, display_name, is_active,
		          created_at, updated_at, last_login_at
	`

	user := &User{}
	err = store.DB().QueryRow(query, userGUID, input.Tenant, input.Username, email, passwordHash, displayName).Scan(
		&user.ID, &user.GUID, &user.Tenant, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)

	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE") || strings.Contains(errStr, "unique") || strings.Contains(errStr, "duplicate") {
			return nil, serr.New("username already exists in this tenant")
		}
		return nil, serr.Wrap(err, "failed to create user")
	}

	return user, nil
}

// GetUserByUsername retrieves a user by tenant and username.
// Returns nil, nil if user not found.
func GetUserByUsername(tenant, username string) (*User, error) {
	query := `
		SELECT id, guid, tenant, username, email, password_hash, display_name, is_active,
		       created_at, updated_at, last_login_at
		FROM users
		WHERE tenant = ? AND username = ?
	`

	user := &User{}
	err := store.DB().QueryRow(query, tenant, username).Scan(
		&user.ID, &user.GUID, &user.Tenant, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, serr.Wrap(err, "failed to get user by username")
	}

	return user, nil
}

// GetUserByGUID retrieves a user by their GUID.
// Returns nil, nil if user not found.
func GetUserByGUID(guid string) (*User, error) {
	query := `
		SELECT id, guid, tenant, username, email, password_hash, display_name, is_active,
		       created_at, updated_at, last_login_at
		FROM users
		WHERE guid = ?
	`

	user := &User{}
	err := store.DB().QueryRow(query, guid).Scan(
		&user.ID, &user.GUID, &user.Tenant, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, serr.Wrap(err, "failed to get user by GUID")
	}

	return user, nil
}

// UpdateLastLogin updates the last_login_at timestamp for a user.
// Called after successful authentication.
func UpdateLastLogin(userID int64) error {
	query := `UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := store.DB().Exec(query, userID)
	if err != nil {
		return serr.Wrap(err, "failed to update last login")
	}
	return nil
}

// AuthenticateUser validates credentials and returns the user if valid.
// Returns nil, nil if credentials are invalid (caller decides how much
// to reveal); errors only for infrastructure failures.
func AuthenticateUser(input UserLoginInput) (*User, error) {
	user, err := GetUserByUsername(input.Tenant, input.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil // User not found
	}

	if !user.IsActive {
		return nil, serr.New("account is disabled")
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, nil // Invalid password
	}

	if err := UpdateLastLogin(user.ID); err != nil {
		logger.LogErr(err, "failed to update last login", "user", user.Username)
	}

	return user, nil
}
