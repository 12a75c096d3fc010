package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Username and password constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

// Password validation messages.
const (
	MsgPasswordTooShort = "Password must be at least 6 characters long"
	MsgPasswordTooLong  = "Password must be at most 72 bytes long"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// User represents a registered user of the task manager.
// It contains essential user information and authentication details.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used only while registering
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUser creates an active User with a fresh ID. The email is normalized and
// the username trimmed before validation.
//
// NOTE: The user carries the plaintext password; the credential store hashes
// it before the record is written.
func NewUser(username, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Username:  strings.TrimSpace(username),
		Email:     NormalizeEmail(email),
		Password:  password,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidUsername reports whether s satisfies the username length and charset rules.
func ValidUsername(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinUsernameLength && n <= MaxUsernameLength && usernamePattern.MatchString(s)
}

// Validate checks if the User has valid data.
// Returns a *ValidationError listing every invalid field.
func (u *User) Validate() error {
	verr := &ValidationError{}

	if u.ID == uuid.Nil {
		verr.Add("id", "User ID cannot be empty", nil)
	}

	if !ValidUsername(u.Username) {
		verr.Add("username",
			"Username must be 3-30 characters and contain only letters, numbers, and underscores",
			u.Username)
	}

	if u.Email == "" || !emailPattern.MatchString(u.Email) {
		verr.Add("email", "Please provide a valid email", u.Email)
	}

	// A plaintext password is only present before the first write; stored
	// users carry the hash instead.
	if u.Password != "" {
		switch n := len(u.Password); {
		case n < MinPasswordLength:
			verr.Add("password", MsgPasswordTooShort, nil)
		case n > MaxPasswordLength:
			verr.Add("password", MsgPasswordTooLong, nil)
		}
	} else if u.HashedPassword == "" {
		verr.Add("password", "Password is required", nil)
	}

	return verr.OrNil()
}

// Sanitized returns a copy of the user without any password material,
// suitable for attaching to a request context or returning to a client.
func (u *User) Sanitized() *User {
	clone := *u
	clone.Password = ""
	clone.HashedPassword = ""
	return &clone
}
