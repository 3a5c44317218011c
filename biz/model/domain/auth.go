package domain

import "time"

const ProviderCredential = "credential"

type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	Image         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Accounts []*Account
}

type Session struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	IPAddress *string
	UserAgent *string
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Account is a login method of a user. Token and password columns are not
// carried here.
type Account struct {
	ID         string
	AccountID  string
	ProviderID string
	UserID     string
	Scope      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Verification struct {
	ID         string
	Identifier string
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
