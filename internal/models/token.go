package models

import "time"

// Token purposes. Both flows prove control of an email address; they
// differ only in TTL and in what consumption does.
const (
	PurposeReset  = "reset"
	PurposeVerify = "verify"
)

// ActionToken is a single-use, time-bound secret bound to one user.
// At most one live token exists per (user, purpose); issuing a new one
// replaces the old row.
type ActionToken struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"index:idx_token_user_purpose,unique;type:varchar(36)"`
	Purpose   string    `json:"purpose" gorm:"index:idx_token_user_purpose,unique;type:varchar(10)"`
	Token     string    `json:"-" gorm:"uniqueIndex;type:varchar(64);not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token is past its expiry. Every read of a
// token must go through this check before treating it as valid.
func (t *ActionToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}
