package repositories

import "github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"

// TokenRepository defines the interface for single-use action tokens.
type TokenRepository interface {
	// Replace upserts the token keyed by (user, purpose): any previously
	// issued token for that pair stops being valid.
	Replace(token *models.ActionToken) error
	// GetByToken resolves a token string without mutating it.
	GetByToken(value string) (*models.ActionToken, error)
	// ConsumeWithPasswordUpdate deletes the token row and sets the owning
	// user's password hash in one transaction. Returns ErrNotFound when
	// the row is already gone, which is how a lost consumption race
	// surfaces to the second caller.
	ConsumeWithPasswordUpdate(value string, passwordHash string) (*models.ActionToken, error)
	// ConsumeWithRolePromotion deletes the token row and updates the
	// owning user's role in one transaction. Same exactly-once contract.
	ConsumeWithRolePromotion(value string, role string) (*models.ActionToken, error)
}
