package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
)

// GORMTokenRepository is a GORM implementation of TokenRepository.
type GORMTokenRepository struct {
	db *gorm.DB
}

// NewGORMTokenRepository creates a new instance of GORMTokenRepository.
func NewGORMTokenRepository(db *gorm.DB) *GORMTokenRepository {
	return &GORMTokenRepository{
		db: db,
	}
}

// Replace upserts a token by (user, purpose). An existing row is
// overwritten in place so the old token string stops resolving.
func (r *GORMTokenRepository) Replace(token *models.ActionToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ActionToken
		err := tx.Where("user_id = ? AND purpose = ?", token.UserID, token.Purpose).First(&existing).Error
		if err == nil {
			existing.Token = token.Token
			existing.ExpiresAt = token.ExpiresAt
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to replace token: %w", err)
			}
			*token = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up token for replacement: %w", err)
		}
		if err := tx.Create(token).Error; err != nil {
			return fmt.Errorf("failed to create token: %w", err)
		}
		return nil
	})
}

// GetByToken resolves a token string. Pure read.
func (r *GORMTokenRepository) GetByToken(value string) (*models.ActionToken, error) {
	var token models.ActionToken
	if err := r.db.First(&token, "token = ?", value).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// consume deletes the token row and applies the given user update in one
// transaction. The delete is keyed on the token string itself, so two
// racing consumers can never both succeed: the second delete affects zero
// rows and the transaction fails with ErrNotFound.
func (r *GORMTokenRepository) consume(value string, update func(tx *gorm.DB, t *models.ActionToken) error) (*models.ActionToken, error) {
	var consumed models.ActionToken
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&consumed, "token = ?", value).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("token: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to get token for consumption: %w", err)
		}

		res := tx.Delete(&models.ActionToken{}, "token = ?", value)
		if res.Error != nil {
			return fmt.Errorf("failed to delete token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("token already consumed: %w", ErrNotFound)
		}

		return update(tx, &consumed)
	})
	if err != nil {
		return nil, err
	}
	return &consumed, nil
}

// ConsumeWithPasswordUpdate deletes the token and sets the owner's
// password hash atomically.
func (r *GORMTokenRepository) ConsumeWithPasswordUpdate(value string, passwordHash string) (*models.ActionToken, error) {
	return r.consume(value, func(tx *gorm.DB, t *models.ActionToken) error {
		res := tx.Model(&models.User{}).Where("id = ?", t.UserID).Update("password", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("failed to update password for user %s: %w", t.UserID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %s: %w", t.UserID, ErrNotFound)
		}
		return nil
	})
}

// ConsumeWithRolePromotion deletes the token and updates the owner's role
// atomically.
func (r *GORMTokenRepository) ConsumeWithRolePromotion(value string, role string) (*models.ActionToken, error) {
	return r.consume(value, func(tx *gorm.DB, t *models.ActionToken) error {
		res := tx.Model(&models.User{}).Where("id = ?", t.UserID).Update("role", role)
		if res.Error != nil {
			return fmt.Errorf("failed to update role for user %s: %w", t.UserID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %s: %w", t.UserID, ErrNotFound)
		}
		return nil
	})
}
