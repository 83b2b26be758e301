package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/config"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/repositories"
)

// resetHashCost is the bcrypt cost used when a password is set through
// the reset flow.
const resetHashCost = 12

// TokenService issues, validates, and consumes single-use, time-bound
// tokens for password reset and email verification. Both flows share the
// same mechanics and differ only in purpose and TTL.
type TokenService struct {
	tokenRepo repositories.TokenRepository
	userRepo  repositories.UserRepository
	mailer    Mailer
	baseURL   string
	resetTTL  time.Duration
	verifyTTL time.Duration
}

// NewTokenService creates a new TokenService.
func NewTokenService(tokenRepo repositories.TokenRepository, userRepo repositories.UserRepository, mailer Mailer, cfg config.Config) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		mailer:    mailer,
		baseURL:   cfg.PublicBaseURL,
		resetTTL:  cfg.ResetTokenTTL,
		verifyTTL: cfg.VerifyTokenTTL,
	}
}

// generateToken returns 32 random bytes hex-encoded (256 bits of entropy).
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ttlFor maps a purpose to its TTL.
func (s *TokenService) ttlFor(purpose string) time.Duration {
	if purpose == models.PurposeVerify {
		return s.verifyTTL
	}
	return s.resetTTL
}

// IssueToken creates a fresh token for the user behind the given email,
// replacing any live token of the same purpose, and emails an action link.
// An unknown email is NOT an error: the call reports success and does
// nothing, so callers cannot probe which addresses are registered. Mail
// delivery is best-effort; a send failure is logged and issuance still
// succeeds.
func (s *TokenService) IssueToken(email, purpose string) error {
	user, err := s.userRepo.GetByEmail(strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Token issuance requested for unknown email, ignoring")
			return nil
		}
		return fmt.Errorf("failed to resolve user for token issuance: %w", err)
	}

	value, err := generateToken()
	if err != nil {
		return err
	}

	token := &models.ActionToken{
		UserID:    user.ID,
		Purpose:   purpose,
		Token:     value,
		ExpiresAt: time.Now().Add(s.ttlFor(purpose)),
	}
	if err := s.tokenRepo.Replace(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	subject, body := s.composeMail(user, purpose, value)
	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		log.Printf("Warning: failed to send %s mail to user %s: %v", purpose, user.ID, err)
	}
	return nil
}

func (s *TokenService) composeMail(user *models.User, purpose, value string) (subject, body string) {
	switch purpose {
	case models.PurposeVerify:
		link := fmt.Sprintf("%s/api/v1/auth/verify?token=%s", s.baseURL, url.QueryEscape(value))
		return "Verify your email",
			fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening this link:\n%s\n\nThe link expires in %s.", user.Name, link, s.verifyTTL)
	default:
		link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, url.QueryEscape(value))
		return "Reset your password",
			fmt.Sprintf("Hi %s,\n\nReset your password by opening this link:\n%s\n\nThe link expires in %s. If you did not request this, ignore this mail.", user.Name, link, s.resetTTL)
	}
}

// live is the single token-liveness predicate: a token counts as valid
// only if the row exists AND it is not past its expiry. Both validation
// and consumption go through it.
func (s *TokenService) live(value string) (*models.ActionToken, error) {
	token, err := s.tokenRepo.GetByToken(value)
	if err != nil {
		return nil, err
	}
	if token.Expired() {
		return nil, fmt.Errorf("token for user %s: %w", token.UserID, ErrTokenExpired)
	}
	return token, nil
}

// ValidateToken reports whether a token is live without consuming it.
// Used by the reset-password UI before showing the form.
func (s *TokenService) ValidateToken(value string) (*models.ActionToken, error) {
	return s.live(value)
}

// ConsumeResetToken sets a new password for the token's owner and burns
// the token. The password update and the token deletion commit in the
// same transaction, so a token never survives a successful consumption;
// of two racing calls at most one succeeds and the other sees NotFound.
func (s *TokenService) ConsumeResetToken(value, newPassword string) error {
	token, err := s.live(value)
	if err != nil {
		return err
	}
	if token.Purpose != models.PurposeReset {
		return fmt.Errorf("token has purpose %s: %w", token.Purpose, repositories.ErrNotFound)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), resetHashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.tokenRepo.ConsumeWithPasswordUpdate(value, string(hash)); err != nil {
		return err
	}
	return nil
}

// ConsumeVerifyToken promotes the token's owner from unverified to user
// and burns the token, atomically.
func (s *TokenService) ConsumeVerifyToken(value string) (*models.ActionToken, error) {
	token, err := s.live(value)
	if err != nil {
		return nil, err
	}
	if token.Purpose != models.PurposeVerify {
		return nil, fmt.Errorf("token has purpose %s: %w", token.Purpose, repositories.ErrNotFound)
	}

	return s.tokenRepo.ConsumeWithRolePromotion(value, models.RoleUser)
}
