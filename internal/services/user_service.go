package services

import (
	"fmt"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/repositories"
)

// UserService handles profile updates and the admin user dashboard.
type UserService struct {
	repo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// GetAllUsers retrieves all accounts (admin view).
func (s *UserService) GetAllUsers() ([]models.User, error) {
	return s.repo.GetAll()
}

// GetUserByID retrieves a single account.
func (s *UserService) GetUserByID(id string) (*models.User, error) {
	return s.repo.GetByID(id)
}

// UpdateProfile updates the caller's optional profile fields. Email,
// password, and role are managed by their own flows and never change
// here.
func (s *UserService) UpdateProfile(userID, name, phone, address, bio string) (*models.User, error) {
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	user.Phone = phone
	user.Address = address
	user.Bio = bio
	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account. Explicit admin action only; nothing in
// the normal lifecycle hard-deletes users.
func (s *UserService) DeleteUser(id string) error {
	return s.repo.Delete(id)
}
