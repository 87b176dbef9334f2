package service

import (
	"database/sql"
	"errors"
	"order-track-api/logger"
	"order-track-api/model"
	"order-track-api/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles user-related business logic: registration, credential
// verification, and password changes.
type UserService struct {
	userRepo  repository.IUserRepository
	authority *TokenAuthority
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository, authority *TokenAuthority) *UserService {
	return &UserService{userRepo: userRepo, authority: authority}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Register creates a new user with a hashed password.
func (s *UserService) Register(req *model.RegisterRequest) (*model.User, error) {
	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies an email/password pair against the stored hash and
// returns the live user record. Inactive accounts cannot log in.
func (s *UserService) Authenticate(email, password string) (*model.User, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// ChangePassword verifies the old password, stores the new hash, and revokes
// every outstanding session of the user. A changed password must not leave
// old refresh tokens usable.
func (s *UserService) ChangePassword(userID int, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(oldPassword, user.Password) {
		return ErrInvalidCredentials
	}

	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(userID, hashedPassword); err != nil {
		return err
	}

	return s.authority.OnPasswordChange(userID)
}
