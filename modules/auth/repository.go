package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/fillip1984/inveniam/domain/user"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *UserRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(id string) (*domain.User, error) {
	return r.findOne("id = ?", id)
}

// FindByEmail finds a user by email.
func (r *UserRepository) FindByEmail(email string) (*domain.User, error) {
	return r.findOne("email = ?", email)
}

func (r *UserRepository) findOne(query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// EmailExists checks if a user with the given email exists.
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	if err := r.db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

// UpdatePreferences stores the timezone and report opt-in of a user.
func (r *UserRepository) UpdatePreferences(id, timezone string, reportOptIn bool) error {
	result := r.db.Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"timezone": timezone, "report_opt_in": reportOptIn})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindReportRecipients returns users who opted in to the status digest.
func (r *UserRepository) FindReportRecipients() ([]domain.User, error) {
	var users []domain.User
	if err := r.db.Where("report_opt_in = ? AND email <> ''", true).Order("email").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find recipients: %w", err)
	}
	return users, nil
}
