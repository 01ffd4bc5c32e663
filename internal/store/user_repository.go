package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"image_editor/internal/domain"
	"image_editor/internal/errs"
)

// ErrDuplicateKey is returned by Create when a unique index rejects the row.
var ErrDuplicateKey = errors.New("duplicate key")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(repo *UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}

// Projects returns a project repository sharing this repository's connection or transaction.
func (r *UserRepository) Projects() *ProjectRepository {
	return &ProjectRepository{db: r.db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Omit("Projects").Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// ByUsername matches the username exactly, even on case-insensitive collations.
func (r *UserRepository) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *UserRepository) ByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.ByUsername(ctx, username)
	return found(err)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Find(&users).Error; err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the user and everything the user owns. It returns the ids of
// the removed projects.
func (r *UserRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	projectIDs, err := r.Projects().DeleteByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrNotFound
	}
	return projectIDs, nil
}

func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errs.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
