// Package auth is the credential store: account registration and password verification.
// Session issuance lives with the HTTP layer.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"image_editor/internal/domain"
	"image_editor/internal/errs"
	"image_editor/internal/store"
	"image_editor/internal/utils"
)

// CredentialStore registers users and verifies their passwords.
type CredentialStore struct {
	users *store.UserRepository
	cost  int
	rdb   *redis.Client

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore builds the store. rdb is the project load cache, used to drop
// a deleted user's entries; it may be nil.
func NewCredentialStore(users *store.UserRepository, bcryptCost int, rdb *redis.Client) *CredentialStore {
	return &CredentialStore{users: users, cost: bcryptCost, rdb: rdb}
}

// Register creates a user. Username and email must both be unused; a username
// conflict is reported before an email conflict.
func (s *CredentialStore) Register(ctx context.Context, username, email, password string) (uint, error) {
	switch {
	case strings.TrimSpace(username) == "":
		return 0, errs.Validation("username is required")
	case strings.TrimSpace(email) == "":
		return 0, errs.Validation("email is required")
	case password == "":
		return 0, errs.Validation("password is required")
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return 0, err
	}

	user := domain.User{Username: username, Email: email, PasswordHash: hash, IsActive: true}
	err = s.users.Transaction(ctx, func(repo *store.UserRepository) error {
		if exists, err := repo.UsernameExists(ctx, username); err != nil {
			return err
		} else if exists {
			return errs.ErrDuplicateUsername
		}
		if exists, err := repo.EmailExists(ctx, email); err != nil {
			return err
		} else if exists {
			return errs.ErrDuplicateEmail
		}
		return repo.Create(ctx, &user)
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		err = s.classifyDuplicate(ctx, username)
	}
	if err != nil {
		return 0, errs.Persistence("register user", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")
	return user.ID, nil
}

// classifyDuplicate decides which unique index a concurrent registration collided with.
func (s *CredentialStore) classifyDuplicate(ctx context.Context, username string) error {
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return errs.ErrDuplicateUsername
	}
	return errs.ErrDuplicateEmail
}

// Authenticate returns the id of the user owning username when password matches.
// Every failure, including an unknown username, is ErrAuthFailure.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (uint, error) {
	user, err := s.users.ByUsername(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		// Spend the same bcrypt time as a real comparison.
		CheckPasswordHash(password, s.dummy())
		return 0, errs.ErrAuthFailure
	}
	if err != nil {
		return 0, errs.Persistence("authenticate", err)
	}
	if !CheckPasswordHash(password, user.PasswordHash) || !user.IsActive {
		logrus.WithField("user_id", user.ID).Warn("Authentication failed")
		return 0, errs.ErrAuthFailure
	}
	return user.ID, nil
}

// User returns an active user by id, ErrNotFound otherwise.
func (s *CredentialStore) User(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		return nil, errs.Persistence("load user", err)
	}
	if !user.IsActive {
		return nil, errs.ErrNotFound
	}
	return user, nil
}

// DeleteUser removes the user and, in the same transaction, every project,
// history entry and saved image the user owns. Cached loads of those projects
// are dropped once the delete commits.
func (s *CredentialStore) DeleteUser(ctx context.Context, id uint) error {
	var projectIDs []uint
	err := s.users.Transaction(ctx, func(repo *store.UserRepository) error {
		ids, err := repo.Delete(ctx, id)
		projectIDs = ids
		return err
	})
	if err != nil {
		return errs.Persistence("delete user", err)
	}
	if err := utils.InvalidateProjects(ctx, s.rdb, id, projectIDs...); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": id,
			"error":   err.Error(),
		}).Warn("Project cache invalidation failed")
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"projects": len(projectIDs),
	}).Info("User deleted")
	return nil
}

func (s *CredentialStore) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = HashPassword("not-a-real-password", s.cost)
	})
	return s.dummyHash
}
