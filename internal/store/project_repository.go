package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"image_editor/internal/domain"
	"image_editor/internal/errs"
)

// ProjectRepository is the only writer of projects and their ledger rows.
// A repository returned by Transaction is bound to that transaction.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Transaction runs fn against a repository bound to a single database transaction.
// Any error returned by fn rolls the transaction back.
func (r *ProjectRepository) Transaction(ctx context.Context, fn func(repo *ProjectRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ProjectRepository{db: tx})
	})
}

// LoadOwned returns the project only when it belongs to userID.
func (r *ProjectRepository) LoadOwned(ctx context.Context, projectID, userID uint) (*domain.Project, error) {
	var p domain.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns every project of userID, most recently updated first.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Project, error) {
	var out []domain.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Order("id desc").
		Find(&out).Error
	return out, err
}

// Save inserts p when it has no ID yet, otherwise updates every column.
func (r *ProjectRepository) Save(ctx context.Context, p *domain.Project) error {
	db := r.db.WithContext(ctx).Omit(clause.Associations)
	if p.ID == 0 {
		return db.Create(p).Error
	}
	return db.Save(p).Error
}

func (r *ProjectRepository) AppendHistory(ctx context.Context, h *domain.ProjectHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// History returns the ledger of a project, oldest first.
func (r *ProjectRepository) History(ctx context.Context, projectID uint) ([]domain.ProjectHistory, error) {
	var out []domain.ProjectHistory
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Order("id asc").
		Find(&out).Error
	return out, err
}

func (r *ProjectRepository) AddSavedImage(ctx context.Context, img *domain.SavedImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *ProjectRepository) SavedImages(ctx context.Context, projectID uint) ([]domain.SavedImage, error) {
	var out []domain.SavedImage
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// Delete removes the projects together with their history and saved images.
// Children go first so the result is the same with or without foreign key enforcement.
func (r *ProjectRepository) Delete(ctx context.Context, projectIDs ...uint) error {
	if len(projectIDs) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("project_id IN ?", projectIDs).Delete(&domain.ProjectHistory{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id IN ?", projectIDs).Delete(&domain.SavedImage{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", projectIDs).Delete(&domain.Project{}).Error
}

// DeleteByUser removes every project of userID and returns their ids.
func (r *ProjectRepository) DeleteByUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&domain.Project{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, r.Delete(ctx, ids...)
}
