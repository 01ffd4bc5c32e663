// Package service holds the project and image operations behind the JSON API.
// Every operation takes the id of an already authenticated user and only ever
// touches rows that user owns.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"image_editor/internal/domain"
	"image_editor/internal/errs"
	"image_editor/internal/metrics"
	"image_editor/internal/store"
	"image_editor/internal/utils"
)

// ProjectView is what a load returns to the editor.
type ProjectView struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Width       *int           `json:"width"`
	Height      *int           `json:"height"`
	ProjectData map[string]any `json:"project_data"`
}

// ProjectSummary is one row of a project listing.
type ProjectSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Width       *int      `json:"width"`
	Height      *int      `json:"height"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HistoryEntry is one row of a project's edit history.
type HistoryEntry struct {
	ID         uint            `json:"id"`
	ActionType string          `json:"action_type"`
	ActionData json.RawMessage `json:"action_data"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ProjectService struct {
	repo     *store.ProjectRepository
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewProjectService builds the service. rdb may be nil, which disables caching of loads.
func NewProjectService(repo *store.ProjectRepository, rdb *redis.Client, cacheTTL time.Duration) *ProjectService {
	return &ProjectService{repo: repo, rdb: rdb, cacheTTL: cacheTTL}
}

// SaveProject validates payload, then creates a project or overwrites an owned one,
// appending a history entry in the same transaction. It returns the project id.
func (s *ProjectService) SaveProject(ctx context.Context, userID uint, payload SavePayload) (uint, error) {
	valid, err := payload.Validate()
	if err != nil {
		return 0, err
	}

	var saved *domain.Project
	action := domain.ActionCreate
	err = s.repo.Transaction(ctx, func(repo *store.ProjectRepository) error {
		project := &domain.Project{UserID: userID}
		if valid.ProjectID != 0 {
			existing, err := repo.LoadOwned(ctx, valid.ProjectID, userID)
			if err != nil {
				return err
			}
			project = existing
			action = domain.ActionUpdate
		}

		width, height := valid.Width, valid.Height
		project.Title = valid.Title
		project.Description = valid.Description
		project.ProjectData = string(valid.ProjectData)
		project.Width = &width
		project.Height = &height
		if err := repo.Save(ctx, project); err != nil {
			return err
		}

		details, err := json.Marshal(map[string]any{
			"title":  project.Title,
			"width":  width,
			"height": height,
		})
		if err != nil {
			return err
		}
		if err := repo.AppendHistory(ctx, &domain.ProjectHistory{
			ProjectID:  project.ID,
			ActionType: action,
			ActionData: datatypes.JSON(details),
		}); err != nil {
			return err
		}
		saved = project
		return nil
	})
	if err != nil {
		if !errs.IsDomain(err) {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,
				"project_id": valid.ProjectID,
				"error":      err.Error(),
			}).Error("Save project failed")
		}
		return 0, errs.Persistence("save project", err)
	}

	s.invalidate(ctx, userID, saved.ID)
	metrics.ProjectOps.WithLabelValues(action).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"project_id": saved.ID,
		"action":     action,
		"width":      valid.Width,
		"height":     valid.Height,
	}).Info("Project saved")
	return saved.ID, nil
}

// LoadProject returns an owned project with its data decoded. A project whose data
// is blank, "{}" or "null" loads with an empty mapping.
func (s *ProjectService) LoadProject(ctx context.Context, userID, projectID uint) (*ProjectView, error) {
	cacheKey := utils.ProjectCacheKey(userID, projectID)
	var project domain.Project
	found, err := utils.GetCache(ctx, s.rdb, cacheKey, &project)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("Project cache read failed")
	}
	if found && err == nil {
		metrics.ProjectCache.WithLabelValues("hit").Inc()
	} else {
		if s.rdb != nil {
			metrics.ProjectCache.WithLabelValues("miss").Inc()
		}
		// The version is read before the row so a save committing in between blocks the fill.
		versionKey := utils.ProjectVersionKey(projectID)
		version, verErr := utils.CacheVersion(ctx, s.rdb, versionKey)
		loaded, err := s.repo.LoadOwned(ctx, projectID, userID)
		if err != nil {
			return nil, errs.Persistence("load project", err)
		}
		project = *loaded
		if verErr != nil {
			logrus.WithField("error", verErr.Error()).Warn("Project cache version read failed")
		} else if _, err := utils.SetCacheIfVersion(ctx, s.rdb, cacheKey, versionKey, version, project, s.cacheTTL); err != nil {
			logrus.WithField("error", err.Error()).Warn("Project cache write failed")
		}
	}

	data := map[string]any{}
	if !isBlankProjectData(project.ProjectData) {
		obj, ok := decodeObject([]byte(project.ProjectData))
		if !ok {
			return nil, errs.ErrCorruptProjectData
		}
		data = obj
	}
	return &ProjectView{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		Width:       project.Width,
		Height:      project.Height,
		ProjectData: data,
	}, nil
}

// DeleteProject removes an owned project with its history and saved images.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID uint) error {
	err := s.repo.Transaction(ctx, func(repo *store.ProjectRepository) error {
		project, err := repo.LoadOwned(ctx, projectID, userID)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, project.ID)
	})
	if err != nil {
		return errs.Persistence("delete project", err)
	}

	s.invalidate(ctx, userID, projectID)
	metrics.ProjectOps.WithLabelValues("delete").Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"project_id": projectID,
	}).Info("Project deleted")
	return nil
}

// CleanEmptyProjects deletes every empty project of the user in one transaction
// and returns how many were removed.
func (s *ProjectService) CleanEmptyProjects(ctx context.Context, userID uint) (int, error) {
	var removed []uint
	err := s.repo.Transaction(ctx, func(repo *store.ProjectRepository) error {
		projects, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		var empty []uint
		for i := range projects {
			if isEmptyProject(&projects[i]) {
				empty = append(empty, projects[i].ID)
			}
		}
		if err := repo.Delete(ctx, empty...); err != nil {
			return err
		}
		removed = empty
		return nil
	})
	if err != nil {
		return 0, errs.Persistence("clean empty projects", err)
	}

	s.invalidate(ctx, userID, removed...)
	metrics.ProjectOps.WithLabelValues("clean").Add(float64(len(removed)))
	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"deleted_count": len(removed),
	}).Info("Empty projects cleaned")
	return len(removed), nil
}

// ListProjects returns the user's projects, most recently updated first.
func (s *ProjectService) ListProjects(ctx context.Context, userID uint) ([]ProjectSummary, error) {
	projects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Persistence("list projects", err)
	}
	out := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		out[i] = ProjectSummary{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Width:       p.Width,
			Height:      p.Height,
			IsPublic:    p.IsPublic,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
	}
	return out, nil
}

// History returns the edit history of an owned project, oldest first.
func (s *ProjectService) History(ctx context.Context, userID, projectID uint) ([]HistoryEntry, error) {
	if _, err := s.repo.LoadOwned(ctx, projectID, userID); err != nil {
		return nil, errs.Persistence("load project history", err)
	}
	rows, err := s.repo.History(ctx, projectID)
	if err != nil {
		return nil, errs.Persistence("load project history", err)
	}
	out := make([]HistoryEntry, len(rows))
	for i, h := range rows {
		out[i] = HistoryEntry{
			ID:         h.ID,
			ActionType: h.ActionType,
			ActionData: json.RawMessage(h.ActionData),
			CreatedAt:  h.CreatedAt,
		}
	}
	return out, nil
}

// EnsureOwned returns ErrNotFound unless projectID belongs to userID.
func (s *ProjectService) EnsureOwned(ctx context.Context, userID, projectID uint) error {
	_, err := s.repo.LoadOwned(ctx, projectID, userID)
	return errs.Persistence("load project", err)
}

// RecordSavedImage appends an exported image to an owned project.
func (s *ProjectService) RecordSavedImage(ctx context.Context, userID, projectID uint, path string, size int64, format string) (*domain.SavedImage, error) {
	img := &domain.SavedImage{ProjectID: projectID, FilePath: path, FileSize: size, Format: format}
	err := s.repo.Transaction(ctx, func(repo *store.ProjectRepository) error {
		if _, err := repo.LoadOwned(ctx, projectID, userID); err != nil {
			return err
		}
		return repo.AddSavedImage(ctx, img)
	})
	if err != nil {
		return nil, errs.Persistence("record saved image", err)
	}
	return img, nil
}

// invalidate drops cached loads of the given projects and fails any fill still in
// flight. Failures are logged; stale entries still expire after cacheTTL.
func (s *ProjectService) invalidate(ctx context.Context, userID uint, projectIDs ...uint) {
	if err := utils.InvalidateProjects(ctx, s.rdb, userID, projectIDs...); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Project cache invalidation failed")
	}
}
