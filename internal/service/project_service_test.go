package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"image_editor/internal/domain"
	"image_editor/internal/errs"
	"image_editor/internal/store"
	"image_editor/internal/testutil"
)

func newProjectService(t *testing.T) (*ProjectService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return NewProjectService(store.NewProjectRepository(db), nil, time.Minute), db
}

func validPayload(data string) SavePayload {
	return SavePayload{
		Title:       strPtr("Portrait"),
		Width:       intPtr(800),
		Height:      intPtr(600),
		ProjectData: json.RawMessage(data),
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	data := `{"image":"data:image/png;base64,iVBOR","layers":[{"name":"bg","opacity":0.75}],"zoom":2}`
	id, err := svc.SaveProject(ctx, alice.ID, validPayload(data))
	require.NoError(t, err)
	require.NotZero(t, id)

	view, err := svc.LoadProject(ctx, alice.ID, id)
	require.NoError(t, err)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, "Portrait", view.Title)
	assert.Equal(t, 800, *view.Width)
	assert.Equal(t, 600, *view.Height)

	got, err := json.Marshal(view.ProjectData)
	require.NoError(t, err)
	assert.JSONEq(t, data, string(got))
}

func TestSaveWithIDUpdatesInPlace(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	id, err := svc.SaveProject(ctx, alice.ID, validPayload(`{"image":"v1"}`))
	require.NoError(t, err)

	update := validPayload(`{"image":"v2"}`)
	update.ProjectID = &id
	update.Title = nil
	update.Width = intPtr(1024)
	again, err := svc.SaveProject(ctx, alice.ID, update)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	view, err := svc.LoadProject(ctx, alice.ID, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProjectTitle, view.Title)
	assert.Equal(t, 1024, *view.Width)
	assert.Equal(t, "v2", view.ProjectData["image"])

	var count int64
	require.NoError(t, db.Model(&domain.Project{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSaveAppendsHistory(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	id, err := svc.SaveProject(ctx, alice.ID, validPayload(`{"image":"v1"}`))
	require.NoError(t, err)
	update := validPayload(`{"image":"v2"}`)
	update.ProjectID = &id
	_, err = svc.SaveProject(ctx, alice.ID, update)
	require.NoError(t, err)

	history, err := svc.History(ctx, alice.ID, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActionCreate, history[0].ActionType)
	assert.Equal(t, domain.ActionUpdate, history[1].ActionType)
	assert.JSONEq(t, `{"title":"Portrait","width":800,"height":600}`, string(history[0].ActionData))
}

func TestOwnershipIsIndistinguishableFromAbsence(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	id, err := svc.SaveProject(ctx, bob.ID, validPayload(`{"image":"bobs"}`))
	require.NoError(t, err)

	_, err = svc.LoadProject(ctx, alice.ID, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.LoadProject(ctx, alice.ID, id+100)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteProject(ctx, alice.ID, id), errs.ErrNotFound)

	hijack := validPayload(`{"image":"alices"}`)
	hijack.ProjectID = &id
	_, err = svc.SaveProject(ctx, alice.ID, hijack)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.History(ctx, alice.ID, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	view, err := svc.LoadProject(ctx, bob.ID, id)
	require.NoError(t, err)
	assert.Equal(t, "bobs", view.ProjectData["image"])
}

func TestInvalidSaveCreatesNothing(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	_, err := svc.SaveProject(ctx, alice.ID, SavePayload{ProjectData: json.RawMessage(`{"image":"x"}`)})
	assert.Equal(t, ReasonMissingDimensions, reasonOf(t, err))

	_, err = svc.SaveProject(ctx, alice.ID, validPayload(`{}`))
	assert.Equal(t, ReasonMissingProjectData, reasonOf(t, err))

	var count int64
	require.NoError(t, db.Model(&domain.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteRemovesLedgerRows(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	id, err := svc.SaveProject(ctx, alice.ID, validPayload(`{"image":"x"}`))
	require.NoError(t, err)
	_, err = svc.RecordSavedImage(ctx, alice.ID, id, "static/uploads/x.png", 42, "png")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(ctx, alice.ID, id))

	var projects, history, images int64
	require.NoError(t, db.Model(&domain.Project{}).Count(&projects).Error)
	require.NoError(t, db.Model(&domain.ProjectHistory{}).Count(&history).Error)
	require.NoError(t, db.Model(&domain.SavedImage{}).Count(&images).Error)
	assert.Zero(t, projects)
	assert.Zero(t, history)
	assert.Zero(t, images)

	_, err = svc.LoadProject(ctx, alice.ID, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCleanEmptyProjects(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	keep, err := svc.SaveProject(ctx, alice.ID, validPayload(`{"image":"x"}`))
	require.NoError(t, err)
	bobsDraft := &domain.Project{UserID: bob.ID, Title: "draft"}
	require.NoError(t, db.Omit("History", "SavedImages").Create(bobsDraft).Error)

	drafts := []domain.Project{
		{UserID: alice.ID, Title: "no dims", ProjectData: `{"image":"x"}`},
		{UserID: alice.ID, Title: "blank", Width: intPtr(1), Height: intPtr(1)},
		{UserID: alice.ID, Title: "null", Width: intPtr(1), Height: intPtr(1), ProjectData: "null"},
		{UserID: alice.ID, Title: "broken", Width: intPtr(1), Height: intPtr(1), ProjectData: "{oops"},
		{UserID: alice.ID, Title: "imageless", Width: intPtr(1), Height: intPtr(1), ProjectData: `{"layers":[]}`},
	}
	for i := range drafts {
		require.NoError(t, db.Omit("History", "SavedImages").Create(&drafts[i]).Error)
		require.NoError(t, db.Create(&domain.ProjectHistory{ProjectID: drafts[i].ID, ActionType: domain.ActionCreate}).Error)
	}

	deleted, err := svc.CleanEmptyProjects(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, len(drafts), deleted)

	deleted, err = svc.CleanEmptyProjects(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	list, err := svc.ListProjects(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep, list[0].ID)

	var orphans int64
	ids := make([]uint, len(drafts))
	for i := range drafts {
		ids[i] = drafts[i].ID
	}
	require.NoError(t, db.Model(&domain.ProjectHistory{}).Where("project_id IN ?", ids).Count(&orphans).Error)
	assert.Zero(t, orphans)

	_, err = svc.LoadProject(ctx, bob.ID, bobsDraft.ID)
	assert.NoError(t, err, "another user's drafts are untouched")
}

func TestListProjectsMostRecentFirst(t *testing.T) {
	svc, db := newProjectService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	first, err := svc.SaveProject(ctx, alice.ID, validPayload(`{"image":"1"}`))
	require.NoError(t, err)
	second, err := svc.SaveProject(ctx, alice.ID, validPayload(`{"image":"2"}`))
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Project{}).Where("id = ?", first).
		Update("updated_at", time.Now().Add(time.Hour)).Error)

	list, err := svc.ListProjects(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID)
	assert.Equal(t, second, list[1].ID)
}

func TestLoadProjectWithoutDataReturnsEmptyMapping(t *testing.T) {
	svc, db := newProjectService(t)
	alice := testutil.CreateUser(t, db, "alice")

	for _, blob := range []string{"", "null", " {} ", " null\n"} {
		p := &domain.Project{UserID: alice.ID, Title: "draft", ProjectData: blob}
		require.NoError(t, db.Omit("History", "SavedImages").Create(p).Error)

		view, err := svc.LoadProject(context.Background(), alice.ID, p.ID)
		require.NoError(t, err, "blob %q", blob)
		assert.Empty(t, view.ProjectData)
		assert.NotNil(t, view.ProjectData)
		assert.Nil(t, view.Width)
	}
}

func TestLoadCorruptProjectData(t *testing.T) {
	svc, db := newProjectService(t)
	alice := testutil.CreateUser(t, db, "alice")
	p := &domain.Project{UserID: alice.ID, Title: "bad", ProjectData: "{nope"}
	require.NoError(t, db.Omit("History", "SavedImages").Create(p).Error)

	_, err := svc.LoadProject(context.Background(), alice.ID, p.ID)
	assert.ErrorIs(t, err, errs.ErrCorruptProjectData)
}
