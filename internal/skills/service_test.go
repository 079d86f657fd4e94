package skills

import (
	"context"
	"path/filepath"
	"testing"

	"cv-platform/internal/apperr"
	"cv-platform/internal/model"
	"cv-platform/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, uint) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "cv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user := model.User{Email: "a@x.com", PasswordHash: "x", FirstName: "A", LastName: "B", IsActive: true}
	require.NoError(t, store.CreateUser(context.Background(), &user))
	return NewService(store, nil), user.ID
}

func TestEnsureSkillIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	a, err := svc.EnsureSkill(ctx, " Rust ")
	require.NoError(t, err)
	b, err := svc.EnsureSkill(ctx, "Rust")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = svc.EnsureSkill(ctx, "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAssignSkillUpsertsAndOrders(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, userID := newService(t)

	pyID, err := svc.AssignSkillByName(ctx, userID, "Python", 3, 5)
	require.NoError(t, err)
	_, err = svc.AssignSkillByName(ctx, userID, "Docker", 3, 1)
	require.NoError(t, err)
	_, err = svc.AssignSkillByName(ctx, userID, "Leadership", 4, 0)
	require.NoError(t, err)

	got, err := svc.ListAssignments(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Leadership", "Python", "Docker"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, "Expert", got[0].LevelLabel)

	require.NoError(t, svc.AssignSkill(ctx, userID, pyID, 1, 0))
	got, err = svc.ListAssignments(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Python", got[2].Name)
	assert.Equal(t, "Débutant", got[2].LevelLabel)

	require.NoError(t, svc.RemoveAssignment(ctx, userID, pyID))
	require.NoError(t, svc.RemoveAssignment(ctx, userID, pyID))
	got, err = svc.ListAssignments(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAssignSkillValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, userID := newService(t)
	id, err := svc.EnsureSkill(ctx, "Go")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AssignSkill(ctx, userID, id, 0, 1), apperr.ErrValidation)
	assert.ErrorIs(t, svc.AssignSkill(ctx, userID, id, 5, 1), apperr.ErrValidation)
	assert.ErrorIs(t, svc.AssignSkill(ctx, userID, id, 2, -1), apperr.ErrValidation)
	assert.ErrorIs(t, svc.AssignSkill(ctx, userID, 9999, 2, 1), apperr.ErrNotFound)

	got, err := svc.ListAssignments(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssignSkillRejectsUnknownUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, userID := newService(t)
	id, err := svc.EnsureSkill(ctx, "Go")
	require.NoError(t, err)

	const missing = 4242
	assert.ErrorIs(t, svc.AssignSkill(ctx, missing, id, 2, 1), apperr.ErrNotFound)

	_, err = svc.AssignSkillByName(ctx, missing, "Kubernetes", 2, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := svc.ListAssignments(ctx, missing)
	require.NoError(t, err)
	assert.Empty(t, got)

	// the catalogue is untouched when the user does not exist
	names, err := svc.SearchCatalogue(ctx, "kube")
	require.NoError(t, err)
	assert.Empty(t, names)

	got, err = svc.ListAssignments(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchCatalogue(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	got, err := svc.SearchCatalogue(context.Background(), "java")
	require.NoError(t, err)
	assert.Equal(t, []string{"Java", "JavaScript"}, got)

	all, err := svc.SearchCatalogue(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, len(storage.PredefinedSkills))
}

func TestLevelLabelClamps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Débutant", LevelLabel(0))
	assert.Equal(t, "Avancé", LevelLabel(3))
	assert.Equal(t, "Expert", LevelLabel(9))
}
