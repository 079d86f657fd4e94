package editor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"cv-platform/internal/apperr"
	"cv-platform/internal/cvdoc"
	"cv-platform/internal/document"
	"cv-platform/internal/model"
	"cv-platform/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T) (*Workspace, *document.Service, model.User) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "cv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user := model.User{Email: "ada@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Lovelace", IsActive: true}
	require.NoError(t, store.CreateUser(context.Background(), &user))

	docs := document.NewService(store, nil, nil)
	return NewWorkspace(docs), docs, user
}

func TestWorkspaceRequiresLogin(t *testing.T) {
	t.Parallel()

	ws, _, _ := newWorkspace(t)
	_, err := ws.New(context.Background(), "My CV")
	assert.ErrorIs(t, err, apperr.ErrNoSession)
	assert.ErrorIs(t, ws.Save(context.Background()), apperr.ErrNoSession)
	assert.ErrorIs(t, ws.Update(func(d *Draft) error { return nil }), apperr.ErrNoSession)

	_, _, ok := ws.Current()
	assert.False(t, ok)
}

func TestWorkspaceEditAndSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ws, docs, user := newWorkspace(t)
	ws.Login(user)

	session, err := ws.New(ctx, "My CV")
	require.NoError(t, err)
	assert.NotZero(t, session.DocumentID)

	require.NoError(t, ws.Update(func(d *Draft) error {
		d.Payload.Set(cvdoc.FieldTitle, "Analyst")
		_, err := d.Payload.AddLanguage(cvdoc.LanguageEntry{Name: "English"})
		return err
	}))

	// The draft is not persisted until Save.
	doc, err := docs.Load(ctx, session.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, doc.Payload.Get(cvdoc.FieldTitle))

	require.NoError(t, ws.Save(ctx))
	doc, err = docs.Load(ctx, session.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Analyst", doc.Payload.Get(cvdoc.FieldTitle))
	require.Len(t, doc.Payload.Languages, 1)
}

func TestWorkspaceUpdateFailureKeepsDraft(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ws, _, user := newWorkspace(t)
	ws.Login(user)
	_, err := ws.New(ctx, "My CV")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = ws.Update(func(d *Draft) error {
		d.Payload.Set(cvdoc.FieldFirstName, "Changed")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, draft, ok := ws.Current()
	require.True(t, ok)
	assert.Equal(t, "Ada", draft.Payload.Get(cvdoc.FieldFirstName))
}

func TestWorkspaceCurrentReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ws, _, user := newWorkspace(t)
	ws.Login(user)
	_, err := ws.New(ctx, "My CV")
	require.NoError(t, err)

	_, draft, _ := ws.Current()
	draft.Payload.Set(cvdoc.FieldFirstName, "Mutated")

	_, again, _ := ws.Current()
	assert.Equal(t, "Ada", again.Payload.Get(cvdoc.FieldFirstName))
}

func TestWorkspaceOpenRejectsForeignDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ws, docs, user := newWorkspace(t)
	id, err := docs.Create(ctx, user.ID, "Theirs", document.DefaultPayload(user))
	require.NoError(t, err)

	ws.Login(model.User{ID: user.ID + 100, Email: "other@example.com"})
	_, err = ws.Open(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestWorkspaceCloseAndLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ws, _, user := newWorkspace(t)
	ws.Login(user)
	_, err := ws.New(ctx, "My CV")
	require.NoError(t, err)

	ws.Close()
	_, _, ok := ws.Current()
	assert.False(t, ok)
	_, ok = ws.User()
	assert.True(t, ok)

	ws.Logout()
	_, ok = ws.User()
	assert.False(t, ok)
}

func TestWorkspaceConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ws, _, user := newWorkspace(t)
	ws.Login(user)
	_, err := ws.New(ctx, "My CV")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = ws.Update(func(d *Draft) error {
				_, err := d.Payload.AddLanguage(cvdoc.LanguageEntry{Name: "Lang"})
				return err
			})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = ws.Current()
		}()
	}
	wg.Wait()

	_, draft, ok := ws.Current()
	require.True(t, ok)
	assert.Len(t, draft.Payload.Languages, 20)
}
