package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/store"
)

type mockStore struct {
	mock.Mock
}

var _ store.ContentStore = (*mockStore)(nil)

func (m *mockStore) CreateRole(ctx context.Context, key, name, cloneFrom string) error {
	return m.Called(ctx, key, name, cloneFrom).Error(0)
}

func (m *mockStore) AddCapability(ctx context.Context, roleKey, capability string) error {
	return m.Called(ctx, roleKey, capability).Error(0)
}

func (m *mockStore) CreateUser(ctx context.Context, in store.UserInput) (store.ID, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(store.ID), args.Error(1)
}

func (m *mockStore) ImportMedia(ctx context.Context, path string) (store.ID, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(store.ID), args.Error(1)
}

func (m *mockStore) ListPostIDs(ctx context.Context, postType string) ([]store.ID, error) {
	args := m.Called(ctx, postType)
	return args.Get(0).([]store.ID), args.Error(1)
}

func (m *mockStore) DeletePosts(ctx context.Context, ids []store.ID) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *mockStore) CreateTerm(ctx context.Context, taxonomy, name string) (store.ID, error) {
	args := m.Called(ctx, taxonomy, name)
	return args.Get(0).(store.ID), args.Error(1)
}

func (m *mockStore) CreateMenu(ctx context.Context, name string) (store.ID, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(store.ID), args.Error(1)
}

func (m *mockStore) AddMenuItemPost(ctx context.Context, menuID, postID store.ID) (store.ID, error) {
	args := m.Called(ctx, menuID, postID)
	return args.Get(0).(store.ID), args.Error(1)
}

func (m *mockStore) CreatePost(ctx context.Context, in store.PostInput) (store.ID, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(store.ID), args.Error(1)
}

func TestImport_MediaFailureAbortsBeforePosts(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "media", "cover.jpg"), "jpeg")
	mustWriteFile(t, filepath.Join(dir, "post", "a.html"), doc("A"))

	s := &mockStore{}
	s.On("CreateRole", mock.Anything, "shop_manager", "Shop Manager", "").Return(nil).Once()
	s.On("CreateUser", mock.Anything, mock.MatchedBy(func(in store.UserInput) bool {
		return in.DisplayName == "Jane"
	})).Return(store.ID(2), nil).Once()
	s.On("ImportMedia", mock.Anything, filepath.Join(dir, "media", "cover.jpg")).
		Return(store.NoID, errors.New("upload rejected")).Once()

	im, _ := newTestImporter(t, s)
	res, err := im.Import(context.Background(), Input{
		ContentDir: dir,
		Roles:      []config.RoleSpec{{Key: "shop_manager", DisplayName: "Shop Manager"}},
		Users:      append(adminOnly(), config.UserSpec{DisplayName: "Jane", Email: "jane@example.com", Role: "editor"}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseMedia, phaseErr.Phase)
	assert.Equal(t, "cover.jpg", phaseErr.Item)

	assert.True(t, res.Aborted)
	assert.Equal(t, 1, res.Phases[PhaseRoles].Created)
	assert.Equal(t, "Jane", res.Users[2])
	s.AssertExpectations(t)
	s.AssertNotCalled(t, "ListPostIDs", mock.Anything, mock.Anything)
	s.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)
}

func TestImport_UnavailableStoreAlwaysAborts(t *testing.T) {
	s := &mockStore{}
	s.On("CreateRole", mock.Anything, "r1", "", "").
		Return(errors.Wrap(store.ErrUnavailable, "wp not installed")).Once()

	im, _ := newTestImporter(t, s)
	_, err := im.Import(context.Background(), Input{
		ContentDir: t.TempDir(),
		Roles:      []config.RoleSpec{{Key: "r1"}, {Key: "r2"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	s.AssertExpectations(t)
	s.AssertNotCalled(t, "CreateRole", mock.Anything, "r2", mock.Anything, mock.Anything)
}

func TestImport_ScratchFilesRemoved(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "post", "ok.html"), doc("OK"))
	mustWriteFile(t, filepath.Join(dir, "post", "bad.html"), doc("Bad"))

	var scratch []string
	capture := func(args mock.Arguments) {
		in := args.Get(1).(store.PostInput)
		_, err := os.Stat(in.BodyFile)
		assert.NoError(t, err, "body file exists during the call")
		scratch = append(scratch, in.BodyFile)
	}

	s := &mockStore{}
	s.On("ListPostIDs", mock.Anything, store.PostTypePost).Return([]store.ID{}, nil).Once()
	s.On("CreatePost", mock.Anything, mock.MatchedBy(func(in store.PostInput) bool { return in.Title == "OK" })).
		Run(capture).Return(store.ID(10), nil).Once()
	s.On("CreatePost", mock.Anything, mock.MatchedBy(func(in store.PostInput) bool { return in.Title == "Bad" })).
		Run(capture).Return(store.NoID, errors.New("db error")).Once()

	im, _ := newTestImporter(t, s)
	res, err := im.Import(context.Background(), Input{ContentDir: dir})
	require.NoError(t, err)
	s.AssertExpectations(t)

	require.Len(t, scratch, 2)
	for _, path := range scratch {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
	assert.Equal(t, 1, res.Phases[store.PostTypePost].Created)
	assert.Equal(t, 1, res.Phases[store.PostTypePost].Failed)
	assert.Equal(t, 1, res.DocumentsByOutcome(store.PostTypePost, OutcomeFailed))
}

func TestImport_TermFailureKeepsDocument(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "post", "a.html"), doc("A", "category: News; Events"))

	s := &mockStore{}
	s.On("ListPostIDs", mock.Anything, store.PostTypePost).Return([]store.ID{3, 4}, nil).Once()
	s.On("DeletePosts", mock.Anything, []store.ID{3, 4}).Return(nil).Once()
	s.On("CreateTerm", mock.Anything, store.TaxonomyCategory, "News").
		Return(store.NoID, errors.Wrap(store.ErrConflict, "term exists")).Once()
	s.On("CreateTerm", mock.Anything, store.TaxonomyCategory, "Events").Return(store.ID(20), nil).Once()
	s.On("CreatePost", mock.Anything, mock.MatchedBy(func(in store.PostInput) bool {
		return assert.ObjectsAreEqual([]store.ID{20}, in.CategoryIDs) && in.Author == DefaultAdminID
	})).Return(store.ID(21), nil).Once()

	im, _ := newTestImporter(t, s)
	res, err := im.Import(context.Background(), Input{ContentDir: dir})
	require.NoError(t, err)
	s.AssertExpectations(t)
	assert.Equal(t, 2, res.Phases[store.PostTypePost].Deleted)
	assert.Equal(t, map[store.ID]string{20: "Events"}, res.Categories)
}

func TestImport_CapabilityFailuresToleratedOneByOne(t *testing.T) {
	s := &mockStore{}
	s.On("CreateRole", mock.Anything, "shop_manager", "Shop Manager", "editor").
		Return(errors.Wrap(store.ErrConflict, "role exists")).Once()
	s.On("AddCapability", mock.Anything, "shop_manager", "manage_shop").
		Return(errors.New("capability rejected")).Once()
	s.On("AddCapability", mock.Anything, "shop_manager", "edit_orders").Return(nil).Once()
	s.On("CreateRole", mock.Anything, "auditor", "Auditor", "").Return(nil).Once()
	s.On("AddCapability", mock.Anything, "auditor", "read_reports").Return(nil).Once()

	im, hook := newTestImporter(t, s)
	res, err := im.Import(context.Background(), Input{
		ContentDir: t.TempDir(),
		Roles: []config.RoleSpec{
			{Key: "shop_manager", DisplayName: "Shop Manager", CloneFrom: "editor", Capabilities: []string{"manage_shop", "edit_orders"}},
			{Key: "auditor", DisplayName: "Auditor", Capabilities: []string{"read_reports"}},
		},
	})
	require.NoError(t, err)
	s.AssertExpectations(t)

	assert.False(t, res.Aborted)
	assert.Equal(t, 1, res.Phases[PhaseRoles].Created)
	assert.Equal(t, 1, res.Phases[PhaseRoles].Failed)
	assert.True(t, hasEntry(hook, logrus.WarnLevel, string(FailRole)))
	assert.True(t, hasEntry(hook, logrus.WarnLevel, string(FailCapability)))
}
