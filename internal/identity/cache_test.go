package identity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usagecli/internal/config"
	"usagecli/internal/shared/testutil"
	"usagecli/pkg/contracts/domain"
)

// mockDirectory is a testify mock of the Directory capability.
type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) DiscoverStore(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockDirectory) DescribeUser(ctx context.Context, storeID, userID string) (UserAttributes, error) {
	args := m.Called(ctx, storeID, userID)
	return args.Get(0).(UserAttributes), args.Error(1)
}

func (m *mockDirectory) ListUsers(ctx context.Context, storeID string, filter *UsernameFilter, nextToken string) (UserPage, error) {
	args := m.Called(ctx, storeID, filter, nextToken)
	return args.Get(0).(UserPage), args.Error(1)
}

func testIdentityConfig() config.IdentityConfig {
	return config.IdentityConfig{
		TTL:            24 * time.Hour,
		DirectoryRPS:   10000,
		DirectoryBurst: 10000,
	}
}

func newTestCache(t *testing.T, dir Directory) (*Cache, *Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_cache.json")
	logger, _ := testutil.NewTestLogger(t)
	store, err := OpenStore(path, logger)
	require.NoError(t, err)
	return NewCache(dir, store, testIdentityConfig(), logger), store, path
}

func aliceAttrs() UserAttributes {
	return UserAttributes{
		UserID:      "user-alice-0001",
		Username:    "alice",
		DisplayName: "Alice Kim",
		GivenName:   "Alice",
		FamilyName:  "Kim",
		Emails:      []string{"alice@example.com", "alice.kim@example.com"},
	}
}

func TestGet_ResolvesAndPersists(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "user-alice-0001").Return(aliceAttrs(), nil).Once()

	cache, _, path := newTestCache(t, dir)

	rec := cache.Get(context.Background(), "user-alice-0001")
	assert.Equal(t, "alice", rec.Username)
	assert.Equal(t, "Alice Kim", rec.DisplayName)
	assert.Equal(t, "alice@example.com", rec.Email, "first email wins")
	assert.Equal(t, domain.IdentitySourceDirectory, rec.Source)
	assert.NotZero(t, rec.CachedAt)

	// The store was persisted and can be reopened.
	logger, _ := testutil.NewTestLogger(t)
	reopened, err := OpenStore(path, logger)
	require.NoError(t, err)
	persisted, ok := reopened.Get("user-alice-0001")
	require.True(t, ok)
	assert.Equal(t, domain.IdentitySourceDirectory, persisted.Source)

	dir.AssertExpectations(t)
}

func TestGet_FreshEntrySkipsDirectory(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "user-alice-0001").Return(aliceAttrs(), nil).Once()

	cache, _, _ := newTestCache(t, dir)

	first := cache.Get(context.Background(), "user-alice-0001")
	second := cache.Get(context.Background(), "user-alice-0001")

	assert.Equal(t, first, second)
	dir.AssertNumberOfCalls(t, "DescribeUser", 1)
}

func TestGet_StaleEntryRefreshes(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "user-alice-0001").Return(aliceAttrs(), nil).Twice()

	cache, _, _ := newTestCache(t, dir)

	base := time.Now()
	cache.now = func() time.Time { return base }
	cache.Get(context.Background(), "user-alice-0001")

	// Just inside the TTL: served from cache.
	cache.now = func() time.Time { return base.Add(23 * time.Hour) }
	cache.Get(context.Background(), "user-alice-0001")
	dir.AssertNumberOfCalls(t, "DescribeUser", 1)

	// Past the TTL: refreshed in place.
	cache.now = func() time.Time { return base.Add(25 * time.Hour) }
	rec := cache.Get(context.Background(), "user-alice-0001")
	dir.AssertNumberOfCalls(t, "DescribeUser", 2)
	assert.Equal(t, base.Add(25*time.Hour).Unix(), rec.CachedAt)
}

func TestGet_NotFoundFallsBackWithoutPersisting(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "ghost-user-12345").
		Return(UserAttributes{}, ErrUserNotFound)

	cache, store, _ := newTestCache(t, dir)

	rec := cache.Get(context.Background(), "ghost-user-12345")
	assert.Equal(t, domain.IdentitySourceFallback, rec.Source)
	assert.Equal(t, "User-ghost-us", rec.Username, "name derives from the first 8 bytes of the id")
	assert.Equal(t, "User-ghost-us", rec.DisplayName)
	assert.Empty(t, rec.Email)

	_, cached := store.Get("ghost-user-12345")
	assert.False(t, cached, "fallback identities are never persisted")
}

func TestGet_DirectoryUnavailable_NotPersisted(t *testing.T) {
	// N consecutive lookups issue N directory attempts; no cached
	// fallback short-circuits them.
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("", ErrDirectoryUnavailable).Times(3)

	cache, store, _ := newTestCache(t, dir)

	for i := 0; i < 3; i++ {
		rec := cache.Get(context.Background(), "user-alice-0001")
		assert.Equal(t, domain.IdentitySourceFallback, rec.Source)
	}

	dir.AssertNumberOfCalls(t, "DiscoverStore", 3)
	assert.Zero(t, store.Len())
}

func TestGet_ShortUserID(t *testing.T) {
	cache, _, _ := newTestCache(t, OfflineDirectory{})

	rec := cache.Get(context.Background(), "u1")
	assert.Equal(t, "User-u1", rec.DisplayName)
}

func TestBulkGet(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "user-alice-0001").Return(aliceAttrs(), nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "ghost-user-12345").
		Return(UserAttributes{}, ErrUserNotFound).Once()

	cache, _, _ := newTestCache(t, dir)

	results := cache.BulkGet(context.Background(), []string{"user-alice-0001", "ghost-user-12345"})
	require.Len(t, results, 2)
	assert.Equal(t, domain.IdentitySourceDirectory, results["user-alice-0001"].Source)
	assert.Equal(t, domain.IdentitySourceFallback, results["ghost-user-12345"].Source)
}

func TestSearchByUsername(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("ListUsers", mock.Anything, "d-123", &UsernameFilter{Username: "alice"}, "").
		Return(UserPage{Users: []UserAttributes{aliceAttrs()}}, nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "user-alice-0001").Return(aliceAttrs(), nil).Once()

	cache, store, _ := newTestCache(t, dir)

	rec, found := cache.SearchByUsername(context.Background(), "alice")
	require.True(t, found)
	assert.Equal(t, "Alice Kim", rec.DisplayName)

	// Resolution went through Get, so the record is cached.
	_, cached := store.Get("user-alice-0001")
	assert.True(t, cached)
}

func TestSearchByUsername_NoMatch(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("ListUsers", mock.Anything, "d-123", &UsernameFilter{Username: "nobody"}, "").
		Return(UserPage{}, nil).Once()

	cache, _, _ := newTestCache(t, dir)

	_, found := cache.SearchByUsername(context.Background(), "nobody")
	assert.False(t, found)
}

func TestListAll_PaginatesAndCaches(t *testing.T) {
	bob := UserAttributes{UserID: "user-bob-0002", Username: "bob"}

	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("ListUsers", mock.Anything, "d-123", (*UsernameFilter)(nil), "").
		Return(UserPage{Users: []UserAttributes{aliceAttrs()}, NextToken: "page2"}, nil).Once()
	dir.On("ListUsers", mock.Anything, "d-123", (*UsernameFilter)(nil), "page2").
		Return(UserPage{Users: []UserAttributes{bob}}, nil).Once()

	cache, store, _ := newTestCache(t, dir)

	records, err := cache.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, store.Len())

	// Listed users are cached as directory records: no further
	// directory call is needed to resolve them.
	rec := cache.Get(context.Background(), "user-bob-0002")
	assert.Equal(t, domain.IdentitySourceDirectory, rec.Source)
	dir.AssertNumberOfCalls(t, "DescribeUser", 0)
}

func TestCacheStats(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "user-alice-0001").Return(aliceAttrs(), nil).Once()

	cache, _, _ := newTestCache(t, dir)

	stats := cache.CacheStats()
	assert.False(t, stats.StoreConnected)
	assert.Zero(t, stats.TotalUsers)

	cache.Get(context.Background(), "user-alice-0001")

	stats = cache.CacheStats()
	assert.True(t, stats.StoreConnected)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.DirectoryUsers)
	assert.Zero(t, stats.FallbackUsers)
}

func TestDisplayNameAndEmail(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	dir.On("DescribeUser", mock.Anything, "d-123", "user-alice-0001").Return(aliceAttrs(), nil).Once()

	cache, _, _ := newTestCache(t, dir)

	assert.Equal(t, "Alice Kim", cache.DisplayName(context.Background(), "user-alice-0001"))
	assert.Equal(t, "alice@example.com", cache.Email(context.Background(), "user-alice-0001"))
}

func TestGet_MaxEntriesTrimsOldest(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("DiscoverStore", mock.Anything).Return("d-123", nil).Once()
	for _, id := range []string{"u-1", "u-2", "u-3"} {
		dir.On("DescribeUser", mock.Anything, "d-123", id).
			Return(UserAttributes{UserID: id, Username: id}, nil).Once()
	}

	path := filepath.Join(t.TempDir(), "user_cache.json")
	logger, _ := testutil.NewTestLogger(t)
	store, err := OpenStore(path, logger)
	require.NoError(t, err)

	cfg := testIdentityConfig()
	cfg.MaxEntries = 2
	cache := NewCache(dir, store, cfg, logger)

	base := time.Now()
	for i, id := range []string{"u-1", "u-2", "u-3"} {
		cache.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		cache.Get(context.Background(), id)
	}

	assert.Equal(t, 2, store.Len())
	_, oldest := store.Get("u-1")
	assert.False(t, oldest, "oldest entry is evicted first")
}
