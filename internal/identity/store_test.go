package identity

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usagecli/internal/shared/testutil"
	"usagecli/pkg/contracts/domain"
)

func testRecord(userID string, cachedAt int64) domain.IdentityRecord {
	return domain.IdentityRecord{
		UserID:      userID,
		Username:    userID,
		DisplayName: "User " + userID,
		CachedAt:    cachedAt,
		Source:      domain.IdentitySourceDirectory,
	}
}

func TestOpenStore_MissingFileStartsEmpty(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	store, err := OpenStore(filepath.Join(t.TempDir(), "user_cache.json"), logger)
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}

func TestOpenStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	logger, handler := testutil.NewTestLogger(t)

	store, err := OpenStore(path, logger)
	require.NoError(t, err, "a corrupt document must not fail startup")
	assert.Zero(t, store.Len())
	assert.True(t, handler.HasMessage(slog.LevelWarn, "Identity store unreadable"))
}

func TestStore_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "user_cache.json")
	logger, _ := testutil.NewTestLogger(t)

	store, err := OpenStore(path, logger)
	require.NoError(t, err)
	store.Put(testRecord("user-a", 100))
	store.Put(testRecord("user-b", 200))
	require.NoError(t, store.Save(), "save creates parent directories")

	reopened, err := OpenStore(path, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())
	rec, ok := reopened.Get("user-a")
	require.True(t, ok)
	assert.Equal(t, testRecord("user-a", 100), rec)
}

func TestStore_PutReplaces(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	store, err := OpenStore(filepath.Join(t.TempDir(), "user_cache.json"), logger)
	require.NoError(t, err)

	store.Put(testRecord("user-a", 100))
	store.Put(testRecord("user-a", 200))

	assert.Equal(t, 1, store.Len())
	rec, _ := store.Get("user-a")
	assert.Equal(t, int64(200), rec.CachedAt)
}

func TestStore_Trim(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		want    int
		evicted []string
	}{
		{name: "unbounded", max: 0, want: 4},
		{name: "over capacity drops oldest", max: 2, want: 2, evicted: []string{"user-1", "user-2"}},
		{name: "under capacity untouched", max: 10, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			store, err := OpenStore(filepath.Join(t.TempDir(), "user_cache.json"), logger)
			require.NoError(t, err)
			for i := 1; i <= 4; i++ {
				store.Put(testRecord(
					"user-"+string(rune('0'+i)),
					int64(i*100)))
			}

			store.Trim(tt.max)

			assert.Equal(t, tt.want, store.Len())
			for _, userID := range tt.evicted {
				_, ok := store.Get(userID)
				assert.False(t, ok, "%s should be evicted", userID)
			}
		})
	}
}
