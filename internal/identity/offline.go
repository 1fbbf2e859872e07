package identity

import (
	"context"
)

// OfflineDirectory is a Directory for deployments without directory
// access. Every call reports unavailability, so lookups serve fresh
// cached entries and degrade to fallbacks for everything else.
type OfflineDirectory struct{}

// DiscoverStore implements Directory.
func (OfflineDirectory) DiscoverStore(ctx context.Context) (string, error) {
	return "", ErrDirectoryUnavailable
}

// DescribeUser implements Directory.
func (OfflineDirectory) DescribeUser(ctx context.Context, storeID, userID string) (UserAttributes, error) {
	return UserAttributes{}, ErrDirectoryUnavailable
}

// ListUsers implements Directory.
func (OfflineDirectory) ListUsers(ctx context.Context, storeID string, filter *UsernameFilter, nextToken string) (UserPage, error) {
	return UserPage{}, ErrDirectoryUnavailable
}
