package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"usagecli/internal/config"
	"usagecli/internal/infrastructure"
	"usagecli/pkg/contracts/domain"
)

// fallbackPrefixLen is how much of the user id feeds the synthesized
// fallback name.
const fallbackPrefixLen = 8

// Cache resolves user ids to identity records through a TTL'd durable
// store with the identity directory behind it.
//
// Per user id the lifecycle is UNRESOLVED → RESOLVED(fresh) →
// RESOLVED(stale) → RESOLVED(fresh)…; when the directory fails or has no
// such user the lookup degrades to a synthesized fallback record that is
// returned but never persisted, so the next call retries the directory.
type Cache struct {
	dir     Directory
	store   *Store
	ttl     time.Duration
	max     int
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time

	storeID  string
	resolved bool
}

// NewCache creates an identity cache over the given directory and store.
func NewCache(dir Directory, store *Store, cfg config.IdentityConfig, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		dir:     dir,
		store:   store,
		ttl:     cfg.TTL,
		max:     cfg.MaxEntries,
		limiter: rate.NewLimiter(rate.Limit(cfg.DirectoryRPS), cfg.DirectoryBurst),
		logger:  logger,
		now:     time.Now,
	}
}

// Get resolves one user id. A cached record younger than the TTL is
// returned without a directory call; otherwise the directory is queried
// and the refreshed record persisted. Any directory failure yields a
// fallback record.
func (c *Cache) Get(ctx context.Context, userID string) domain.IdentityRecord {
	if rec, ok := c.store.Get(userID); ok {
		if c.now().Unix()-rec.CachedAt < int64(c.ttl.Seconds()) {
			infrastructure.IdentityCacheHits.Inc()
			return rec
		}
	}
	infrastructure.IdentityCacheMisses.Inc()

	attrs, err := c.describe(ctx, userID)
	if err != nil {
		c.logger.WarnContext(ctx, "Identity lookup degraded to fallback",
			slog.String("user_id", userID),
			slog.Bool("not_found", errors.Is(err, ErrUserNotFound)),
			slog.String("error", err.Error()))
		infrastructure.IdentityFallbacks.Inc()
		return c.fallback(userID)
	}

	rec := c.record(attrs)
	c.persist(ctx, rec)
	return rec
}

// BulkGet resolves each user id independently through Get. The contract
// is per-id correctness, not batching.
func (c *Cache) BulkGet(ctx context.Context, userIDs []string) map[string]domain.IdentityRecord {
	results := make(map[string]domain.IdentityRecord, len(userIDs))
	for _, userID := range userIDs {
		results[userID] = c.Get(ctx, userID)
	}
	return results
}

// SearchByUsername finds at most one user by exact username, resolved
// through Get for consistent caching.
func (c *Cache) SearchByUsername(ctx context.Context, username string) (domain.IdentityRecord, bool) {
	storeID, err := c.discoverStore(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Username search failed",
			slog.String("username", username),
			slog.String("error", err.Error()))
		return domain.IdentityRecord{}, false
	}

	page, err := c.listUsers(ctx, storeID, &UsernameFilter{Username: username}, "")
	if err != nil || len(page.Users) == 0 {
		return domain.IdentityRecord{}, false
	}
	return c.Get(ctx, page.Users[0].UserID), true
}

// ListAll paginates the full directory, caching every result as a side
// effect.
func (c *Cache) ListAll(ctx context.Context) ([]domain.IdentityRecord, error) {
	storeID, err := c.discoverStore(ctx)
	if err != nil {
		return nil, err
	}

	var records []domain.IdentityRecord
	nextToken := ""
	for {
		page, err := c.listUsers(ctx, storeID, nil, nextToken)
		if err != nil {
			return nil, err
		}
		for _, attrs := range page.Users {
			rec := c.record(attrs)
			c.store.Put(rec)
			records = append(records, rec)
		}
		if page.NextToken == "" {
			break
		}
		nextToken = page.NextToken
	}

	c.persist(ctx, domain.IdentityRecord{})
	c.logger.InfoContext(ctx, "Directory listed",
		slog.Int("users", len(records)))
	return records, nil
}

// DisplayName returns the best human-readable name for a user id.
func (c *Cache) DisplayName(ctx context.Context, userID string) string {
	rec := c.Get(ctx, userID)
	if name := rec.BestName(); name != "" {
		return name
	}
	return fallbackName(userID)
}

// Email returns the user's email, empty when unknown.
func (c *Cache) Email(ctx context.Context, userID string) string {
	return c.Get(ctx, userID).Email
}

// Stats summarizes the cache contents.
type Stats struct {
	TotalUsers     int  `json:"total_users"`
	DirectoryUsers int  `json:"directory_users"`
	FallbackUsers  int  `json:"fallback_users"`
	StoreConnected bool `json:"store_connected"`
}

// CacheStats reports totals by source and whether the directory's store
// id has been discovered.
func (c *Cache) CacheStats() Stats {
	stats := Stats{StoreConnected: c.resolved}
	for _, rec := range c.store.All() {
		stats.TotalUsers++
		switch rec.Source {
		case domain.IdentitySourceDirectory:
			stats.DirectoryUsers++
		case domain.IdentitySourceFallback:
			stats.FallbackUsers++
		}
	}
	return stats
}

// describe resolves one user through the directory, discovering the store
// id on first use.
func (c *Cache) describe(ctx context.Context, userID string) (UserAttributes, error) {
	storeID, err := c.discoverStore(ctx)
	if err != nil {
		return UserAttributes{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return UserAttributes{}, err
	}
	infrastructure.DirectoryCalls.Inc()
	return c.dir.DescribeUser(ctx, storeID, userID)
}

// discoverStore looks the store identifier up once per process.
func (c *Cache) discoverStore(ctx context.Context) (string, error) {
	if c.resolved {
		return c.storeID, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	infrastructure.DirectoryCalls.Inc()
	storeID, err := c.dir.DiscoverStore(ctx)
	if err != nil {
		return "", err
	}
	c.storeID = storeID
	c.resolved = true
	c.logger.InfoContext(ctx, "Identity store discovered",
		slog.String("store_id", storeID))
	return storeID, nil
}

func (c *Cache) listUsers(ctx context.Context, storeID string, filter *UsernameFilter, nextToken string) (UserPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return UserPage{}, err
	}
	infrastructure.DirectoryCalls.Inc()
	return c.dir.ListUsers(ctx, storeID, filter, nextToken)
}

// record builds a directory-sourced identity record from raw attributes.
func (c *Cache) record(attrs UserAttributes) domain.IdentityRecord {
	return domain.IdentityRecord{
		UserID:      attrs.UserID,
		Username:    attrs.Username,
		DisplayName: attrs.DisplayName,
		Email:       attrs.PrimaryEmail(),
		FirstName:   attrs.GivenName,
		LastName:    attrs.FamilyName,
		CachedAt:    c.now().Unix(),
		Source:      domain.IdentitySourceDirectory,
	}
}

// persist stores a record (when it carries a user id), trims to the
// configured capacity, and rewrites the document.
func (c *Cache) persist(ctx context.Context, rec domain.IdentityRecord) {
	if rec.UserID != "" {
		c.store.Put(rec)
	}
	c.store.Trim(c.max)
	if err := c.store.Save(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to persist identity store",
			slog.String("error", err.Error()))
	}
}

// fallback synthesizes a placeholder identity. It is never persisted so
// the next lookup retries the directory instead of sticking to it.
func (c *Cache) fallback(userID string) domain.IdentityRecord {
	name := fallbackName(userID)
	return domain.IdentityRecord{
		UserID:      userID,
		Username:    name,
		DisplayName: name,
		CachedAt:    c.now().Unix(),
		Source:      domain.IdentitySourceFallback,
	}
}

func fallbackName(userID string) string {
	prefix := userID
	if len(prefix) > fallbackPrefixLen {
		prefix = prefix[:fallbackPrefixLen]
	}
	return "User-" + prefix
}
