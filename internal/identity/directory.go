package identity

import (
	"context"
	"errors"
)

// Sentinel outcomes of a directory lookup. Callers branch on these to
// choose fallback behavior instead of the lookup deciding for them.
var (
	// ErrUserNotFound means the directory answered but has no such user.
	ErrUserNotFound = errors.New("user not found in identity directory")
	// ErrDirectoryUnavailable means the directory could not be reached or
	// no identity store is configured.
	ErrDirectoryUnavailable = errors.New("identity directory unavailable")
)

// UserAttributes are the raw attributes the directory holds for a user.
type UserAttributes struct {
	UserID      string
	Username    string
	DisplayName string
	GivenName   string
	FamilyName  string
	Emails      []string
}

// PrimaryEmail returns the first email, or empty when none exist.
func (a UserAttributes) PrimaryEmail() string {
	if len(a.Emails) == 0 {
		return ""
	}
	return a.Emails[0]
}

// UsernameFilter restricts a ListUsers call to one exact username.
type UsernameFilter struct {
	Username string
}

// UserPage is one page of a directory listing. An empty NextToken marks
// the last page.
type UserPage struct {
	Users     []UserAttributes
	NextToken string
}

// Directory is the identity-directory capability. The concrete client is
// an external collaborator; the cache only needs instance discovery,
// per-user description, and filtered paginated listing.
type Directory interface {
	// DiscoverStore resolves the identity store id, typically once per
	// process.
	DiscoverStore(ctx context.Context) (string, error)
	// DescribeUser resolves one user id to its attributes. Returns
	// ErrUserNotFound or ErrDirectoryUnavailable as appropriate.
	DescribeUser(ctx context.Context, storeID, userID string) (UserAttributes, error)
	// ListUsers returns one page of users, optionally filtered by exact
	// username. Pass the previous page's NextToken to continue.
	ListUsers(ctx context.Context, storeID string, filter *UsernameFilter, nextToken string) (UserPage, error)
}
