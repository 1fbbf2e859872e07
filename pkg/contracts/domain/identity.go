package domain

// IdentitySource records where an identity was resolved from.
type IdentitySource string

const (
	// IdentitySourceDirectory marks records resolved from the identity
	// directory.
	IdentitySourceDirectory IdentitySource = "directory"
	// IdentitySourceFallback marks synthesized placeholder records used
	// when the directory could not resolve the user id.
	IdentitySourceFallback IdentitySource = "fallback"
)

// IdentityRecord is a resolved human-readable identity for a user id.
// The JSON field names are also the persisted cache document format.
type IdentityRecord struct {
	UserID      string         `json:"user_id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	CachedAt    int64          `json:"cached_at"`
	Source      IdentitySource `json:"source"`
}

// BestName returns the most specific human-readable name available.
func (r IdentityRecord) BestName() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Username
}
