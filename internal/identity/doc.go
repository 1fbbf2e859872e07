// Package identity resolves opaque user ids to human-readable identity
// records through a durable TTL'd cache backed by an external identity
// directory.
//
// The cache never persists fallback records: a failed lookup returns a
// synthesized placeholder but leaves the store untouched, so subsequent
// calls keep retrying the directory.
package identity
