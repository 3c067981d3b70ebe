// Package store is the key/value document persistence the engine consumes.
// Values are JSON documents addressed by opaque string keys. There are no
// transactions across keys.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	// Get decodes the document at key into dest, or returns ErrNotFound.
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	// Keys lists the keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

const (
	PrefixStudents   = "students/"
	PrefixBadges     = "badges/"
	PrefixMatches    = "matches/"
	PrefixRecords    = "records/"
	PrefixMigrations = "migrations/"
	KeySettings      = "settings"
)

func StudentKey(id string) string  { return PrefixStudents + id }
func BadgesKey(id string) string   { return PrefixBadges + id }
func MatchKey(id string) string    { return PrefixMatches + id }
func MigrationKey(n string) string { return PrefixMigrations + n }
func RecordKey(matchID, studentID string) string {
	return PrefixRecords + matchID + "/" + studentID
}

// IDFromKey strips prefix from key.
func IDFromKey(prefix, key string) string {
	if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
