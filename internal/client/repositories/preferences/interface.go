// Package preferences persists small app settings (locale, theme) as
// key/value rows in the local SQLite database.
package preferences

import "context"

// Repository stores raw preference values. Get returns (nil, nil) for a
// key that was never set.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
