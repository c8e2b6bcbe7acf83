package connectivity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/autofill/internal/dbopen"
)

// Schema is the routes table. Strategies:
//   - "local": the handler registered with RegisterLocal (the default when
//     a service has no row).
//   - "http":  POST to endpoint through HTTPFactory.
//   - "noop":  succeed without doing anything.
const Schema = `
CREATE TABLE IF NOT EXISTS routes (
    service_name TEXT PRIMARY KEY,
    strategy     TEXT NOT NULL CHECK(strategy IN ('local', 'http', 'noop')),
    endpoint     TEXT,
    config       TEXT DEFAULT '{}',
    updated_at   INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
`

// OpenDB opens the routes database with the schema applied.
func OpenDB(path string) (*sql.DB, error) {
	return dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
}

// Init creates the routes table if it does not exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// SetRoute inserts or replaces the route of service. The watcher picks the
// change up on its next tick.
func SetRoute(ctx context.Context, db *sql.DB, service, strategy, endpoint string, config json.RawMessage) error {
	if config == nil {
		config = json.RawMessage(`{}`)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO routes (service_name, strategy, endpoint, config, updated_at)
		 VALUES (?, ?, ?, ?, strftime('%s', 'now'))
		 ON CONFLICT(service_name) DO UPDATE SET
		     strategy   = excluded.strategy,
		     endpoint   = excluded.endpoint,
		     config     = excluded.config,
		     updated_at = excluded.updated_at`,
		service, strategy, endpoint, string(config))
	if err != nil {
		return fmt.Errorf("connectivity: set route %s: %w", service, err)
	}
	return nil
}

// DeleteRoute removes the route of service, reverting it to local dispatch.
func DeleteRoute(ctx context.Context, db *sql.DB, service string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM routes WHERE service_name = ?`, service); err != nil {
		return fmt.Errorf("connectivity: delete route %s: %w", service, err)
	}
	return nil
}
