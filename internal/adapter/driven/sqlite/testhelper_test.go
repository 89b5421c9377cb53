package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// newMemoryDB opens a private in-memory client state database for t with
// the credentials and settings schema applied. Both pools point at the same
// named shared-cache database, so writes are visible to the reader.
func newMemoryDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape("smartq-"+t.Name()))

	open := func(maxConns int) *sql.DB {
		conn, err := sql.Open("sqlite", dsn)
		require.NoError(t, err, "open client state db")
		conn.SetMaxOpenConns(maxConns)
		require.NoError(t, conn.PingContext(context.Background()), "ping client state db")
		return conn
	}

	db := &DB{Writer: open(1), Reader: open(4), path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer), "apply client state schema")
	return db
}
