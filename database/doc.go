// Package database provides database services for test suites: ephemeral
// Postgres, MariaDB and ClickHouse containers, and a variant that talks to
// an already-running server named by an environment variable.
//
// Every service yields a [Database] value describing where the server is
// and how to authenticate; [Database.Open] returns a live database/sql
// handle using the matching driver, and [Database.URL] the equivalent
// connection URL.
//
//	db, cleanup, err := testservices.Acquire(ctx, database.Postgres())
//	if err != nil {
//		cleanup()
//		t.Fatal(err)
//	}
//	defer cleanup()
//	conn, err := db.Open()
//
// The container-backed services are thin profiles over
// [container.Container]: each knows its image, environment, server port and
// the log phrases that signal readiness, and generates one-off credentials
// per instance.
package database
