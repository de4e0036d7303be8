package database

import (
	"github.com/google/uuid"

	"github.com/testservices/testservices/container"
)

const (
	// DefaultPostgresImage is the image Postgres runs unless overridden.
	DefaultPostgresImage   = "docker.io/library/postgres"
	DefaultPostgresVersion = "latest"

	postgresPort     = 5432
	postgresUsername = "postgres"
	postgresDatabase = "postgresdb"
)

// Postgres returns a PostgreSQL server in a container, published on an
// ephemeral host port and provisioned with a random password.
func Postgres(opts ...OptionsFunc) *Container {
	o := options{
		image:    DefaultPostgresImage,
		version:  DefaultPostgresVersion,
		username: postgresUsername,
		database: postgresDatabase,
	}
	for _, opt := range opts {
		opt(&o)
	}
	password := uuid.NewString()

	copts := []container.OptionsFunc{
		container.WithEnv(map[string]string{
			"POSTGRES_USER":     o.username,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       o.database,
		}),
		container.WithPort(postgresPort, 0),
		// The init process runs the server once to provision it, so the
		// ready line shows up twice; the init-complete line anchors the scan
		// past the throwaway run.
		container.WithReadyPhrases(
			"PostgreSQL init process complete; ready for start up",
			"LOG:  database system is ready to accept connections",
		),
	}
	copts = append(copts, o.containerOpts...)

	return &Container{
		inner:    container.New(o.image, o.version, copts...),
		port:     postgresPort,
		dialect:  DialectPostgres,
		driver:   o.driver,
		username: o.username,
		password: password,
		database: o.database,
	}
}
