package database

import (
	"github.com/google/uuid"

	"github.com/testservices/testservices/container"
)

const (
	// DefaultMariaDBImage is the image MariaDB runs unless overridden.
	DefaultMariaDBImage   = "docker.io/library/mariadb"
	DefaultMariaDBVersion = "latest"

	mariadbPort     = 3306
	mariadbUsername = "mysqluser"
	mariadbDatabase = "mysqldb"
)

// MariaDB returns a MariaDB server in a container, published on an
// ephemeral host port and provisioned with random user and root passwords.
// The resulting Database speaks the mysql dialect.
func MariaDB(opts ...OptionsFunc) *Container {
	o := options{
		image:    DefaultMariaDBImage,
		version:  DefaultMariaDBVersion,
		username: mariadbUsername,
		database: mariadbDatabase,
	}
	for _, opt := range opts {
		opt(&o)
	}
	password := uuid.NewString()

	copts := []container.OptionsFunc{
		container.WithEnv(map[string]string{
			"MARIADB_USER":          o.username,
			"MARIADB_PASSWORD":      password,
			"MARIADB_DATABASE":      o.database,
			"MARIADB_ROOT_PASSWORD": uuid.NewString(),
		}),
		container.WithPort(mariadbPort, 0),
		// Provisioning runs a temporary server first; waiting for its
		// announcement keeps the scan from matching the throwaway run's
		// ready line.
		container.WithReadyPhrases(
			"Temporary server started.",
			"ready for connections.",
		),
	}
	copts = append(copts, o.containerOpts...)

	return &Container{
		inner:    container.New(o.image, o.version, copts...),
		port:     mariadbPort,
		dialect:  DialectMySQL,
		driver:   o.driver,
		username: o.username,
		password: password,
		database: o.database,
	}
}
