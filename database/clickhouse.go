package database

import (
	"github.com/google/uuid"

	"github.com/testservices/testservices/container"
)

const (
	// DefaultClickHouseImage is the image ClickHouse runs unless overridden.
	DefaultClickHouseImage   = "docker.io/clickhouse/clickhouse-server"
	DefaultClickHouseVersion = "latest"

	clickhousePort      = 9000
	clickhouseUsername  = "clickhouseuser"
	clickhouseDatabase  = "default"
	clickhouseConfigDir = "/etc/clickhouse-server/config.d"
)

// ClickHouse returns a ClickHouse server in a container, published on an
// ephemeral host port and provisioned with a random password. A custom
// server configuration directory can be mounted with [WithConfigDir].
func ClickHouse(opts ...OptionsFunc) *Container {
	o := options{
		image:    DefaultClickHouseImage,
		version:  DefaultClickHouseVersion,
		username: clickhouseUsername,
		database: clickhouseDatabase,
	}
	for _, opt := range opts {
		opt(&o)
	}
	password := uuid.NewString()

	env := map[string]string{
		"CLICKHOUSE_USER":                      o.username,
		"CLICKHOUSE_PASSWORD":                  password,
		"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1",
		"CLICKHOUSE_LOG_LEVEL":                 "TRACE",
	}
	ready := "<Information> Application: Ready for connections."
	phrases := []string{ready}
	if o.database != clickhouseDatabase {
		// Creating a database makes the entrypoint start the server once for
		// provisioning and restart it, so readiness is the second
		// announcement.
		env["CLICKHOUSE_DB"] = o.database
		phrases = append(phrases, ready)
	}

	copts := []container.OptionsFunc{
		container.WithEnv(env),
		container.WithPort(clickhousePort, 0),
		container.WithReadyPhrases(phrases...),
	}
	if o.configDir != "" {
		copts = append(copts, container.WithVolume(o.configDir, clickhouseConfigDir, "ro"))
	}
	copts = append(copts, o.containerOpts...)

	return &Container{
		inner:    container.New(o.image, o.version, copts...),
		port:     clickhousePort,
		dialect:  DialectClickHouse,
		driver:   o.driver,
		username: o.username,
		password: password,
		database: o.database,
	}
}
