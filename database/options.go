package database

import (
	"time"

	"github.com/testservices/testservices/container"
)

type options struct {
	image         string
	version       string
	driver        string
	username      string
	database      string
	configDir     string
	source        Source
	waitForPort   bool
	waitTimeout   time.Duration
	pollFrequency time.Duration
	containerOpts []container.OptionsFunc
}

// OptionsFunc configures a database service.
type OptionsFunc func(o *options)

// WithImage overrides the default image and version.
func WithImage(image, version string) OptionsFunc {
	return func(o *options) {
		o.image = image
		o.version = version
	}
}

// WithDriver sets the client-side driver name reported by the resulting
// [Database], rendered into its URL as dialect+driver.
func WithDriver(driver string) OptionsFunc {
	return func(o *options) { o.driver = driver }
}

// WithUsername overrides the default username the server is provisioned
// with.
func WithUsername(username string) OptionsFunc {
	return func(o *options) { o.username = username }
}

// WithDatabase overrides the default database name the server is
// provisioned with.
func WithDatabase(name string) OptionsFunc {
	return func(o *options) { o.database = name }
}

// WithConfigDir bind-mounts a directory of server configuration into the
// container, where the engine supports one (ClickHouse mounts it read-only
// at /etc/clickhouse-server/config.d).
func WithConfigDir(dir string) OptionsFunc {
	return func(o *options) { o.configDir = dir }
}

// WithSource injects the configuration source consulted by
// [FromEnvironment], replacing the process environment.
func WithSource(source Source) OptionsFunc {
	return func(o *options) { o.source = source }
}

// WithWaitForPort makes [FromEnvironment] verify during Create that the
// database's TCP port accepts connections.
func WithWaitForPort() OptionsFunc {
	return func(o *options) { o.waitForPort = true }
}

// WithWaitTimeout bounds the port wait enabled by [WithWaitForPort].
func WithWaitTimeout(d time.Duration) OptionsFunc {
	return func(o *options) { o.waitTimeout = d }
}

// WithPollFrequency sets the retry interval of the port wait enabled by
// [WithWaitForPort].
func WithPollFrequency(d time.Duration) OptionsFunc {
	return func(o *options) { o.pollFrequency = d }
}

// WithContainerOptions appends options passed through to the underlying
// [container.Container], for timeouts, explicit names or an injected
// runtime.
func WithContainerOptions(opts ...container.OptionsFunc) OptionsFunc {
	return func(o *options) { o.containerOpts = append(o.containerOpts, opts...) }
}
