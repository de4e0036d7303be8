package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Source looks up configuration values by key.
type Source interface {
	Lookup(key string) (string, bool)
}

type osEnv struct{}

func (osEnv) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// OSEnv returns a Source backed by the process environment.
func OSEnv() Source { return osEnv{} }

// MapSource is a fixed in-memory Source.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// DotEnv returns a Source backed by a dotenv file.
func DotEnv(path string) (Source, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dotenv file %s: %w", path, err)
	}
	return MapSource(vars), nil
}

// Environment is a database that somebody else runs, announced through a
// connection URL in a configuration variable. It creates and destroys
// nothing; the service exists exactly when the variable is set.
type Environment struct {
	key     string
	source  Source
	wait    bool
	timeout time.Duration
	poll    time.Duration
}

// FromEnvironment returns a service that reads a database URL of the form
// dialect[+driver]://user[:password]@host[:port][/database] from the named
// variable. By default the process environment is consulted; use
// [WithSource] to read from a dotenv file or a fixed map, and
// [WithWaitForPort] to have Create block until the server accepts TCP
// connections.
func FromEnvironment(key string, opts ...OptionsFunc) *Environment {
	o := options{source: OSEnv()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Environment{
		key:     key,
		source:  o.source,
		wait:    o.waitForPort,
		timeout: o.waitTimeout,
		poll:    o.pollFrequency,
	}
}

// ServiceName returns the variable name the URL is read from.
func (e *Environment) ServiceName() string { return e.key }

// Possible reports whether the variable is set.
func (e *Environment) Possible(ctx context.Context) bool {
	_, ok := e.source.Lookup(e.key)
	return ok
}

// Exists mirrors Possible: an externally run database exists exactly when
// it is announced.
func (e *Environment) Exists(ctx context.Context) (bool, error) {
	_, ok := e.source.Lookup(e.key)
	return ok, nil
}

// Create verifies the variable parses and, when configured with
// [WithWaitForPort], blocks until the server accepts TCP connections.
func (e *Environment) Create(ctx context.Context) error {
	db, err := e.Get()
	if err != nil {
		return err
	}
	if !e.wait {
		return nil
	}
	log.Printf("waiting for %s", db.addr())
	return WaitForServer(ctx, db.addr(), e.timeout, e.poll)
}

// Get parses the variable into a Database.
func (e *Environment) Get() (Database, error) {
	raw, ok := e.source.Lookup(e.key)
	if !ok {
		return Database{}, fmt.Errorf("variable %s is not set", e.key)
	}
	return Parse(raw)
}

// Destroy does nothing; the database's owner is responsible for it.
func (e *Environment) Destroy(ctx context.Context) error { return nil }
