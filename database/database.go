package database

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Database describes a usable database: where it is, how to authenticate,
// and which dialect speaks to it.
type Database struct {
	Host     string
	Port     int
	Username string
	// Password may be empty for servers that do not require one.
	Password string
	// Database is the database name within the server, when one applies.
	Database string
	Dialect  Dialect
	// Driver optionally names a client-side driver, rendered into the URL
	// as dialect+driver.
	Driver string
}

// URL renders the database as a connection URL. The password is omitted
// from the auth section when empty, the port segment when zero, and the
// path segment when no database name is set.
func (d Database) URL() string {
	auth := d.Username
	if d.Password != "" {
		auth += ":" + d.Password
	}
	protocol := string(d.Dialect)
	if d.Driver != "" {
		protocol += "+" + d.Driver
	}
	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString("://")
	b.WriteString(auth)
	b.WriteString("@")
	b.WriteString(d.Host)
	if d.Port != 0 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(d.Port))
	}
	if d.Database != "" {
		b.WriteString("/")
		b.WriteString(d.Database)
	}
	return b.String()
}

// Open returns a database/sql handle using the driver matching the
// dialect. The connection is lazy; use Ping to verify reachability.
func (d Database) Open() (*sql.DB, error) {
	switch d.Dialect {
	case DialectPostgres:
		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.Username, d.Password),
			Host:   d.addr(),
		}
		if d.Password == "" {
			u.User = url.User(d.Username)
		}
		if d.Database != "" {
			u.Path = "/" + d.Database
		}
		return sql.Open("pgx", u.String())
	case DialectMySQL:
		cfg := mysql.NewConfig()
		cfg.User = d.Username
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = d.addr()
		cfg.DBName = d.Database
		cfg.ParseTime = true
		return sql.Open("mysql", cfg.FormatDSN())
	case DialectClickHouse:
		return clickhouse.OpenDB(&clickhouse.Options{
			Addr: []string{d.addr()},
			Auth: clickhouse.Auth{
				Database: d.Database,
				Username: d.Username,
				Password: d.Password,
			},
		}), nil
	default:
		return nil, fmt.Errorf("no driver for dialect %q", d.Dialect)
	}
}

func (d Database) addr() string {
	if d.Port == 0 {
		return d.Host
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Parse builds a Database from a connection URL of the form
// dialect[+driver]://user[:password]@host[:port][/database].
func Parse(rawURL string) (Database, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Database{}, fmt.Errorf("invalid database url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Database{}, fmt.Errorf("invalid database url %q: need dialect://host", rawURL)
	}
	dialect, driver, _ := strings.Cut(u.Scheme, "+")
	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Database{}, fmt.Errorf("invalid port in database url %q: %w", rawURL, err)
		}
	}
	var username, password string
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
	}
	return Database{
		Host:     u.Hostname(),
		Port:     port,
		Username: username,
		Password: password,
		Database: strings.TrimPrefix(u.Path, "/"),
		Dialect:  Dialect(dialect),
		Driver:   driver,
	}, nil
}
