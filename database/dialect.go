package database

// Dialect is the type of database dialect.
type Dialect string

const (
	DialectClickHouse Dialect = "clickhouse"
	DialectMySQL      Dialect = "mysql"
	DialectPostgres   Dialect = "postgresql"
)
