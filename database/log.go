package database

import "github.com/testservices/testservices"

var log = testservices.StdLogger()

// SetLogger sets the logger for package output
func SetLogger(l testservices.Logger) {
	log = l
}
