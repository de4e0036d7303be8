// Package testservices provisions and tears down ephemeral backing services
// for test suites and local development.
//
// A [Service] is anything with a lifecycle: it may be possible or not in the
// current environment, it may already exist and be reusable, and it can be
// created, used and destroyed. The concrete services in this module are
// docker containers (package container) and the databases that run inside
// them (package database), but the contract is deliberately small so that
// anything obtainable can participate.
//
// A [Collection] registers services under unique names and drives their
// lifecycle in bulk:
//
//	coll, err := testservices.NewCollection("",
//		database.Postgres(),
//		database.ClickHouse(),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := coll.Up(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer coll.Down(ctx)
//
// A [Provider] picks the first usable alternative from an ordered list, for
// example a database from the environment when configured, falling back to
// a fresh container otherwise:
//
//	provider := testservices.NewProvider[database.Database](
//		database.FromEnvironment("TEST_DB_URL"),
//		database.Postgres(),
//	)
//	db, err := provider.Acquire(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer provider.Release(ctx)
package testservices
