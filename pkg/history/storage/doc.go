// Package storage provides the history storage backends.
//
//   - SQLite: durable storage on modernc.org/sqlite (pure Go, no cgo)
//   - Memory: in-process storage for tests and ephemeral deployments
//
// The SQLite backend enables WAL mode and a busy timeout through connection
// string pragmas, so every pooled connection shares them, and keeps a
// schema_version table that is checked on open.
//
//	store, err := storage.New(&cfg.History, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	records, err := store.Query(ctx, &history.Query{SchemaName: "user", Limit: 20})
package storage
