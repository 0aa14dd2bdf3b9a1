// Package registry keeps the set of named schemas a service validates against.
//
// A Registry loads every *.json, *.yaml, *.yml and *.toml document under a
// directory (hidden entries skipped) through the schema parser and indexes
// them by schema name. Two documents declaring the same name fail the load.
//
// Loads are all or nothing: a new set is built off to the side and swapped in
// only when every document parsed, so a typo in one file never removes the
// schemas that were already serving. The failure is returned, logged and
// reported to OnReload hooks.
//
// With watching enabled, Watch follows the directory with fsnotify and reloads
// after a debounce interval:
//
//	reg, err := registry.New(&cfg.Registry, logger)
//	if err != nil {
//	    return err
//	}
//	if err := reg.Load(); err != nil {
//	    return err
//	}
//	go reg.Watch(ctx)
//
//	s, ok := reg.Get("user")
//
// Schemas returned by Get are shared between callers and must not be mutated.
// Git-backed directories are handled by the gitsource subpackage, which calls
// Reload after pulling new commits.
package registry
