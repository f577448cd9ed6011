// Package nextconfig provides versioned configuration persistence.
//
// The package stores each configuration schema as one TOML file in a
// directory and upgrades files written by older program versions through
// registered, forward-only migration steps. Applications declare their
// schemas as plain structs, register them once, and read and write them
// through a Store.
//
// # Schemas
//
// A schema is a struct implementing Config. Both methods are called on
// the zero value and describe the schema itself:
//
//	type Server struct {
//	    Host   string `toml:"host"`
//	    Port   int    `toml:"port"`
//	    UseTLS bool   `toml:"use_tls"`
//	}
//
//	func (Server) ConfigVersion() uint32   { return 2 }
//	func (Server) ConfigFileName() string  { return "server.toml" }
//
// Schemas with non-zero defaults additionally implement Defaulter with a
// pointer receiver:
//
//	func (s *Server) SetDefaults() {
//	    s.Host = "localhost"
//	    s.Port = 8080
//	}
//
// # Versioning and Migration
//
// Every file carries a reserved "_version" key. When a loaded file's
// version is older than the schema's, the store walks it forward one
// version at a time, merging schema defaults and applying the step
// registered for each boundary:
//
//	reg := nextconfig.NewRegistry()
//	nextconfig.MustRegister[Server](reg)
//	nextconfig.MustRegisterMigration[Server](reg, 1, func(record map[string]any) error {
//	    record["use_tls"] = record["ssl"] == true
//	    delete(record, "ssl")
//	    return nil
//	})
//
// Files from a newer version are rejected: migration never runs
// backwards. Migrated and freshly created files are written back
// immediately, so the directory always holds current-version records.
//
// # Stores
//
// A Store binds a registry snapshot to a directory:
//
//	store := nextconfig.NewStore(dir, reg)
//	if err := store.LoadAll(); err != nil {
//	    log.Fatal(err)
//	}
//
//	srv := nextconfig.Get[Server](store)
//
//	err := nextconfig.Update(store, func(s *Server) error {
//	    s.Port = 9090
//	    return nil
//	})
//
// All writes go through a write-temp, fsync, rename sequence under an
// exclusive file lock, so readers never observe a half-written file.
//
// # Error Handling
//
// The package defines sentinel errors for programming mistakes and
// structured errors for runtime failures:
//
//   - ErrAlreadyRegistered: duplicate schema, file name, or migration step
//   - ErrUnregistered: operation on a schema that was never registered
//   - ErrFutureVersion: file written by a newer schema version
//   - DecodeError, EncodeError, MigrationError: structured failures
//     carrying the file name and, for migrations, the source version
package nextconfig
