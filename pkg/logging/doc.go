// Package logging provides a process-wide structured logger for coldstore.
//
// The package wraps [github.com/rs/zerolog] and exposes a single global logger
// instance that is initialized once and then retrieved via GetLogger. All
// subsystems should obtain a logger through this package rather than
// constructing their own zerolog.Logger values, so that log level and output
// destination are controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "console"}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level JSON logs to stdout. Setting PRETTY=1 switches
// the default to the console writer, and DEBUG=1 lowers the level to debug.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info().Str("table", name).Msg("initializing table")
//
// The Debug, Info, Warn and Error helpers accept key/value pairs:
//
//	logging.Info("catalog applied", "tables", n)
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithTable(name)         // adds table field
//	log := logging.WithIndex(name)         // adds index field
//	log := logging.WithPartition(id)       // adds partition field
//	log := logging.WithComponent("delegate")
package logging
