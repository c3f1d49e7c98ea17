// Package logging builds the structured slog logger shared by every
// component of the SpaceAPI server.
//
// Entries carry service and version fields. Format is json (default) or
// text; output is stdout (default) or stderr:
//
//	logging:
//	  level: info
//	  format: json
//	  output: stdout
//
// Components tag their entries with Component:
//
//	log := logging.New(cfg.Logging, version)
//	log.Component("session").Info("session created", "sensor", id)
//
// Session secrets and signatures must never be logged. Session IDs may be.
package logging
