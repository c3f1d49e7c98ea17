// Package api is the HTTP front end of the SpaceAPI server.
//
// Routes:
//
//	GET  /, /status.json             assembled status document
//	POST /sensors/{sensor}/sessions  issue a single-use update session
//	PUT  /sensors/{sensor}           signed sensor update (JSON or form)
//	GET  /health                     datastore ping
//	GET  /metrics                    Prometheus metrics (when enabled)
//	GET  /audit                      recent write attempts (when the database is enabled)
//	GET  /ws                         status.updated event stream (when enabled)
//
// Errors use the envelope {"status":"error","reason":"..."}. Session
// failures (unknown, expired or wrong signature) all map to 401 with the
// same reason so a caller cannot tell them apart.
package api
