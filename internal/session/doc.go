// Package session issues and verifies the short-lived, single-use sessions
// that authorize one sensor write.
//
// # Protocol
//
//  1. The agent asks for a session for one sensor. The server stores a
//     record with a fresh 32-byte secret under spaceapi:session:<id> with a
//     TTL and returns the id and the hex-encoded secret.
//  2. The agent computes hex(HMAC-SHA256(secret, message)) where message is
//
//     "spaceapi-sensor-update\n" + netstring(sensor_key) + netstring(value)
//
//     and netstring(s) is "<decimal byte length>:<s>,".
//  3. The agent sends value, session id and signature. The server removes the
//     record with an atomic get-and-delete before checking anything else, so
//     every attempt, successful or not, ends the session.
//
// The secret is only ever sent in the create response. It is never logged.
//
// Store failures are reported as ErrUnavailable and never treated as a
// successful verification.
package session
