// Package status defines the SpaceAPI status document.
//
// A Document has a static portion built once from configuration (space name,
// logo, location, contact) and a dynamic portion (state, sensors, extension
// fields) filled in per request. The static baseline is never mutated:
// every request works on a Clone.
package status
