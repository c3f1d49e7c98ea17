package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// messagePrefix domain-separates sensor update MACs from any other use of a secret.
const messagePrefix = "spaceapi-sensor-update\n"

// CanonicalMessage returns the bytes that are signed for a sensor update.
// Netstring framing keeps ("ab", "c") and ("a", "bc") distinct.
func CanonicalMessage(sensorKey, value string) []byte {
	b := make([]byte, 0, len(messagePrefix)+len(sensorKey)+len(value)+24)
	b = append(b, messagePrefix...)
	b = appendNetstring(b, sensorKey)
	b = appendNetstring(b, value)
	return b
}

func appendNetstring(b []byte, s string) []byte {
	b = strconv.AppendInt(b, int64(len(s)), 10)
	b = append(b, ':')
	b = append(b, s...)
	return append(b, ',')
}

func mac(secret []byte, sensorKey, value string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(CanonicalMessage(sensorKey, value))
	return h.Sum(nil)
}

// Sign returns the hex-encoded signature of (sensorKey, value) under the
// hex-encoded session secret.
func Sign(secretHex, sensorKey, value string) (string, error) {
	secret, err := hex.DecodeString(secretHex)
	if err != nil || len(secret) == 0 {
		return "", fmt.Errorf("%w: expected hex", ErrMalformedSecret)
	}
	return hex.EncodeToString(mac(secret, sensorKey, value)), nil
}

// decodeSignature parses a hex-encoded SHA-256 MAC.
func decodeSignature(signature string) ([]byte, error) {
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != sha256.Size {
		return nil, fmt.Errorf("%w: expected %d hex characters", ErrMalformedSignature, 2*sha256.Size)
	}
	return sig, nil
}
