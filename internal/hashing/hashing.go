package hashing

import (
	"crypto/sha512"
	"encoding/hex"

	"go.uber.org/zap"
)

var logger = zap.NewNop()

func Initialize(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// Calculate returns the hex encoded SHA-512 digest of data.
func Calculate(data []byte) string {
	hash := sha512.New()
	if _, err := hash.Write(data); err != nil {
		logger.Error("failed to write to the hash function: " + err.Error())
		return ""
	}

	return hex.EncodeToString(hash.Sum(nil))
}

func CalculateSHA512(text string) string {
	return Calculate([]byte(text))
}
