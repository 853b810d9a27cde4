package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Sha256Hex returns the hex SHA-256 digest of data.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadFileDigest loads path and returns its contents with their digest.
func ReadFileDigest(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, Sha256Hex(data), nil
}
