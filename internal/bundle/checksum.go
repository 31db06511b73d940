package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/hpungsan/nesta/internal/errors"
)

// Checksum algorithm prefixes. A bare hex digest is SHA-256.
const (
	PrefixSHA256 = "sha256:"
	PrefixBLAKE3 = "blake3:"
)

// NormalizeChecksum lowercases and trims a declared checksum.
func NormalizeChecksum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FileChecksum computes the digest of path with the algorithm named by the
// prefix of declared, and returns it in the same notation.
func FileChecksum(path, declared string) (string, error) {
	declared = NormalizeChecksum(declared)

	var (
		h      hash.Hash
		prefix string
	)
	switch {
	case strings.HasPrefix(declared, PrefixBLAKE3):
		h, prefix = blake3.New(), PrefixBLAKE3
	case strings.HasPrefix(declared, PrefixSHA256):
		h, prefix = sha256.New(), PrefixSHA256
	default:
		h = sha256.New()
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.NewFilesystem("open", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", errors.NewFilesystem("read", path, err)
	}
	return prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum compares the file digest with declared. An empty declared
// checksum always verifies.
func VerifyChecksum(path, declared string) error {
	declared = NormalizeChecksum(declared)
	if declared == "" {
		return nil
	}
	actual, err := FileChecksum(path, declared)
	if err != nil {
		return err
	}
	if actual != declared {
		return errors.NewIntegrity(declared, actual)
	}
	return nil
}

// describe renders an outcome reason for err.
func describe(err error) string {
	if ne, ok := errors.As(err); ok {
		return fmt.Sprintf("%s: %s", ne.Code, ne.Message)
	}
	return err.Error()
}
