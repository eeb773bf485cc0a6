// Package keys provides the root keys trusted to attest a HaLo tag's pk2.
//
// This package implements the crypto.RootProvider interface. The built-in
// root is the Arx signing key published alongside the HaLo firmware; extra or
// replacement roots can be loaded from a file.
//
// # Roots File Format
//
// One hex-encoded secp256k1 public key per line, compressed or uncompressed.
// Blank lines and text after '#' are ignored:
//
//	# ArxHaloSigningKey1 2024-03-21
//	029502cb849e4d9e451687a239f3feee74e0c0cdebb10dc8c2a00b3744ffdafb35
//
// # Loading Roots
//
// Use the FileRootProvider, which falls back to DefaultRoots when no path is
// set:
//
//	provider := &keys.FileRootProvider{Path: "roots.txt"}
//	roots, err := provider.GetRoots(context.Background())
//	if err != nil {
//		log.Fatal(err)
//	}
package keys

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anchorageoss/haloverify/crypto"
)

// ArxHaloSigningKey1 is the Arx root key dated 2024-03-21.
const ArxHaloSigningKey1 = "029502cb849e4d9e451687a239f3feee74e0c0cdebb10dc8c2a00b3744ffdafb35"

// FileRootProvider implements crypto.RootProvider by reading from a file
type FileRootProvider struct {
	Path string
}

var _ crypto.RootProvider = (*FileRootProvider)(nil)

// GetRoots loads the roots file, or returns DefaultRoots when Path is empty.
func (f *FileRootProvider) GetRoots(ctx context.Context) ([][]byte, error) {
	if f.Path == "" {
		return DefaultRoots(), nil
	}
	return LoadRootsFromFile(f.Path)
}

// DefaultRoots returns the built-in root keys.
func DefaultRoots() [][]byte {
	root, err := hex.DecodeString(ArxHaloSigningKey1)
	if err != nil {
		panic(err)
	}
	return [][]byte{root}
}

// LoadRootsFromFile reads root keys from path
func LoadRootsFromFile(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roots file: %w", err)
	}

	roots, err := ParseRoots(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roots, nil
}

// ParseRoots parses the roots file format. Every key must be a valid
// secp256k1 point and at least one key must be present.
func ParseRoots(data []byte) ([][]byte, error) {
	var roots [][]byte

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, err := hex.DecodeString(strings.TrimPrefix(line, "0x"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid hex: %w", lineNo, err)
		}
		if _, err := crypto.ParsePublicKey(key); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		roots = append(roots, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan roots: %w", err)
	}

	if len(roots) == 0 {
		return nil, errors.New("no root keys found")
	}
	return roots, nil
}
