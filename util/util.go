// Package util collects the small generic helpers used throughout the
// analysis pipeline: map key extraction, binary (gob) persistence for
// the cache package, directory gathering for batch CLI input, and the
// handful of numeric generics.
package util

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/constraints"
)

// RecreateDir removes and recreates dir, used to reset the cache output
// directory between full reindexing runs.
func RecreateDir(dir string) {
	os.RemoveAll(dir)
	os.MkdirAll(dir, 0777)
}

// GatherScoreFiles walks path collecting files with any of the given
// extensions, up to maxNum (0 == unlimited), covering the module's two
// score-import formats (.json, .mid/.midi).
func GatherScoreFiles(path string, extensions []string, maxNum int) []string {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(s, ext) {
				if maxNum == 0 || len(res) < maxNum {
					res = append(res, s)
				}
				break
			}
		}
		return nil
	}
	filepath.WalkDir(path, walk)
	return res
}

// GetKeys returns a map's keys as a slice, in arbitrary order; callers
// that need determinism sort the result themselves (Go map iteration
// order is not stable, and the parser guarantees deterministic output,
// so nothing downstream trusts this order as-is).
func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// CreateBinary gob-encodes data and writes it to filename, used by the
// cache package to persist the chunk overview list.
func CreateBinary(filename string, data any) error {
	buf := new(bytes.Buffer)
	encoder := gob.NewEncoder(buf)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding %s: %w", filename, err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer f.Close()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// OpenFileOrPanic opens path, panicking on failure. Reserved for
// cache-internal call sites where a missing file means a bug in how the
// cache itself was populated, not a user-facing error.
func OpenFileOrPanic(path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		panic("Couldn't read file: " + err.Error())
	}
	return f
}

// ReadBinary gob-decodes a file written by CreateBinary.
func ReadBinary[A any](path string) (A, error) {
	var data A
	f, err := os.Open(path)
	if err != nil {
		return data, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := gob.NewDecoder(f)
	if err := decoder.Decode(&data); err != nil {
		return data, fmt.Errorf("decoding %s: %w", path, err)
	}
	return data, nil
}

// Min returns the smaller of two ordered integers.
func Min[A constraints.Integer](a, b A) A {
	if a > b {
		return b
	}
	return a
}

// Sum adds up a slice of integers into a uint64 total.
func Sum[A constraints.Integer](nums []A) uint64 {
	var total uint64
	for _, v := range nums {
		total += uint64(v)
	}
	return total
}

// FilterZeros drops zero-valued elements, used when counting the
// elaborations in a dependency-level array in report.WriteLineDetail.
func FilterZeros[A constraints.Integer](nums []A) []A {
	var res []A
	for _, v := range nums {
		if v != 0 {
			res = append(res, v)
		}
	}
	return res
}
