// Package cache implements the interpretation cache: repeated
// evaluate-lines requests against the same line, in the same key, skip
// re-running parser.Parse and instead look up a cached generability
// record. Writes append fixed-size binary records to per-hash bucket
// files; chunk.go later compacts the buckets into indexed chunk files.
// Reads consult the bucket a signature hashes to first, then any
// compacted chunk whose key range covers it.
package cache

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"

	"github.com/snarrenberg/westerlines/constants"
	"github.com/snarrenberg/westerlines/model"
)

// Signature builds the deterministic cache key for a part's events in a
// given key: the pitch sequence (order matters, unlike a chord key)
// joined with the governing key's name. Two identical lines evaluated
// in the same key always produce the same signature.
func Signature(events []model.Event, key model.Key) string {
	s := key.String()
	for _, e := range events {
		s += "|" + e.Pitch.Name()
	}
	return s
}

// Record is one cached parse outcome: how many interpretations each
// line type produced, fixed-width per
// constants.CachedLineSignatureSize (4 bytes of signature hash, 4 bytes
// per line-type count, 1 byte of flags).
type Record struct {
	SignatureHash uint32
	Primary       uint32
	Bass          uint32
	Generic       uint32
	Generable     bool
}

// Counts renders the record as the per-line-type count map the
// evaluation pipeline stores on a part.
func (r Record) Counts() map[model.LineType]int {
	return map[model.LineType]int{
		model.Primary: int(r.Primary),
		model.Bass:    int(r.Bass),
		model.Generic: int(r.Generic),
	}
}

func bucketPath(dir string, sigHash uint32) string {
	return filepath.Join(dir, fmt.Sprintf("%03d.dat", sigHash%1000))
}

// Put appends a record of counts to the bucket file for sig's hash,
// creating the cache directory and file as needed.
func Put(dir string, sig string, counts map[model.LineType]int) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return fmt.Errorf("cache: creating %s: %w", dir, err)
	}
	h := hashSignature(sig)
	path := bucketPath(dir, h)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0777)
	if err != nil {
		return fmt.Errorf("cache: opening %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, constants.CachedLineSignatureSize)
	binary.LittleEndian.PutUint32(buf[0:4], h)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(counts[model.Primary]))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(counts[model.Bass]))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(counts[model.Generic]))
	if counts[model.Primary]+counts[model.Bass]+counts[model.Generic] > 0 {
		buf[16] = 1
	}
	_, err = f.Write(buf)
	return err
}

func hashSignature(sig string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(sig))
	return h.Sum32()
}

// Get consults the cache for sig's parse outcome: first the bucket file
// its hash routes to, then every compacted chunk whose key range covers
// it. When a line was cached more than once, the latest record wins.
func Get(dir string, sig string) (Record, bool) {
	h := hashSignature(sig)
	found, ok := Record{}, false
	if records, err := ReadBucket(bucketPath(dir, h)); err == nil {
		for _, r := range records {
			if r.SignatureHash == h {
				found, ok = r, true
			}
		}
	}
	if ok {
		return found, true
	}

	overviews, err := ReadOverviews(dir)
	if err != nil {
		return Record{}, false
	}
	key := chunkKey(h)
	for _, ov := range overviews {
		if key < ov.Start || key > ov.End {
			continue
		}
		records, err := Lookup(filepath.Join(dir, ov.Filename), sig)
		if err != nil {
			continue
		}
		for _, r := range records {
			found, ok = r, true
		}
	}
	return found, ok
}

// ReadBucket reads every fixed-width record out of a bucket file.
func ReadBucket(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	defer f.Close()

	var out []Record
	r := bufio.NewReader(f)
	for {
		buf := make([]byte, constants.CachedLineSignatureSize)
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cache: reading %s: %w", path, err)
		}
		out = append(out, Record{
			SignatureHash: binary.LittleEndian.Uint32(buf[0:4]),
			Primary:       binary.LittleEndian.Uint32(buf[4:8]),
			Bass:          binary.LittleEndian.Uint32(buf[8:12]),
			Generic:       binary.LittleEndian.Uint32(buf[12:16]),
			Generable:     buf[16] != 0,
		})
	}
	return out, nil
}

// DeleteAll removes every bucket file from dir, leaving chunk files in
// place.
func DeleteAll(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if isBucketName(e.Name()) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
