// chunk.go compacts the per-bucket append logs cache.go produces into
// larger chunk files: a sorted-key gob index up front (model.CacheIndex,
// keyed by signature), followed by a flat data section of fixed-width
// records. The overview list naming every chunk and its key range is
// persisted alongside the chunks so reads can route a signature to the
// right file.
package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/snarrenberg/westerlines/constants"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/util"
)

// chunkRecordSize is the fixed width of one record in a chunk's data
// section: the signature hash plus the three line-type counts. The
// generability flag is derived on read.
const chunkRecordSize = 16

// overviewFilename is where Compact persists the chunk overview list
// within the cache directory.
const overviewFilename = "overview.bin"

type sigToRecords = map[string][]Record

func chunkKey(sigHash uint32) string {
	return fmt.Sprintf("%010d", sigHash)
}

func sortedSignatures(m sigToRecords) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func makeChunk(dir string, m sigToRecords, keys []string) (model.CacheChunkOverview, error) {
	overview := model.CacheChunkOverview{
		Filename: uuid.New().String() + ".dat",
		Start:    keys[0],
		End:      keys[len(keys)-1],
	}

	index := make(model.CacheIndex)
	dataBuf := new(bytes.Buffer)
	for _, key := range keys {
		start := uint32(dataBuf.Len())
		for _, rec := range m[key] {
			binary.Write(dataBuf, binary.LittleEndian, rec.SignatureHash)
			binary.Write(dataBuf, binary.LittleEndian, rec.Primary)
			binary.Write(dataBuf, binary.LittleEndian, rec.Bass)
			binary.Write(dataBuf, binary.LittleEndian, rec.Generic)
		}
		index[key] = model.Pair{Start: start, End: uint32(dataBuf.Len())}
	}

	indexBuf := new(bytes.Buffer)
	if err := gob.NewEncoder(indexBuf).Encode(index); err != nil {
		return overview, fmt.Errorf("cache: encoding chunk index: %w", err)
	}

	sizeBuf := new(bytes.Buffer)
	binary.Write(sizeBuf, binary.LittleEndian, uint32(indexBuf.Len()))

	final := append(sizeBuf.Bytes(), indexBuf.Bytes()...)
	final = append(final, dataBuf.Bytes()...)

	path := filepath.Join(dir, overview.Filename)
	if err := os.WriteFile(path, final, 0777); err != nil {
		return overview, fmt.Errorf("cache: writing chunk %s: %w", path, err)
	}
	return overview, nil
}

// Compact reads every bucket file's records, groups them by signature
// hash (rendered as a string key for sorting), and writes out chunk
// files bounded by constants.PreferredCacheChunkSize. The resulting
// overview list is appended to any previously persisted one so reads
// keep seeing chunks from earlier compactions.
func Compact(dir string) ([]model.CacheChunkOverview, error) {
	grouped, err := groupBucketRecords(dir)
	if err != nil {
		return nil, err
	}
	keys := sortedSignatures(grouped)
	if len(keys) == 0 {
		return nil, nil
	}

	var overviews []model.CacheChunkOverview
	var pending []string
	size := 0
	for i, key := range keys {
		pending = append(pending, key)
		size += len(grouped[key])*chunkRecordSize + len(key) + 4

		isLast := i == len(keys)-1
		if size > constants.PreferredCacheChunkSize || isLast {
			chunk, err := makeChunk(dir, grouped, pending)
			if err != nil {
				return overviews, err
			}
			overviews = append(overviews, chunk)
			pending = nil
			size = 0
		}
	}

	all, _ := ReadOverviews(dir)
	all = append(all, overviews...)
	if err := util.CreateBinary(filepath.Join(dir, overviewFilename), all); err != nil {
		return overviews, err
	}
	// The bucket logs are now folded into chunks; remove them so a later
	// compaction starts from fresh buckets only.
	if err := DeleteAll(dir); err != nil {
		return overviews, err
	}
	return overviews, nil
}

// ReadOverviews loads the persisted chunk overview list. When nothing
// has been compacted yet the overview file does not exist and it
// returns an error.
func ReadOverviews(dir string) ([]model.CacheChunkOverview, error) {
	return util.ReadBinary[[]model.CacheChunkOverview](filepath.Join(dir, overviewFilename))
}

// isBucketName distinguishes the fixed "%03d.dat" bucket files from the
// UUID-named chunk files sharing the cache directory.
func isBucketName(name string) bool {
	if len(name) != len("000.dat") || filepath.Ext(name) != ".dat" {
		return false
	}
	for _, r := range name[:3] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func groupBucketRecords(dir string) (sigToRecords, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: reading %s: %w", dir, err)
	}
	grouped := make(sigToRecords)
	for _, e := range entries {
		if !isBucketName(e.Name()) {
			continue
		}
		records, err := ReadBucket(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			key := chunkKey(r.SignatureHash)
			grouped[key] = append(grouped[key], r)
		}
	}
	return grouped, nil
}

// Lookup searches a compacted chunk file for sig's hash and returns the
// matching records: decode the index, seek to the signature's span, read
// its fixed-width records.
func Lookup(chunkPath string, sig string) ([]Record, error) {
	f, err := os.Open(chunkPath)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", chunkPath, err)
	}
	defer f.Close()

	var sizeBuf [4]byte
	if _, err := f.Read(sizeBuf[:]); err != nil {
		return nil, fmt.Errorf("cache: reading index size: %w", err)
	}
	indexSize := binary.LittleEndian.Uint32(sizeBuf[:])

	indexBuf := make([]byte, indexSize)
	if _, err := f.Read(indexBuf); err != nil {
		return nil, fmt.Errorf("cache: reading index: %w", err)
	}
	var index model.CacheIndex
	if err := gob.NewDecoder(bytes.NewReader(indexBuf)).Decode(&index); err != nil {
		return nil, fmt.Errorf("cache: decoding index: %w", err)
	}

	span, ok := index[chunkKey(hashSignature(sig))]
	if !ok {
		return nil, nil
	}

	dataStart := int64(4 + indexSize)
	buf := make([]byte, span.End-span.Start)
	if _, err := f.ReadAt(buf, dataStart+int64(span.Start)); err != nil {
		return nil, fmt.Errorf("cache: reading data span: %w", err)
	}

	var out []Record
	for i := 0; i+chunkRecordSize <= len(buf); i += chunkRecordSize {
		rec := Record{
			SignatureHash: binary.LittleEndian.Uint32(buf[i : i+4]),
			Primary:       binary.LittleEndian.Uint32(buf[i+4 : i+8]),
			Bass:          binary.LittleEndian.Uint32(buf[i+8 : i+12]),
			Generic:       binary.LittleEndian.Uint32(buf[i+12 : i+16]),
		}
		rec.Generable = rec.Primary+rec.Bass+rec.Generic > 0
		out = append(out, rec)
	}
	return out, nil
}
