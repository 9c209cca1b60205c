package model

// Pair is a byte-offset span [Start, End) within a cache data file.
type Pair struct {
	Start, End uint32
}

// CacheIndex maps a cache signature key to its data span within one
// compacted chunk file.
type CacheIndex map[string]Pair

// CacheChunkOverview summarizes one compacted cache chunk file: its
// filename and the inclusive range of signature keys it covers.
type CacheChunkOverview struct {
	Filename string
	Start    string
	End      string
}
