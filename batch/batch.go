// Package batch assigns stable numeric IDs to a batch of score files
// for the batch-evaluation CLI path.
package batch

import "github.com/snarrenberg/westerlines/model"

// ScoreNumToPath maps a batch-assigned file number to its source path.
type ScoreNumToPath = map[uint32]string

// CreateFileNumMap assigns each path in paths a stable number in input
// order.
func CreateFileNumMap(paths []string) ScoreNumToPath {
	res := make(ScoreNumToPath)
	for i, v := range paths {
		res[uint32(i)] = v
	}
	return res
}

// Result is one file's evaluation outcome within a batch run.
type Result struct {
	FileNum uint32
	Path    string
	Context *model.GlobalContext
	Err     error
}
