package cmd

import (
	"path/filepath"
	"strings"

	"github.com/snarrenberg/westerlines/midi"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/score"
)

// scoreExtensions lists the file types the CLI accepts: the JSON
// reference format plus Standard MIDI Files.
var scoreExtensions = []string{".json", ".mid", ".midi"}

// loadScore dispatches to the score loader matching the file's
// extension.
func loadScore(path string) ([]*model.Part, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return midi.LoadFile(path)
	default:
		return score.LoadFile(path)
	}
}
