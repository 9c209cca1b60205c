package model

// CorpusExerciseMetadata is known bibliographic information about a
// named species-counterpoint exercise (e.g. one of Fux's cantus firmi),
// looked up by db.Lookup.
type CorpusExerciseMetadata struct {
	Title  string
	Source string
	Year   uint
}
