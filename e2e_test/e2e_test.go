//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snarrenberg/westerlines/cmd"
	"github.com/snarrenberg/westerlines/model"
	"github.com/stretchr/testify/assert"
)

func newServer(t *testing.T) (*httptest.Server, func()) {
	srv := httptest.NewServer(cmd.NewRouter())
	return srv, srv.Close
}

func ev(pitch string, onset, duration float64, measure int, tied bool) model.EventDoc {
	return model.EventDoc{Pitch: pitch, OnsetOffset: onset, Duration: duration, MeasureIndex: measure, TiedToNext: tied}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("posting to %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshaling %s: %v", data, err)
	}
}

// TestFuxDorianCantusFirmusInfersKeyAndGeneratesPrimary drives a
// first-species cantus firmus in the Fux Dorian mold (D E F D E F G F E
// D): the key infers to D minor and the line is generable as a primary
// line headed on the third degree (the mid-line F), with
// interpretations differing in the choice of structural-dominant
// position, as well as a generic line. It is not a bass line, since the
// line never touches the fifth degree.
func TestFuxDorianCantusFirmusInfersKeyAndGeneratesPrimary(t *testing.T) {
	srv, closeFn := newServer(t)
	defer closeFn()

	names := []string{"D4", "E4", "F4", "D4", "E4", "F4", "G4", "F4", "E4", "D4"}
	var events []model.EventDoc
	for i, n := range names {
		events = append(events, ev(n, 0, 1, i, false))
	}
	req := model.EvaluateLinesRequest{Score: model.ScoreDoc{Parts: [][]model.EventDoc{events}}}

	resp := postJSON(t, srv.URL+"/evaluate-lines", req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.EvaluateLinesResponse
	decodeBody(t, resp, &out)

	assert.Equal(t, "D4 minor", out.Key)
	assert.True(t, !out.KeyFromUser)
	assert.Len(t, out.Parts, 1)
	assert.Empty(t, out.Parts[0].Errors)
	assert.Greater(t, out.Parts[0].Generable["primary"], 1)
	assert.Equal(t, 1, out.Parts[0].Generable["generic"])
	assert.Zero(t, out.Parts[0].Generable["bass"])
}

// TestDescendingOctaveLineGenerableAsPrimaryWithPassingTones: a full
// octave descent C5 B4 A4 G4 F4 E4 D4 C4 in C major generates as a
// primary line headed on 8^, with the structural dominant G4 and a
// passing descent carrying the rest.
func TestDescendingOctaveLineGenerableAsPrimaryWithPassingTones(t *testing.T) {
	srv, closeFn := newServer(t)
	defer closeFn()

	names := []string{"C5", "B4", "A4", "G4", "F4", "E4", "D4", "C4"}
	var events []model.EventDoc
	for i, n := range names {
		events = append(events, ev(n, 0, 1, i, false))
	}
	req := model.EvaluateLinesRequest{Score: model.ScoreDoc{Parts: [][]model.EventDoc{events}}, Annotate: true}

	resp := postJSON(t, srv.URL+"/evaluate-lines", req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.EvaluateLinesResponse
	decodeBody(t, resp, &out)

	assert.Equal(t, "C4 major", out.Key)
	assert.Greater(t, out.Parts[0].Generable["primary"], 0)

	assert.NotEmpty(t, out.Annotated)
	primary := out.Annotated[0]
	assert.Equal(t, "primary", primary.LineType)
	assert.Equal(t, "S1", primary.Events[0].RuleLabel)
	assert.Equal(t, "S2", primary.Events[7].RuleLabel)
	assert.NotEmpty(t, primary.Arcs)
}

// TestTwoPartExerciseReportsNoViolations: upper C D E D C over lower
// C G C C C in C major is clean two-voice writing.
func TestTwoPartExerciseReportsNoViolations(t *testing.T) {
	srv, closeFn := newServer(t)
	defer closeFn()

	upper := []model.EventDoc{
		ev("C5", 0, 1, 0, false), ev("D5", 0, 1, 1, false), ev("E5", 0, 1, 2, false),
		ev("D5", 0, 1, 3, false), ev("C5", 0, 1, 4, false),
	}
	lower := []model.EventDoc{
		ev("C4", 0, 1, 0, false), ev("G3", 0, 1, 1, false), ev("C4", 0, 1, 2, false),
		ev("C4", 0, 1, 3, false), ev("C4", 0, 1, 4, false),
	}
	req := model.EvaluateCounterpointRequest{Score: model.ScoreDoc{Parts: [][]model.EventDoc{upper, lower}}}

	resp := postJSON(t, srv.URL+"/evaluate-counterpoint", req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.EvaluateCounterpointResponse
	decodeBody(t, resp, &out)

	assert.Equal(t, "C4 major", out.Key)
	assert.Empty(t, out.Violations)
}

// TestNonDiatonicPitchFailsParse: Fb4 sounds a pitch class the C-major
// collection tolerates, but its letter spelling puts it a half step off
// the scale degree that letter names, so the key still infers
// successfully and the bad event is reported as a parse error on that
// one index, not a panic or a silently-dropped interpretation.
func TestNonDiatonicPitchFailsParse(t *testing.T) {
	srv, closeFn := newServer(t)
	defer closeFn()

	events := []model.EventDoc{
		ev("C4", 0, 1, 0, false), ev("D4", 0, 1, 1, false),
		ev("Fb4", 0, 1, 2, false), ev("C4", 0, 1, 3, false),
	}
	req := model.EvaluateLinesRequest{Score: model.ScoreDoc{Parts: [][]model.EventDoc{events}}}

	resp := postJSON(t, srv.URL+"/evaluate-lines", req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.EvaluateLinesResponse
	decodeBody(t, resp, &out)

	assert.Len(t, out.Parts[0].Errors, 1)
	assert.Equal(t, 2, out.Parts[0].Errors[0].EventIndex)
}

// TestParallelFifthsFlagged: two upper voices moving C-D-C and G-A-G
// simultaneously over a static bass produce a parallel-fifths finding.
// Each voice returns to its first pitch so the key infers to C major.
func TestParallelFifthsFlagged(t *testing.T) {
	srv, closeFn := newServer(t)
	defer closeFn()

	top := []model.EventDoc{ev("G4", 0, 1, 0, false), ev("A4", 0, 1, 1, false), ev("G4", 0, 1, 2, false)}
	mid := []model.EventDoc{ev("C4", 0, 1, 0, false), ev("D4", 0, 1, 1, false), ev("C4", 0, 1, 2, false)}
	bass := []model.EventDoc{ev("C3", 0, 1, 0, false), ev("C3", 0, 1, 1, false), ev("C3", 0, 1, 2, false)}

	req := model.EvaluateCounterpointRequest{Score: model.ScoreDoc{Parts: [][]model.EventDoc{top, mid, bass}}}

	resp := postJSON(t, srv.URL+"/evaluate-counterpoint", req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.EvaluateCounterpointResponse
	decodeBody(t, resp, &out)

	found := false
	for _, v := range out.Violations {
		if v.Kind == "parallel perfect interval" {
			found = true
		}
	}
	assert.True(t, found, "expected a parallel-fifths finding")
}

// TestMalformedScoreRejectedAsBadRequest exercises the error path: a score
// document with zero parts is a client error, not a 500 or a panic.
func TestMalformedScoreRejectedAsBadRequest(t *testing.T) {
	srv, closeFn := newServer(t)
	defer closeFn()

	req := model.EvaluateLinesRequest{Score: model.ScoreDoc{}}
	resp := postJSON(t, srv.URL+"/evaluate-lines", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out model.ErrorResponse
	decodeBody(t, resp, &out)
	assert.NotEmpty(t, out.Error)
}
