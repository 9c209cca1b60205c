package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/snarrenberg/westerlines/evaluate"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/report"
	"github.com/snarrenberg/westerlines/score"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the batch HTTP analysis service",
	Long:  `serve exposes /evaluate-lines and /evaluate-counterpoint as JSON endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		startServe(addr)
	},
}

// NewRouter builds the batch HTTP analysis service's handler, wrapped
// in permissive CORS. Exported so tests can drive it through httptest
// without opening a real listener.
func NewRouter() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/evaluate-lines", handleEvaluateLines).Methods(http.MethodPost)
	r.HandleFunc("/evaluate-counterpoint", handleEvaluateCounterpoint).Methods(http.MethodPost)
	return cors.Default().Handler(r)
}

func startServe(addr string) {
	fmt.Printf("listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, NewRouter()))
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: err.Error()})
}

func decodeKeyOverride(tonicLetter string, accidental int, mode string) (*model.Key, error) {
	if tonicLetter == "" {
		return nil, nil
	}
	k, err := model.ParseKey(tonicLetter, accidental, mode)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func handleEvaluateLines(w http.ResponseWriter, req *http.Request) {
	var body model.EvaluateLinesRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	parts, err := score.FromDoc(body.Score)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	key, err := decodeKeyOverride(body.TonicLetter, body.Accidental, body.Mode)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	lineType, err := model.ParseLineType(body.PartLineType)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	g, err := evaluate.Lines(parts, evaluate.Options{
		Key:           key,
		PartSelection: body.PartSelection,
		PartLineType:  lineType,
		HarmonicSpans: body.HarmonicSpans,
	})
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err)
		return
	}

	resp := model.EvaluateLinesResponse{Key: g.Key.String(), KeyFromUser: g.KeyFromUser}
	for _, p := range g.Parts {
		pr := model.PartLinesResult{
			PartNum:   p.Num,
			Species:   p.Species.String(),
			Generable: map[string]int{},
		}
		for lt, ints := range p.Interpretations {
			pr.Generable[lt.String()] = len(ints)
		}
		for lt, n := range p.CachedCounts {
			pr.Generable[lt.String()] = n
		}
		for _, e := range p.Errors {
			pr.Errors = append(pr.Errors, model.ParseErrorDoc{EventIndex: e.EventIndex, Message: e.Message})
		}
		resp.Parts = append(resp.Parts, pr)
		if body.Annotate {
			resp.Annotated = append(resp.Annotated, annotatedDocs(p)...)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// annotatedDocs renders the first interpretation of each generable line
// type as an annotated-score document.
func annotatedDocs(p *model.Part) []model.AnnotatedPartDoc {
	var out []model.AnnotatedPartDoc
	for _, lt := range []model.LineType{model.Primary, model.Bass, model.Generic} {
		ints := p.Interpretations[lt]
		if len(ints) == 0 {
			continue
		}
		ap := report.Annotate(p, ints[0])
		doc := model.AnnotatedPartDoc{PartNum: p.Num, LineType: lt.String()}
		for _, e := range ap.Events {
			doc.Events = append(doc.Events, model.AnnotatedEventDoc{
				Index:     e.Index,
				Pitch:     e.PitchName,
				Measure:   e.Measure,
				RuleLabel: string(e.RuleLabel),
				InParens:  e.InParens,
			})
		}
		for _, a := range ap.Arcs {
			doc.Arcs = append(doc.Arcs, model.AnnotatedArcDoc{Left: a.Left, Right: a.Right, Rule: a.Rule, Dashed: a.Dashed})
		}
		out = append(out, doc)
	}
	return out
}

func handleEvaluateCounterpoint(w http.ResponseWriter, req *http.Request) {
	var body model.EvaluateCounterpointRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	parts, err := score.FromDoc(body.Score)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	key, err := decodeKeyOverride(body.TonicLetter, body.Accidental, body.Mode)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	outcome, err := evaluate.Counterpoint(parts, evaluate.Options{Key: key})
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err)
		return
	}

	resp := model.EvaluateCounterpointResponse{Key: outcome.Context.Key.String()}
	for _, v := range outcome.Violations {
		resp.Violations = append(resp.Violations, model.ViolationDoc{
			Kind:     v.Kind.String(),
			Measures: v.Measures,
			Parts:    v.PartNums,
			Message:  v.Message,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
