package cmd

import (
	"fmt"
	"os"

	"github.com/snarrenberg/westerlines/evaluate"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/report"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(evaluateCounterpointCmd)
	evaluateCounterpointCmd.Flags().String("tonic", "", "key override: tonic letter (A-G)")
	evaluateCounterpointCmd.Flags().Int("accidental", 0, "key override: accidental in semitones")
	evaluateCounterpointCmd.Flags().String("mode", "", "key override: major or minor")
}

var evaluateCounterpointCmd = &cobra.Command{
	Use:   "evaluate-counterpoint <score.json|score.mid>",
	Short: "Checks a multi-voice score against Westergaard's voice-leading rules",
	Long: `evaluate-counterpoint selects the preferred compatible line interpretations
across parts and reports every voice-leading violation the checker finds.
A clean result is reported the same way a result with findings is: this
command never fails because of the music it analyzes, only because of
malformed input.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}

		parts, err := loadScore(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}

		outcome, err := evaluate.Counterpoint(parts, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}

		b := report.New()
		b.WriteHeader(outcome.Context.Key, outcome.Context.KeyFromUser)
		for _, p := range outcome.Context.Parts {
			b.WritePartResult(p, model.LineTypeAny)
		}
		b.WriteViolations(outcome.Violations)
		fmt.Print(b.String())
	},
}
