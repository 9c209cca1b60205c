package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/snarrenberg/westerlines/evaluate"
	"github.com/snarrenberg/westerlines/live"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/report"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
)

func init() {
	rootCmd.AddCommand(evaluateLiveCmd)
	evaluateLiveCmd.Flags().Int("port", 0, "MIDI input port number")
	evaluateLiveCmd.Flags().Duration("debounce", 400*time.Millisecond, "quiet period before re-evaluating the captured line")
}

var evaluateLiveCmd = &cobra.Command{
	Use:   "evaluate-live",
	Short: "Re-runs the line parser against a live MIDI performance",
	Long: `evaluate-live listens on a MIDI input port and, after each debounced
pause in playing, re-evaluates the notes captured so far as a single-part
line, printing a fresh PARSE REPORT. Ctrl-C stops listening.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer midi.CloseDriver()
		port, _ := cmd.Flags().GetInt("port")
		window, _ := cmd.Flags().GetDuration("debounce")

		_, stop, err := live.New(port, window, evaluate.Options{}, func(f live.Feedback) {
			if f.Err != nil {
				fmt.Fprintln(os.Stderr, "error:", f.Err)
				return
			}
			b := report.New()
			b.WriteHeader(f.Context.Key, f.Context.KeyFromUser)
			for _, p := range f.Context.Parts {
				b.WritePartResult(p, model.LineTypeAny)
			}
			fmt.Print(b.String())
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
		stop()
	},
}
