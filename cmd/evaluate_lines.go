package cmd

import (
	"fmt"
	"os"

	"github.com/snarrenberg/westerlines/batch"
	"github.com/snarrenberg/westerlines/cache"
	"github.com/snarrenberg/westerlines/constants"
	"github.com/snarrenberg/westerlines/db"
	"github.com/snarrenberg/westerlines/evaluate"
	"github.com/snarrenberg/westerlines/model"
	"github.com/snarrenberg/westerlines/report"
	"github.com/snarrenberg/westerlines/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(evaluateLinesCmd)
	evaluateLinesCmd.Flags().String("tonic", "", "key override: tonic letter (A-G)")
	evaluateLinesCmd.Flags().Int("accidental", 0, "key override: accidental in semitones")
	evaluateLinesCmd.Flags().String("mode", "", "key override: major or minor")
	evaluateLinesCmd.Flags().Int("part", 0, "0-based part selection (negative indexes from bottom); only used with --all-parts=false")
	evaluateLinesCmd.Flags().Bool("all-parts", true, "evaluate every part instead of a single selected one")
	evaluateLinesCmd.Flags().String("line-type", "any", "primary, bass, generic, or any")
	evaluateLinesCmd.Flags().Bool("cache", false, "memoize generability outcomes in the interpretation cache")
	evaluateLinesCmd.Flags().Bool("cache-reset", false, "wipe the cache directory before running")
	evaluateLinesCmd.Flags().String("cache-dir", "", "interpretation cache directory (defaults to WESTERLINES_CACHE_PATH or ./out)")
	evaluateLinesCmd.Flags().String("corpus-id", "", "known-exercise ID to look up bibliographic metadata for (best-effort)")
	evaluateLinesCmd.Flags().Bool("detail", false, "print a per-event rule-label breakdown for each generable line type")
}

var evaluateLinesCmd = &cobra.Command{
	Use:   "evaluate-lines <score.json|score.mid | directory>",
	Short: "Evaluates whether each part is generable as a Westergaardian line",
	Long: `evaluate-lines reads a score and, for each requested part, enumerates
every syntactic derivation of that line as a primary, bass, or generic
line under Westergaard's line-construction rules. Given a directory
instead of a single file, it evaluates every score file found within it
and reports progress by file number.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		part, _ := cmd.Flags().GetInt("part")
		allParts, _ := cmd.Flags().GetBool("all-parts")
		if !allParts {
			opts.PartSelection = &part
		}

		info, err := os.Stat(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		if info.IsDir() {
			runBatch(cmd, args[0], opts)
			return
		}
		runOne(cmd, args[0], opts)
	},
}

// runOne evaluates a single score file and prints its PARSE REPORT.
func runOne(cmd *cobra.Command, path string, opts evaluate.Options) {
	parts, err := loadScore(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if useCache, cacheDir := cacheSettings(cmd); useCache {
		opts.CacheDir = cacheDir
	}

	g, err := evaluate.Lines(parts, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	printWarnings(g)

	printCorpusMetadata(cmd)
	detail, _ := cmd.Flags().GetBool("detail")

	b := report.New()
	b.WriteHeader(g.Key, g.KeyFromUser)
	for _, p := range g.Parts {
		b.WritePartResult(p, opts.PartLineType)
		if detail {
			for _, lt := range []model.LineType{model.Primary, model.Bass, model.Generic} {
				if ints := p.Interpretations[lt]; len(ints) > 0 {
					b.WriteLineDetail(p, ints[0])
				}
			}
		}
	}
	fmt.Print(b.String())
	// Exit code 0 on successful analysis regardless of findings;
	// non-zero only happened above, on input errors.
}

// runBatch implements the directory-input path: gather every score file
// under dir, assign each a stable number via batch.CreateFileNumMap,
// evaluate each one into a batch.Result, and render the results with
// their file numbers so a caller can track progress across a large
// corpus directory.
func runBatch(cmd *cobra.Command, dir string, opts evaluate.Options) {
	paths := util.GatherScoreFiles(dir, scoreExtensions, 0)
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no score files found under %s\n", dir)
		os.Exit(1)
	}
	numToPath := batch.CreateFileNumMap(paths)

	useCache, cacheDir := cacheSettings(cmd)
	if useCache {
		opts.CacheDir = cacheDir
	}

	results := make([]batch.Result, 0, len(numToPath))
	for num := uint32(0); num < uint32(len(numToPath)); num++ {
		res := batch.Result{FileNum: num, Path: numToPath[num]}
		if parts, err := loadScore(res.Path); err != nil {
			res.Err = err
		} else {
			res.Context, res.Err = evaluate.Lines(parts, opts)
		}
		results = append(results, res)
	}

	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("[%d] %s: error: %v\n", res.FileNum, res.Path, res.Err)
			continue
		}
		printWarnings(res.Context)
		fmt.Printf("[%d] %s\n", res.FileNum, res.Path)
		b := report.New()
		b.WriteHeader(res.Context.Key, res.Context.KeyFromUser)
		for _, p := range res.Context.Parts {
			b.WritePartResult(p, opts.PartLineType)
		}
		fmt.Print(b.String())
	}

	if useCache {
		// Compact the per-signature bucket logs into indexed chunk files
		// once the whole directory has been evaluated.
		if _, err := cache.Compact(cacheDir); err != nil {
			fmt.Fprintln(os.Stderr, "cache warning:", err)
		}
	}
}

func printWarnings(g *model.GlobalContext) {
	for _, w := range g.Errors {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

func cacheSettings(cmd *cobra.Command) (bool, string) {
	useCache, _ := cmd.Flags().GetBool("cache")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	if useCache && cacheDir == "" {
		cacheDir = constants.GetCacheDir()
	}
	if useCache {
		if reset, _ := cmd.Flags().GetBool("cache-reset"); reset {
			util.RecreateDir(cacheDir)
		}
	}
	return useCache, cacheDir
}

func printCorpusMetadata(cmd *cobra.Command) {
	corpusID, _ := cmd.Flags().GetString("corpus-id")
	if corpusID == "" {
		return
	}
	meta, err := db.Lookup([]string{corpusID})
	if err != nil {
		fmt.Fprintln(os.Stderr, "corpus lookup warning:", err)
		return
	}
	if m, ok := meta[corpusID]; ok {
		fmt.Printf("Source: %s, %s (%d)\n\n", m.Title, m.Source, m.Year)
	}
}

// optionsFromFlags builds an evaluate.Options from the override flags
// evaluate-lines and evaluate-counterpoint share.
func optionsFromFlags(cmd *cobra.Command) (evaluate.Options, error) {
	tonic, _ := cmd.Flags().GetString("tonic")
	accidental, _ := cmd.Flags().GetInt("accidental")
	mode, _ := cmd.Flags().GetString("mode")
	lineTypeStr, _ := cmd.Flags().GetString("line-type")

	var opts evaluate.Options
	if tonic != "" {
		k, err := model.ParseKey(tonic, accidental, mode)
		if err != nil {
			return opts, err
		}
		opts.Key = &k
	}
	lt, err := model.ParseLineType(lineTypeStr)
	if err != nil {
		return opts, err
	}
	opts.PartLineType = lt
	return opts, nil
}
