package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	krfs "github.com/kr/fs"
	"github.com/spf13/cobra"

	"github.com/calvinalkan/scandir"
	"github.com/calvinalkan/scandir/internal/logging"
)

const (
	implScandir = "scandir"
	implStdlib  = "stdlib"
	implKrfs    = "krfs"
)

// benchResult is one JSONL record written by --out.
type benchResult struct {
	Timestamp time.Time `json:"ts"`
	RunID     string    `json:"run_id"`

	Case  string `json:"case,omitempty"`
	Notes string `json:"notes,omitempty"`

	Dir         string `json:"dir"`
	Impl        string `json:"impl"`
	FollowLinks bool   `json:"follow_links"`
	Repeat      int    `json:"repeat"`

	Dirs          uint64        `json:"dirs"`
	Entries       uint64        `json:"entries"`
	Duration      time.Duration `json:"duration"`
	EntriesPerSec float64       `json:"entries_per_sec"`

	GoVersion   string `json:"go"`
	GOOS        string `json:"goos"`
	GOARCH      string `json:"goarch"`
	NumCPU      int    `json:"numcpu"`
	VCSRevision string `json:"vcs_revision,omitempty"`
	VCSModified bool   `json:"vcs_modified,omitempty"`
}

type benchFlags struct {
	repeat      int
	generate    string
	fanout      int
	depth       int
	followLinks bool
	quiet       bool
	caseName    string
	notes       string
	out         string
}

func newBenchCommand() *cobra.Command {
	flags := &benchFlags{}

	cmd := &cobra.Command{
		Use:   "bench root",
		Short: "Compare walking a tree with scandir against path/filepath",
		Long: `Walk root with scandir.Walk, with filepath.WalkDir plus one Lstat per
entry (the status-per-entry approach scandir avoids) and with kr/fs, and report
entries per second for each. kr/fs cannot follow links and is left out when
--follow-links is set.

All records written by one run share a run_id.

With --generate N, a synthetic tree of N files is created under root first,
spread over --depth levels of --fanout directories each.

Examples:
  scandir bench --generate 100k --fanout 20 --depth 3 /tmp/tree
  scandir bench --repeat 5 --out results.jsonl ~/src`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.repeat, "repeat", 1, "Walk the tree N times per implementation")
	cmd.Flags().StringVar(&flags.generate, "generate", "", "Generate N files under root first (accepts k, m suffixes)")
	cmd.Flags().IntVar(&flags.fanout, "fanout", 10, "Directories per level for --generate")
	cmd.Flags().IntVar(&flags.depth, "depth", 2, "Directory levels for --generate")
	cmd.Flags().BoolVar(&flags.followLinks, "follow-links", false, "Descend into symlinks to directories")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Print only the scandir entries/sec")
	cmd.Flags().StringVar(&flags.caseName, "case", "", "Optional short case name to store in JSON output")
	cmd.Flags().StringVar(&flags.notes, "notes", "", "Optional freeform notes to store in JSON output")
	cmd.Flags().StringVar(&flags.out, "out", "", "Optional JSONL file to append one result per implementation")

	return cmd
}

func runBench(cmd *cobra.Command, root string, flags *benchFlags) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	var logger logging.Logger = logging.NewConsoleLogger(cmd.ErrOrStderr(), verbose)
	if flags.quiet {
		logger = logging.NewNullLogger()
	}

	if flags.repeat <= 0 {
		return usageErrorf("--repeat must be >= 1")
	}

	if flags.generate != "" {
		files, err := parseHumanU64(flags.generate)
		if err != nil {
			return usageErrorf("--generate: %v", err)
		}

		if files == 0 {
			return usageErrorf("--generate must be > 0")
		}

		start := time.Now()

		err = generateTree(root, files, flags.fanout, flags.depth)
		if err != nil {
			return err
		}

		logger.Info("generated files=%d elapsed=%v", files, time.Since(start))
	}

	ctx := cmd.Context()
	runID := uuid.NewString()

	impls := []string{implScandir, implStdlib, implKrfs}
	if flags.followLinks {
		impls = impls[:2]
	}

	var results []benchResult

	for _, impl := range impls {
		res, err := benchOnce(ctx, impl, root, flags)
		if err != nil {
			return err
		}

		res.RunID = runID

		logger.Info("%-8s dirs=%d entries=%d repeat=%d duration=%v entries/sec=%.0f",
			impl, res.Dirs, res.Entries, res.Repeat, res.Duration, res.EntriesPerSec)

		results = append(results, res)
	}

	for _, res := range results[1:] {
		if res.Entries != results[0].Entries {
			logger.Error("entry counts differ: scandir=%d %s=%d (tree changed during the run?)",
				results[0].Entries, res.Impl, res.Entries)
		}
	}

	if flags.out != "" {
		for i := range results {
			err := appendJSONL(flags.out, &results[i])
			if err != nil {
				return fmt.Errorf("write --out: %w", err)
			}
		}
	}

	if flags.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%.0f\n", results[0].EntriesPerSec)

		return nil
	}

	var sb strings.Builder

	for _, res := range results {
		fmt.Fprintf(&sb, "%s=%.0f/s ", res.Impl, res.EntriesPerSec)
	}

	speedup := 0.0
	if results[0].Duration > 0 {
		speedup = float64(results[1].Duration) / float64(results[0].Duration)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%sspeedup=%.2fx\n", sb.String(), speedup)

	return nil
}

// benchOnce walks root flags.repeat times with impl and counts directories
// and entries of the last round.
func benchOnce(ctx context.Context, impl, root string, flags *benchFlags) (benchResult, error) {
	var (
		dirs, entries uint64
		failures      []error
	)

	start := time.Now()

	for range flags.repeat {
		var err error

		switch impl {
		case implScandir:
			dirs, entries, err = walkScandir(ctx, root, flags.followLinks, &failures)
		case implKrfs:
			dirs, entries, err = walkKrfs(ctx, root, &failures)
		default:
			dirs, entries, err = walkStdlib(ctx, root, flags.followLinks, &failures)
		}

		if err != nil {
			return benchResult{}, fmt.Errorf("%s: %w", impl, err)
		}

		// Benchmarks should never hit unreadable directories.
		if len(failures) > 0 {
			return benchResult{}, fmt.Errorf("%s: %w", impl, errors.Join(failures...))
		}
	}

	duration := time.Since(start)

	res := benchResult{
		Timestamp:   time.Now(),
		Case:        flags.caseName,
		Notes:       flags.notes,
		Dir:         root,
		Impl:        impl,
		FollowLinks: flags.followLinks,
		Repeat:      flags.repeat,
		Dirs:        dirs,
		Entries:     entries,
		Duration:    duration,
		GOOS:        runtime.GOOS,
		GOARCH:      runtime.GOARCH,
		NumCPU:      runtime.NumCPU(),
	}

	if duration > 0 {
		res.EntriesPerSec = float64(entries*uint64(flags.repeat)) / duration.Seconds()
	}

	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		res.GoVersion = bi.GoVersion

		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				res.VCSRevision = setting.Value
			case "vcs.modified":
				res.VCSModified = setting.Value == "true"
			}
		}
	}

	return res, nil
}

func walkScandir(ctx context.Context, root string, follow bool, failures *[]error) (uint64, uint64, error) {
	var dirs, entries uint64

	opts := []scandir.Option{
		scandir.WithOnError(func(err error) { *failures = append(*failures, err) }),
	}
	if follow {
		opts = append(opts, scandir.WithFollowLinks())
	}

	err := scandir.WalkDir(ctx, root, func(lvl *scandir.Level) error {
		dirs++
		entries += uint64(len(lvl.Dirs) + len(lvl.Files))

		return nil
	}, opts...)

	return dirs, entries, err
}

// walkStdlib mirrors walkScandir with path/filepath: every entry gets an
// Lstat, and with follow a Stat for symlinks, to learn its type.
func walkStdlib(ctx context.Context, root string, follow bool, failures *[]error) (uint64, uint64, error) {
	var dirs, entries uint64

	var visit func(dir string) error

	visit = func(dir string) error {
		dirs++

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				*failures = append(*failures, err)

				return nil
			}

			if path == dir {
				return ctx.Err()
			}

			entries++

			// A vanished entry is counted but not typed.
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil
			}

			if info.IsDir() {
				dirs++

				return nil
			}

			if follow && info.Mode()&fs.ModeSymlink != 0 {
				target, err := os.Stat(path)
				if err == nil && target.IsDir() {
					return visit(path)
				}
			}

			return nil
		})

		return err
	}

	err := visit(root)

	return dirs, entries, err
}

// walkKrfs walks with kr/fs, which lstats every entry and never follows
// links.
func walkKrfs(ctx context.Context, root string, failures *[]error) (uint64, uint64, error) {
	var dirs, entries uint64

	w := krfs.Walk(root)

	for w.Step() {
		err := w.Err()
		if err != nil {
			*failures = append(*failures, err)

			continue
		}

		info := w.Stat()

		if w.Path() == root {
			dirs++

			continue
		}

		entries++

		if info.IsDir() {
			dirs++

			err := ctx.Err()
			if err != nil {
				return dirs, entries, err
			}
		}
	}

	return dirs, entries, nil
}

// generateTree writes the given number of small files under root in a fanout layout:
// file i lives in root/l00_<d0>/l01_<d1>/..., one digit of i in base fanout
// per level.
func generateTree(root string, files uint64, fanout, depth int) error {
	if fanout < 2 {
		return usageErrorf("--fanout must be >= 2")
	}

	if depth < 0 {
		return usageErrorf("--depth must be >= 0")
	}

	created := make(map[string]struct{})

	for i := range files {
		dir := dirForFile(root, i, uint64(fanout), depth)

		if _, ok := created[dir]; !ok {
			err := os.MkdirAll(dir, 0o750)
			if err != nil {
				return fmt.Errorf("mkdir %s: %w", dir, err)
			}

			created[dir] = struct{}{}
		}

		path := filepath.Join(dir, fmt.Sprintf("file-%09d.txt", i))

		err := os.WriteFile(path, []byte(strconv.FormatUint(i, 10)+"\n"), 0o600)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}

func dirForFile(root string, index, base uint64, depth int) string {
	pathSoFar := root

	for level := range depth {
		digit := index % base
		index /= base
		pathSoFar = filepath.Join(pathSoFar, fmt.Sprintf("l%02d_%03d", level, digit))
	}

	return pathSoFar
}

func appendJSONL(path string, res *benchResult) error {
	outFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	defer func() { _ = outFile.Close() }()

	writer := bufio.NewWriter(outFile)
	enc := json.NewEncoder(writer)
	enc.SetEscapeHTML(false)

	err = enc.Encode(res)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	err = writer.Flush()
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// parseHumanU64 parses integers with optional suffixes.
//
// Suffixes:
// - Decimal: k, m, g (and kb/mb/gb)
// - Binary:  ki, mi, gi (and kib/mib/gib).
func parseHumanU64(input string) (uint64, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))

	normalized = strings.ReplaceAll(normalized, "_", "")
	if normalized == "" {
		return 0, errors.New("empty number")
	}

	split := 0

	for i, ch := range normalized {
		if unicode.IsDigit(ch) || ch == '.' {
			split = i + 1

			continue
		}

		break
	}

	if split == 0 {
		return 0, fmt.Errorf("invalid number: %s", input)
	}

	num, err := strconv.ParseFloat(normalized[:split], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}

	var mult float64

	switch normalized[split:] {
	case "":
		mult = 1.0
	case "k", "kb":
		mult = 1_000.0
	case "m", "mb":
		mult = 1_000_000.0
	case "g", "gb":
		mult = 1_000_000_000.0
	case "ki", "kib":
		mult = 1024.0
	case "mi", "mib":
		mult = 1024.0 * 1024.0
	case "gi", "gib":
		mult = 1024.0 * 1024.0 * 1024.0
	default:
		return 0, fmt.Errorf("invalid suffix in number: %s", input)
	}

	val := num * mult
	if val < 0 || val > float64(^uint64(0)) {
		return 0, fmt.Errorf("number out of range: %s", input)
	}

	return uint64(val + 0.5), nil
}
