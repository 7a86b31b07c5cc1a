package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/calvinalkan/scandir"
	"github.com/calvinalkan/scandir/internal/config"
	"github.com/calvinalkan/scandir/internal/filter"
	"github.com/calvinalkan/scandir/internal/logging"
)

func newLsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the entries of one directory",
		Long: `List the entries of one directory with their type.

Types come from the directory enumeration itself where the OS reports them.
With --long, each entry's status is queried once for size, mode and mtime.

Entries are sorted by name unless --unsorted is given, which keeps the order
the OS returned them in.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: runLs,
	}

	cmd.Flags().BoolP("long", "l", false, "Include size, mode and modification time")
	cmd.Flags().BoolP("unsorted", "U", false, "Keep enumeration order")
	cmd.Flags().StringSlice("include", nil, "Only list names matching these globs")
	cmd.Flags().StringSlice("exclude", nil, "Skip names matching these globs")
	cmd.Flags().String("format", config.FormatText, "Output format: text | json | yaml")

	return cmd
}

type lsOptions struct {
	path     string
	long     bool
	unsorted bool
	format   string
	filter   *filter.GlobFilter
}

func runLs(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	opts := lsOptions{path: "."}
	if len(args) == 1 {
		opts.path = args[0]
	}

	opts.long, _ = cmd.Flags().GetBool("long")
	opts.unsorted, _ = cmd.Flags().GetBool("unsorted")

	opts.format, err = resolveFormat(cmd, cfg)
	if err != nil {
		return err
	}

	include := stringSliceFlag(cmd, "include", cfg.Include)
	exclude := stringSliceFlag(cmd, "exclude", cfg.Exclude)

	opts.filter, err = filter.New(include, exclude)
	if err != nil {
		return &usageError{err: err}
	}

	records, err := listDir(opts, logger)
	if err != nil {
		return err
	}

	return writeEntries(cmd, opts, records)
}

// listDir scans opts.path and converts the entries that pass the filter.
func listDir(opts lsOptions, logger logging.Logger) ([]entryRecord, error) {
	var records []entryRecord

	for e, err := range scandir.ScanDir(opts.path) {
		if err != nil {
			return nil, err
		}

		if !opts.filter.ShouldInclude(e.Name()) {
			logger.Verbose("filtered %s", e.Path())

			continue
		}

		rec := entryRecord{Name: e.Name(), Kind: kindName(e)}

		if opts.long {
			fillStat(&rec, e, logger)
		}

		records = append(records, rec)
	}

	if !opts.unsorted {
		slices.SortFunc(records, func(a, b entryRecord) int { return strings.Compare(a.Name, b.Name) })
	}

	return records, nil
}

// fillStat adds the status fields. A failed query is logged and recorded on
// the row instead of failing the listing.
func fillStat(rec *entryRecord, e *scandir.DirEntry, logger logging.Logger) {
	st, err := e.Stat()
	if err != nil {
		logger.Error("%v", err)
		rec.Error = err.Error()

		return
	}

	rec.Size = st.Size
	rec.Mode = st.Mode.String()
	rec.ModTime = formatTime(st)

	if e.IsSymlink() {
		target, err := os.Readlink(e.Path())
		if err == nil {
			rec.Target = target
		}
	}
}

func writeEntries(cmd *cobra.Command, opts lsOptions, records []entryRecord) error {
	out := cmd.OutOrStdout()

	if opts.format != config.FormatText {
		rw, err := newRecordWriter(out, opts.format)
		if err != nil {
			return err
		}

		if records == nil {
			records = []entryRecord{}
		}

		err = rw.Write(records)
		if err != nil {
			return fmt.Errorf("write %s: %w", opts.format, err)
		}

		return rw.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if isTerminal(out) {
		if opts.long {
			fmt.Fprintln(tw, "KIND\tMODE\tSIZE\tMODIFIED\tNAME")
		} else {
			fmt.Fprintln(tw, "KIND\tNAME")
		}
	}

	for _, r := range records {
		name := r.Name
		if r.Target != "" {
			name += " -> " + r.Target
		}

		if opts.long {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Kind, r.Mode, r.Size, r.ModTime, name)
		} else {
			fmt.Fprintf(tw, "%s\t%s\n", r.Kind, name)
		}
	}

	err := tw.Flush()
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
