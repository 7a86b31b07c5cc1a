package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/calvinalkan/scandir"
	"github.com/calvinalkan/scandir/internal/config"
	"github.com/calvinalkan/scandir/internal/filter"
)

func newWalkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk [root]",
		Short: "Walk a directory tree level by level",
		Long: `Walk a directory tree and print one block per directory: its path, its
subdirectories and its other entries, sorted by name.

Directories that cannot be read are reported on stderr and skipped; the walk
continues with their siblings and exits with status 1 at the end.

Output formats:
  text  one block per directory
  json  one object per directory per line
  yaml  one document per directory`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: runWalk,
	}

	cmd.Flags().Bool("post-order", false, "Print each directory after its subdirectories")
	cmd.Flags().Bool("follow-links", false, "Descend into symlinks to directories")
	cmd.Flags().Int("max-depth", 0, "Maximum depth below root to descend (0 = unlimited)")
	cmd.Flags().StringSlice("exclude", nil, "Prune directories and skip files matching these globs")
	cmd.Flags().Bool("gitignore", false, "Also skip paths ignored by the .gitignore file at root")
	cmd.Flags().String("format", config.FormatText, "Output format: text | json | yaml")

	return cmd
}

func runWalk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	format, err := resolveFormat(cmd, cfg)
	if err != nil {
		return err
	}

	maxDepth := intFlag(cmd, "max-depth", cfg.MaxDepth)
	if maxDepth < 0 {
		return usageErrorf("--max-depth must be >= 0, got %d", maxDepth)
	}

	glob, err := filter.New(nil, stringSliceFlag(cmd, "exclude", cfg.Exclude))
	if err != nil {
		return &usageError{err: err}
	}

	var ignore *filter.Gitignore

	if boolFlag(cmd, "gitignore", cfg.Gitignore) {
		ignore, err = filter.LoadGitignore(root)
		if err != nil {
			return err
		}

		if ignore == nil {
			logger.Verbose("no %s in %s", filter.GitignoreFile, root)
		}
	}

	globSkip := glob.SkipFunc(root)

	skip := func(dir, name string) bool {
		return globSkip(dir, name) || ignore.Ignored(filepath.Join(dir, name), true)
	}

	skipFile := func(dir, name string) bool {
		return globSkip(dir, name) || ignore.Ignored(filepath.Join(dir, name), false)
	}

	failed := 0

	opts := []scandir.Option{
		scandir.WithMaxDepth(maxDepth),
		scandir.WithSkip(skip),
		scandir.WithOnError(func(err error) {
			failed++

			logger.Error("%v", err)
		}),
	}

	if boolFlag(cmd, "post-order", cfg.PostOrder) {
		opts = append(opts, scandir.WithPostOrder())
	}

	if boolFlag(cmd, "follow-links", cfg.FollowLinks) {
		opts = append(opts, scandir.WithFollowLinks())
	}

	out := cmd.OutOrStdout()

	emit := writeLevelText
	if format != config.FormatText {
		rw, err := newRecordWriter(out, format)
		if err != nil {
			return err
		}

		defer func() { _ = rw.Close() }()

		emit = func(_ io.Writer, rec levelRecord) error { return rw.Write(rec) }
	}

	start := time.Now()
	levels := 0

	err = scandir.WalkDir(cmd.Context(), root, func(lvl *scandir.Level) error {
		levels++

		// Sorting Dirs in place also fixes the descent order.
		slices.Sort(lvl.Dirs)

		files := make([]string, 0, len(lvl.Files))

		for _, name := range lvl.Files {
			if skipFile(lvl.Path, name) {
				continue
			}

			files = append(files, name)
		}

		slices.Sort(files)

		dirs := append([]string{}, lvl.Dirs...)

		return emit(out, levelRecord{Path: lvl.Path, Dirs: dirs, Files: files})
	}, opts...)
	if err != nil {
		return err
	}

	logger.Verbose("walked %d directories in %v", levels, time.Since(start))

	if failed > 0 {
		return fmt.Errorf("%d director%s could not be read", failed, plural(failed, "y", "ies"))
	}

	return nil
}

func writeLevelText(w io.Writer, rec levelRecord) error {
	_, err := fmt.Fprintln(w, rec.Path)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	for _, d := range rec.Dirs {
		fmt.Fprintf(w, "  %s%c\n", d, filepath.Separator)
	}

	for _, f := range rec.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}

	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}
