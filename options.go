package scandir

// Option configures [Walk] and [WalkDir].
// Options are applied in order.
type Option func(*options)

// WithPostOrder emits each directory's [Level] after its subtrees instead of
// before them.
//
// Edits to [Level.Dirs] have no effect in this mode: by the time a level is
// yielded its subdirectories have already been walked.
func WithPostOrder() Option {
	return func(o *options) {
		o.PostOrder = true
	}
}

// WithFollowLinks descends into symlinks that resolve to directories.
//
// Without it, such links are still listed in [Level.Dirs] but not walked.
// Following links can revisit directories, and loops through symlinks make
// the walk unbounded; combine with [WithMaxDepth] when that matters.
func WithFollowLinks() Option {
	return func(o *options) {
		o.FollowLinks = true
	}
}

// WithOnError registers a handler for directories that cannot be scanned.
//
// The handler receives one [*IOError] per failing directory, whose Path is
// that directory. The failing subtree yields nothing; siblings and already
// yielded levels are unaffected.
//
// If nil, such failures are silently skipped.
func WithOnError(fn func(err error)) Option {
	return func(o *options) {
		o.OnError = fn
	}
}

// WithMaxDepth limits how deep the walk descends. The root is depth 0; with
// n = 1 only the root and its immediate subdirectories are scanned.
//
// Values <= 0 mean no limit.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.MaxDepth = n
	}
}

// WithSkip drops subdirectories for which fn returns true before they are
// listed in [Level.Dirs]. They are neither reported nor walked, in both
// pre-order and post-order mode.
//
// dir is the directory being scanned, name the subdirectory's base name.
func WithSkip(fn func(dir, name string) bool) Option {
	return func(o *options) {
		o.Skip = fn
	}
}

type options struct {
	// PostOrder emits levels after their subtrees.
	PostOrder bool
	// FollowLinks descends into symlinked directories.
	FollowLinks bool
	// OnError receives per-subtree scan failures.
	OnError func(err error)
	// MaxDepth limits descent; <= 0 is unlimited.
	MaxDepth int
	// Skip filters subdirectory names.
	Skip func(dir, name string) bool
}

// applyOptions merges option values and applies defaults.
func applyOptions(opts []Option) options {
	cfg := options{}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}

	return cfg
}
