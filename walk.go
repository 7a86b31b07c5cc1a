package scandir

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"slices"
)

// Level describes one directory visited by [Walk].
type Level struct {
	// Path is the directory's path: the walk root, or a parent's Path joined
	// with a name from the parent's Dirs.
	Path string

	// Dirs lists the names of subdirectories in enumeration order, including
	// symlinks that resolve to directories.
	//
	// In pre-order mode the caller may edit Dirs before continuing the loop:
	// only the names left in it are walked, in the order given. Names that
	// were not part of the scan are looked up afresh.
	Dirs []string

	// Files lists the names of all other entries in enumeration order.
	Files []string
}

// Skip removes name from Dirs so its subtree is not walked.
func (l *Level) Skip(name string) {
	l.Dirs = slices.DeleteFunc(l.Dirs, func(d string) bool { return d == name })
}

// SkipAll clears Dirs so no subtree of this level is walked.
func (l *Level) SkipAll() {
	l.Dirs = l.Dirs[:0]
}

// Walk returns an iterator over the directory tree rooted at root.
//
// Each directory, including root, is yielded once as a [*Level]. By default
// a level is yielded before its subdirectories are walked (pre-order) and the
// loop body may prune or reorder [Level.Dirs]. Subdirectories are walked in
// the order of Dirs; no order is implied between the contents of sibling
// subtrees beyond that.
//
// A directory that cannot be scanned (permission denied, removed mid-walk,
// ...) yields nothing and is reported to the [WithOnError] handler if one is
// set. The walk itself never fails.
//
// Breaking out of the loop stops the walk and releases the open handle.
//
//	for lvl := range scandir.Walk(root) {
//		lvl.Skip(".git")
//		for _, name := range lvl.Files {
//			fmt.Println(filepath.Join(lvl.Path, name))
//		}
//	}
func Walk(root string, opts ...Option) iter.Seq[*Level] {
	cfg := applyOptions(opts)

	return walkSeq(osBackend{}, root, cfg)
}

func walkSeq(sys backend, root string, cfg options) iter.Seq[*Level] {
	return func(yield func(*Level) bool) {
		w := walker{sys: sys, cfg: cfg, yield: yield}
		w.walk(root, 0)
	}
}

// WalkDir walks the tree rooted at root like [Walk], calling fn for each
// level.
//
// If fn returns [fs.SkipAll], the walk stops and WalkDir returns nil. Any
// other error from fn stops the walk and is returned. ctx is checked before
// each directory is scanned; once it is done, WalkDir returns
// [context.Cause](ctx).
func WalkDir(ctx context.Context, root string, fn func(*Level) error, opts ...Option) error {
	cfg := applyOptions(opts)

	return walkDir(ctx, osBackend{}, root, fn, cfg)
}

func walkDir(ctx context.Context, sys backend, root string, fn func(*Level) error, cfg options) error {
	var fnErr error

	w := walker{sys: sys, cfg: cfg, ctx: ctx}
	w.yield = func(l *Level) bool {
		fnErr = fn(l)

		return fnErr == nil
	}

	w.walk(root, 0)

	if w.ctxErr != nil {
		return w.ctxErr
	}

	if errors.Is(fnErr, fs.SkipAll) {
		return nil
	}

	return fnErr
}

type walker struct {
	sys   backend
	cfg   options
	yield func(*Level) bool

	// ctx is nil for Walk.
	ctx    context.Context
	ctxErr error
}

// walk visits top and its subtree. It returns false once the consumer has
// stopped the walk.
func (w *walker) walk(top string, depth int) bool {
	if w.ctx != nil && w.ctx.Err() != nil {
		w.ctxErr = context.Cause(w.ctx)

		return false
	}

	dirs, files, err := w.scanLevel(top)
	if err != nil {
		if w.cfg.OnError != nil {
			w.cfg.OnError(err)
		}

		return true
	}

	if !w.cfg.PostOrder {
		lvl := &Level{Path: top, Dirs: entryNames(dirs), Files: files}
		if !w.yield(lvl) {
			return false
		}

		dirs = w.resolve(top, dirs, lvl.Dirs)
	}

	if w.cfg.MaxDepth == 0 || depth < w.cfg.MaxDepth {
		for _, e := range dirs {
			if !w.cfg.FollowLinks && e.IsSymlink() {
				continue
			}

			if !w.walk(joinPath(top, e.Name()), depth+1) {
				return false
			}
		}
	}

	if w.cfg.PostOrder {
		return w.yield(&Level{Path: top, Dirs: entryNames(dirs), Files: files})
	}

	return true
}

// scanLevel reads top completely and splits its children into directories
// (including symlinks to directories) and everything else. The handle is
// released before scanLevel returns, so no handle stays open across
// recursion.
func (w *walker) scanLevel(top string) ([]*DirEntry, []string, error) {
	s, err := scan(w.sys, top)
	if err != nil {
		return nil, nil, err
	}

	defer func() { _ = s.Close() }()

	var (
		dirs  []*DirEntry
		files []string
	)

	for s.Next() {
		e := s.Entry()

		if !e.IsDirTarget() {
			files = append(files, e.Name())

			continue
		}

		if w.cfg.Skip != nil && w.cfg.Skip(top, e.Name()) {
			continue
		}

		dirs = append(dirs, e)
	}

	err = s.Err()
	if err != nil {
		return nil, nil, err
	}

	return dirs, files, nil
}

// resolve maps the names the consumer left in Level.Dirs back to scanned
// entries. A name that was not scanned gets a fresh entry without a type hint.
func (w *walker) resolve(top string, scanned []*DirEntry, names []string) []*DirEntry {
	byName := make(map[string]*DirEntry, len(scanned))
	for _, e := range scanned {
		byName[e.Name()] = e
	}

	out := make([]*DirEntry, 0, len(names))

	for _, name := range names {
		e, ok := byName[name]
		if !ok {
			e = newEntry(w.sys, top, rawEntry{name: name})
		}

		out = append(out, e)
	}

	return out
}

func entryNames(entries []*DirEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}
