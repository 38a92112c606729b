package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"sigscan/logger"
	"sigscan/signature"
	"sigscan/tracing"
	"sigscan/utils"

	"golang.org/x/time/rate"
)

// Walker scans directory trees for files matching a signature registry.
// A Walker may be reused; each Scan call owns its own ScanResult.
type Walker struct {
	registry  *signature.Registry
	matcher   *utils.PatternMatcher
	limiter   *rate.Limiter
	enrichers []Enricher
	progress  func(path string)
	contain   bool
}

type Option func(*Walker)

// WithPatterns restricts classification to files accepted by the matcher.
func WithPatterns(m *utils.PatternMatcher) Option {
	return func(w *Walker) { w.matcher = m }
}

// WithLimiter throttles file reads.
func WithLimiter(l *rate.Limiter) Option {
	return func(w *Walker) { w.limiter = l }
}

// WithEnrichers adds collectors run on every matched file.
func WithEnrichers(e ...Enricher) Option {
	return func(w *Walker) { w.enrichers = append(w.enrichers, e...) }
}

// WithProgress registers a callback invoked after each file is classified.
func WithProgress(fn func(path string)) Option {
	return func(w *Walker) { w.progress = fn }
}

// WithContainment skips symlinked entries that resolve outside the root.
func WithContainment(contain bool) Option {
	return func(w *Walker) { w.contain = contain }
}

func NewWalker(registry *signature.Registry, opts ...Option) *Walker {
	if registry == nil {
		registry = signature.NewRegistry()
	}
	w := &Walker{registry: registry}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scan walks root depth-first and returns the aggregated result. It never
// returns an error: root failures are reported through Status, and failures
// on individual entries are logged and recorded as faults.
func (w *Walker) Scan(ctx context.Context, root string) *ScanResult {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, endTask := tracing.StartTask(ctx, "scan")
	defer endTask()

	res := newResult(root)
	defer func() { res.FinishedAt = time.Now() }()

	if root == "" {
		logger.Error("The directory is incorrect: no path given")
		res.Status = StatusInvalidDirectory
		return res
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		logger.Errorf("The directory is incorrect: %s: %v", root, err)
		res.Status = StatusInvalidDirectory
		return res
	}
	res.Root = absRoot
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		logger.Errorf("The directory is incorrect: %s", absRoot)
		res.Status = StatusInvalidDirectory
		return res
	}
	if err := checkReadable(absRoot); err != nil {
		logger.Errorf("Insufficient permissions to read the directory: %s", absRoot)
		res.Status = StatusPermissionDenied
		return res
	}
	entries, err := os.ReadDir(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			logger.Errorf("Insufficient permissions to list the directory: %s", absRoot)
			res.Status = StatusPermissionDenied
		} else {
			logger.Errorf("Failed to list directory %s: %v", absRoot, err)
			res.Status = StatusListFailed
		}
		return res
	}
	if len(entries) == 0 {
		logger.Infof("Directory is empty: %s", absRoot)
		res.Status = StatusEmptyDirectory
		return res
	}

	res.Status = StatusOK
	canonicalRoot, err := utils.Canonical(absRoot)
	if err != nil {
		canonicalRoot = absRoot
	}
	t := &traversal{
		walker:     w,
		result:     res,
		classifier: NewClassifier(w.registry.Snapshot()),
		root:       canonicalRoot,
		visited:    map[string]struct{}{canonicalRoot: {}},
	}
	t.run(ctx, absRoot, entries)
	return res
}

// traversal is the state of a single Scan call.
type traversal struct {
	walker     *Walker
	result     *ScanResult
	classifier *Classifier
	root       string
	visited    map[string]struct{}
	stack      []string
}

// run processes entries with an explicit stack. Children are pushed in
// reverse so they pop in os.ReadDir (name) order, giving a pre-order walk.
func (t *traversal) run(ctx context.Context, dir string, entries []os.DirEntry) {
	t.push(dir, entries)
	for len(t.stack) > 0 {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Scan of %s canceled: %v", t.result.Root, err)
			t.result.Status = StatusCanceled
			return
		}
		path := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.visit(ctx, path)
	}
}

func (t *traversal) push(dir string, entries []os.DirEntry) {
	for i := len(entries) - 1; i >= 0; i-- {
		t.stack = append(t.stack, filepath.Join(dir, entries[i].Name()))
	}
}

func (t *traversal) visit(ctx context.Context, path string) {
	linfo, err := os.Lstat(path)
	if err != nil {
		t.fault(path, "lstat", err)
		return
	}
	info := linfo
	isLink := linfo.Mode()&os.ModeSymlink != 0
	if isLink {
		info, err = os.Stat(path)
		if err != nil {
			t.fault(path, "resolve", err)
			return
		}
		if t.walker.contain && !utils.IsPathWithin(path, []string{t.root}) {
			logger.Debugf("Skipping symlink outside scan root: %s", path)
			return
		}
	}

	switch {
	case info.Mode().IsRegular():
		t.classify(ctx, path, info, isLink)
	case info.IsDir():
		t.descend(path)
	default:
		logger.Debugf("Skipping non-regular entry: %s", path)
	}
}

func (t *traversal) descend(path string) {
	canonical, err := utils.Canonical(path)
	if err != nil {
		canonical = path
	}
	if _, seen := t.visited[canonical]; seen {
		logger.Debugf("Skipping already visited directory: %s", path)
		return
	}
	t.visited[canonical] = struct{}{}

	if err := checkReadable(path); err != nil {
		t.fault(path, "access", err)
		return
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		t.fault(path, "readdir", err)
		return
	}
	t.push(path, entries)
}

func (t *traversal) classify(ctx context.Context, path string, info os.FileInfo, isLink bool) {
	if !t.walker.matcher.ShouldInclude(path) {
		return
	}
	if t.walker.limiter != nil {
		if err := t.walker.limiter.Wait(ctx); err != nil {
			return
		}
	}
	t.result.FilesScanned++
	if t.walker.progress != nil {
		defer t.walker.progress(path)
	}

	endRegion := tracing.StartRegion(ctx, "classify")
	m, ok, err := t.classifier.Classify(path)
	endRegion()
	if err != nil {
		t.fault(path, "read", err)
		return
	}
	if !ok {
		return
	}

	tracing.Log(ctx, "match", path)
	md := captureMetadata(path, info, isLink, m)
	fc := newFileContext(path, info)
	for _, e := range t.walker.enrichers {
		if err := e.Enrich(ctx, fc, &md); err != nil {
			logger.Debugf("Enricher %s failed for %s: %v", e.Name(), path, err)
		}
	}
	t.result.addMatch(md)
	logger.WithFields(map[string]interface{}{
		"path":  path,
		"label": m.Label,
	}).Info("Signature match found")
}

func (t *traversal) fault(path, op string, err error) {
	logger.Warnf("Error processing %s (%s): %v", path, op, err)
	t.result.addFault(path, op, err)
}

func captureMetadata(path string, info os.FileInfo, isLink bool, m signature.Match) FileMetadata {
	md := metadataFromMatch(m)
	md.Name = filepath.Base(path)
	md.Path = path
	md.IsSymlink = isLink
	if info.Size() > 0 {
		md.Size = uint64(info.Size())
	}
	ft := fileTimes(path, info)
	md.CreatedAt = ft.Created
	md.LastAccessedAt = ft.Accessed
	md.LastModifiedAt = ft.Modified
	return md
}
