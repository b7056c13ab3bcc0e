package internal

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/phuslu/log"
	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/pool"
)

// rootEntry is one project root registered with a LogMatcher: its
// filesystem tree plus the per-file statement sets discovered under it.
type rootEntry struct {
	tree *SourceTree

	mu    sync.RWMutex
	files map[string]*StatementsInFile // path -> statements
}

// LogMatcher is the top-level engine of §4.8: it owns zero or more
// project roots, discovers their source files, extracts log call sites
// from each, and answers "which source statement produced this log
// line" queries against the accumulated state. There is no persisted
// state (§6): everything here lives in memory for the process lifetime.
type LogMatcher struct {
	progress *ProgressTracker
	cache    *ParseCache // optional acceleration layer, see internal/cache.go

	mu    sync.RWMutex
	roots map[string]*rootEntry
}

func NewLogMatcher(progress *ProgressTracker) *LogMatcher {
	if progress == nil {
		progress = NewProgressTracker(false)
	}
	return &LogMatcher{progress: progress, roots: make(map[string]*rootEntry)}
}

// SetParseCache attaches an optional parse-result cache: extraction will
// consult it before re-parsing and querying an unchanged file, and refill
// it after a fresh parse. A nil cache disables the acceleration layer
// (every run parses every file from scratch).
func (m *LogMatcher) SetParseCache(cache *ParseCache) {
	m.cache = cache
}

// IsEmpty reports whether no roots have been registered yet.
func (m *LogMatcher) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.roots) == 0
}

// AddRoot registers a new project root for discovery. root must be an
// existing, readable directory; re-adding an already-registered root is
// a no-op returning PathExistsError.
func (m *LogMatcher) AddRoot(root string, ignore *IgnoreSet) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return &CannotAccessPathError{Path: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &CannotAccessPathError{Path: abs, Err: err}
	}
	if !info.IsDir() {
		return &CannotAccessPathError{Path: abs, Err: os.ErrInvalid}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// §3's "pairwise non-nested" invariant cuts both ways: reject abs if
	// it equals or descends from an already-registered root, and reject
	// it if an already-registered root descends from abs.
	if covering, ok := m.findCoveringRootLocked(abs); ok {
		return &PathExistsError{Path: abs, Root: covering}
	}
	for r := range m.roots {
		if strings.HasPrefix(r, abs+string(filepath.Separator)) {
			return &PathExistsError{Path: abs, Root: r}
		}
	}

	m.roots[abs] = &rootEntry{tree: NewSourceTree(abs, ignore), files: make(map[string]*StatementsInFile)}
	return nil
}

// findCoveringRootLocked returns the longest already-registered root that
// equals or is an ancestor of abs, if any. Callers must hold m.mu.
func (m *LogMatcher) findCoveringRootLocked(abs string) (root string, ok bool) {
	var best string
	for r := range m.roots {
		if r == abs || strings.HasPrefix(abs, r+string(filepath.Separator)) {
			if len(r) > len(best) {
				best = r
			}
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// MatchPath reports which registered root contains path, if any. Used to
// find the root entry a tracked file belongs to when its statements are
// stored, removed or looked up.
func (m *LogMatcher) MatchPath(path string) (root string, ok bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findCoveringRootLocked(abs)
}

// DiscoverSources runs a filesystem Sync across every registered root in
// parallel, per §5's data-parallel concurrency model, and returns the
// combined set of NewFile/DeletedFile events.
func (m *LogMatcher) DiscoverSources() ([]ScanEvent, error) {
	m.mu.RLock()
	entries := make([]*rootEntry, 0, len(m.roots))
	for _, e := range m.roots {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	guard := m.progress.DoingWork(int64(len(entries)), "discovering sources")
	defer guard.Release()

	p := pool.NewWithResults[[]ScanEvent]().WithErrors()
	for _, e := range entries {
		e := e
		p.Go(func() ([]ScanEvent, error) {
			defer guard.Inc(1)
			return e.tree.Sync()
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	var all []ScanEvent
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// ExtractLogStatements processes scan events in small batches, parsing
// each newly discovered file concurrently and removing statements for
// deleted files. Batch size matches the teacher's queue-draining
// granularity so progress reporting stays responsive on large trees.
const extractBatchSize = 10

func (m *LogMatcher) ExtractLogStatements(events []ScanEvent) error {
	var newFiles []ScanEvent
	for _, e := range events {
		switch e.Kind {
		case NewFile:
			newFiles = append(newFiles, e)
		case DeletedFile:
			m.removeFile(e.Path)
		}
	}
	if len(newFiles) == 0 {
		return nil
	}

	guard := m.progress.DoingWork(int64(len(newFiles)), "extracting log statements")
	defer guard.Release()

	for start := 0; start < len(newFiles); start += extractBatchSize {
		end := start + extractBatchSize
		if end > len(newFiles) {
			end = len(newFiles)
		}
		batch := newFiles[start:end]
		iter.ForEach(batch, func(e *ScanEvent) {
			defer guard.Inc(1)
			if err := m.extractOne(*e); err != nil {
				log.Warn().Err(err).Str("path", e.Path).Msg("failed to extract log statements")
			}
		})
	}
	return nil
}

func (m *LogMatcher) extractOne(e ScanEvent) error {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return &CannotReadSourceFileError{Path: e.Path, Err: err}
	}

	hash := contentHash(data)
	var stmts *StatementsInFile
	if m.cache != nil {
		if cached, ok := m.cache.Get(e.Path, hash); ok {
			cached.ID = e.ID
			stmts = cached
		}
	}

	if stmts == nil {
		code, err := LoadCodeSource(e.Path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer code.Close()

		stmts, err = ExtractLogStatements(code, e.ID)
		if err != nil {
			return err
		}
		if stmts == nil {
			return nil
		}
		if m.cache != nil {
			if err := m.cache.Put(e.Path, hash, stmts); err != nil {
				log.Warn().Err(err).Str("path", e.Path).Msg("failed to write parse cache entry")
			}
		}
	}

	root, ok := m.MatchPath(e.Path)
	if !ok {
		return nil
	}
	m.mu.RLock()
	entry := m.roots[root]
	m.mu.RUnlock()

	entry.mu.Lock()
	if old, exists := entry.files[e.Path]; exists {
		old.Matcher.Close()
	}
	entry.files[e.Path] = stmts
	entry.mu.Unlock()
	return nil
}

// contentHash keys the parse cache by file content rather than mtime,
// so the cache stays valid across checkouts/rebuilds that don't preserve
// timestamps.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (m *LogMatcher) removeFile(path string) {
	root, ok := m.MatchPath(path)
	if !ok {
		return
	}
	m.mu.RLock()
	entry := m.roots[root]
	m.mu.RUnlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if old, exists := entry.files[path]; exists {
		old.Matcher.Close()
		delete(entry.files, path)
	}
}

// FindSourceFileStatements returns the extracted statements for a
// specific tracked file, if any.
func (m *LogMatcher) FindSourceFileStatements(path string) (*StatementsInFile, bool) {
	root, ok := m.MatchPath(path)
	if !ok {
		return nil, false
	}
	m.mu.RLock()
	entry := m.roots[root]
	m.mu.RUnlock()

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	stmts, ok := entry.files[path]
	return stmts, ok
}

// VisitFiles calls fn for every file currently tracked across every
// registered root, with the number of log statements extracted from it.
func (m *LogMatcher) VisitFiles(fn func(path string, n int)) {
	m.mu.RLock()
	entries := make([]*rootEntry, 0, len(m.roots))
	for _, e := range m.roots {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	for _, e := range entries {
		e.mu.RLock()
		for path, stmts := range e.files {
			fn(path, len(stmts.LogStatements))
		}
		e.mu.RUnlock()
	}
}

// MatchLogStatement resolves one emitted log body to the SourceRef that
// produced it, per §4.8. When hint is non-empty, it is matched against
// tracked file paths by **substring containment** (log line file columns
// commonly elide directory prefixes or extensions), restricting the
// search to files whose path contains hint; the first such file (in
// deterministic path order) with any match wins. Without a hint, every
// tracked file across every root is probed in parallel and candidates
// are ranked by pattern specificity (longest literal prefix before the
// first placeholder), breaking remaining ties lexicographically by path
// then line for determinism.
func (m *LogMatcher) MatchLogStatement(body string, hint string) (*SourceRef, bool) {
	if hint != "" {
		return m.matchWithHint(body, hint)
	}

	type candidate struct {
		ref   SourceRef
		score int
	}
	var candidates []candidate

	m.mu.RLock()
	entries := make([]*rootEntry, 0, len(m.roots))
	for _, e := range m.roots {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	var mu sync.Mutex
	for _, e := range entries {
		e.mu.RLock()
		var all []*StatementsInFile
		for _, s := range e.files {
			all = append(all, s)
		}
		e.mu.RUnlock()

		iter.ForEach(all, func(s **StatementsInFile) {
			ref, ok := bestMatch(*s, body)
			if !ok {
				return
			}
			mu.Lock()
			candidates = append(candidates, candidate{ref: *ref, score: literalPrefixLen(ref.Pattern)})
			mu.Unlock()
		})
	}

	if len(candidates) == 0 {
		return nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].ref.SourcePath != candidates[j].ref.SourcePath {
			return candidates[i].ref.SourcePath < candidates[j].ref.SourcePath
		}
		return candidates[i].ref.LineNo < candidates[j].ref.LineNo
	})
	best := candidates[0].ref
	return &best, true
}

// matchWithHint restricts the search to files whose path contains hint
// as a substring, in deterministic (lexicographic path) order, and
// returns the SourceRef from the first such file with any match, per
// §4.8's hinted-match tie-break ("first file in iteration order with
// any match").
func (m *LogMatcher) matchWithHint(body, hint string) (*SourceRef, bool) {
	type pathStmts struct {
		path  string
		stmts *StatementsInFile
	}
	var candidates []pathStmts

	m.mu.RLock()
	entries := make([]*rootEntry, 0, len(m.roots))
	for _, e := range m.roots {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	for _, e := range entries {
		e.mu.RLock()
		for path, stmts := range e.files {
			if strings.Contains(path, hint) {
				candidates = append(candidates, pathStmts{path: path, stmts: stmts})
			}
		}
		e.mu.RUnlock()
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].path < candidates[j].path })
	for _, c := range candidates {
		if ref, ok := bestMatch(c.stmts, body); ok {
			return ref, true
		}
	}
	return nil, false
}

// bestMatch applies the per-file matcher's first-match-wins guarantee
// (§4.6): among the patterns that matched, the lowest index is the one
// the log matcher uses. Candidate ranking by pattern specificity only
// applies when choosing between different *files* (see literalPrefixLen
// and its use in MatchLogStatement), never within one file's own hits.
func bestMatch(stmts *StatementsInFile, body string) (*SourceRef, bool) {
	if stmts == nil || stmts.Matcher == nil {
		return nil, false
	}
	hits := stmts.Matcher.Matches(body)
	if len(hits) == 0 {
		return nil, false
	}
	ref := stmts.LogStatements[hits[0]]
	return &ref, true
}

// literalPrefixLen measures how much of an anchored pattern is literal
// text before its first capture group, used as a specificity proxy when
// ranking multiple candidate statements that all matched the same body.
func literalPrefixLen(pattern string) int {
	if idx := strings.Index(pattern, "(.*?)"); idx >= 0 {
		return idx
	}
	return len(pattern)
}

// LinkToSource is the single-shot convenience entry point: register one
// root, discover and extract its sources, then resolve one log body.
// Grounded in lib.rs's standalone link_to_source helper.
func LinkToSource(root string, body string, progress *ProgressTracker) (*SourceRef, error) {
	m := NewLogMatcher(progress)
	if err := m.AddRoot(root, NewIgnoreSet(DefaultIgnoreGlobs)); err != nil {
		return nil, err
	}
	events, err := m.DiscoverSources()
	if err != nil {
		return nil, err
	}
	if err := m.ExtractLogStatements(events); err != nil {
		return nil, err
	}
	ref, ok := m.MatchLogStatement(body, "")
	if !ok {
		return nil, ErrNoLogStatements
	}
	return ref, nil
}

// LookupSource is LinkToSource scoped to an already-populated matcher,
// for callers driving scan/match as separate steps (e.g. the CLI).
// Grounded in lib.rs's standalone lookup_source helper.
func LookupSource(m *LogMatcher, body string, hint string) (*SourceRef, bool) {
	return m.MatchLogStatement(body, hint)
}
