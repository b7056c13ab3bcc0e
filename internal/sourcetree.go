package internal

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/phuslu/log"
)

// ScanEventKind distinguishes the two diffs a tree sync can produce
// relative to its previous snapshot.
type ScanEventKind int

const (
	NewFile ScanEventKind = iota
	DeletedFile
)

// ScanEvent is emitted for every source file whose presence changed
// between two calls to SourceTree.Sync. There is no live filesystem
// watch: events are computed by diffing directory listings, per §9
// "no fsnotify watching — sync() diffs against the previous snapshot".
type ScanEvent struct {
	Kind ScanEventKind
	ID   int
	Path string
}

// treeNode is one arena slot: a source file discovered under the tree's
// root. Only files carrying a recognized language profile are tracked;
// directories and unsupported files are walked through but not recorded.
type treeNode struct {
	id   int
	path string
}

// SourceTree owns one root directory's arena of known source files,
// identified by stable per-run monotonic ids assigned the first time a
// path is observed (§9 "stable file ids": ids are never reused or
// reassigned across a sync, even if the file disappears and a different
// file later takes the same path).
type SourceTree struct {
	Root   string
	ignore *IgnoreSet

	mu     sync.Mutex
	nodes  []treeNode
	byPath map[string]int // path -> index into nodes
	nextID int
}

func NewSourceTree(root string, ignore *IgnoreSet) *SourceTree {
	return &SourceTree{
		Root:   root,
		ignore: ignore,
		byPath: make(map[string]int),
	}
}

// Sync walks the tree's root, diffs the result against the previous
// snapshot, and returns the set of NewFile/DeletedFile events. It is
// idempotent: calling Sync twice in a row with no filesystem change
// between them returns no events, per §8's idempotent-sync property.
func (t *SourceTree) Sync() ([]ScanEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool)
	err := filepath.Walk(t.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("walk error, skipping")
			return nil
		}
		rel, relErr := filepath.Rel(t.Root, path)
		if relErr != nil {
			return nil
		}
		slashRel := filepath.ToSlash(rel)
		if info.IsDir() {
			if slashRel != "." && t.ignore.Matches(slashRel+"/sentinel") {
				return filepath.SkipDir
			}
			return nil
		}
		if t.ignore.Matches(slashRel) {
			return nil
		}
		if _, ok := profileForPath(path); !ok {
			return nil
		}
		seen[path] = true
		return nil
	})
	if err != nil {
		return nil, &CannotAccessPathError{Path: t.Root, Err: err}
	}

	var events []ScanEvent

	for path := range seen {
		if _, known := t.byPath[path]; known {
			continue
		}
		id := t.nextID
		t.nextID++
		t.nodes = append(t.nodes, treeNode{id: id, path: path})
		t.byPath[path] = len(t.nodes) - 1
		events = append(events, ScanEvent{Kind: NewFile, ID: id, Path: path})
	}

	kept := t.nodes[:0]
	for _, n := range t.nodes {
		if seen[n.path] {
			kept = append(kept, n)
			continue
		}
		delete(t.byPath, n.path)
		events = append(events, ScanEvent{Kind: DeletedFile, ID: n.id, Path: n.path})
	}
	t.nodes = kept
	for i, n := range t.nodes {
		t.byPath[n.path] = i
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Kind != events[j].Kind {
			return events[i].Kind < events[j].Kind
		}
		return events[i].Path < events[j].Path
	})
	return events, nil
}

// FindFile looks up a tracked source file by path, returning its stable
// id and true if known.
func (t *SourceTree) FindFile(path string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byPath[path]
	if !ok {
		return 0, false
	}
	return t.nodes[idx].id, true
}

// Visit calls fn for every currently tracked source file, in stable-id
// order.
func (t *SourceTree) Visit(fn func(id int, path string)) {
	t.mu.Lock()
	nodes := make([]treeNode, len(t.nodes))
	copy(nodes, t.nodes)
	t.mu.Unlock()

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	for _, n := range nodes {
		fn(n.id, n.path)
	}
}

// Len reports how many source files the tree currently tracks.
func (t *SourceTree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}
