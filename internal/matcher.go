package internal

import (
	"regexp"
	"sort"

	"github.com/flier/gohs/hyperscan"
	"github.com/phuslu/log"
)

// PerFileMatcher answers "which of this file's log statements could have
// produced this log body?" per §4.6. It prefers a Hyperscan block
// database for a single-pass multi-pattern scan; when the pattern set
// can't be compiled into one (syntax Hyperscan can't represent, or the
// combined program exceeds its internal limits per §9's RegexSet-size
// note) it falls back to scanning patterns sequentially with stdlib
// regexp. Either path yields the same candidate-index semantics.
type PerFileMatcher struct {
	patterns []string
	compiled []*regexp.Regexp // fallback path, built lazily from patterns
	db       hyperscan.BlockDatabase
	scratch  *hyperscan.Scratch
}

// NewPerFileMatcher builds a matcher over the given anchored patterns,
// indexed in the same order as the file's LogStatements.
func NewPerFileMatcher(patterns []string) *PerFileMatcher {
	m := &PerFileMatcher{patterns: patterns}
	if len(patterns) == 0 {
		return m
	}
	if db, scratch, err := buildHyperscanDB(patterns); err == nil {
		m.db = db
		m.scratch = scratch
		return m
	} else {
		log.Warn().Err(err).Int("patterns", len(patterns)).Msg("hyperscan compile failed, falling back to sequential regexp matching")
	}
	m.compiled = compileFallback(patterns)
	return m
}

func buildHyperscanDB(patterns []string) (hyperscan.BlockDatabase, *hyperscan.Scratch, error) {
	hsPatterns := make([]*hyperscan.Pattern, len(patterns))
	for i, p := range patterns {
		hp := hyperscan.NewPattern(p, hyperscan.DotAll|hyperscan.SingleMatch)
		hp.Id = i
		hsPatterns[i] = hp
	}
	db, err := hyperscan.NewBlockDatabase(hsPatterns...)
	if err != nil {
		return nil, nil, err
	}
	scratch, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, scratch, nil
}

func compileFallback(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warn().Err(err).Str("pattern", p).Msg("pattern failed to compile, statement will never match")
			continue
		}
		out[i] = re
	}
	return out
}

// Matches returns the indices of patterns (into the original patterns
// slice) that matched body, in ascending index order. First-match-wins
// selection over the result is the caller's responsibility per §4.8.
func (m *PerFileMatcher) Matches(body string) []int {
	if m == nil || len(m.patterns) == 0 {
		return nil
	}
	if m.db != nil {
		return m.matchHyperscan(body)
	}
	return m.matchFallback(body)
}

func (m *PerFileMatcher) matchHyperscan(body string) []int {
	var hits []int
	err := m.db.Scan([]byte(body), m.scratch, func(id uint, from, to uint64, flags uint, context interface{}) error {
		hits = append(hits, int(id))
		return nil
	}, nil)
	if err != nil {
		log.Warn().Err(err).Msg("hyperscan scan failed, falling back to sequential regexp for this body")
		if m.compiled == nil {
			m.compiled = compileFallback(m.patterns)
		}
		return m.matchFallback(body)
	}
	// Hyperscan reports matches in the order they end within the scanned
	// buffer, not in ascending pattern-id order; restore index order so
	// callers can rely on Matches' documented first-match-wins contract.
	sort.Ints(hits)
	return hits
}

func (m *PerFileMatcher) matchFallback(body string) []int {
	var hits []int
	for i, re := range m.compiled {
		if re != nil && re.MatchString(body) {
			hits = append(hits, i)
		}
	}
	return hits
}

// Close releases the Hyperscan database and scratch space, if any were
// allocated. Safe to call on a matcher that fell back to stdlib regexp.
func (m *PerFileMatcher) Close() {
	if m == nil {
		return
	}
	if m.scratch != nil {
		m.scratch.Free()
		m.scratch = nil
	}
	if m.db != nil {
		m.db.Close()
		m.db = nil
	}
}
