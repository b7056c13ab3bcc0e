package internal

import (
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/phuslu/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// parseCacheRow is the persisted table backing ParseCache. It's purely
// an acceleration layer over re-parsing unchanged files on the next
// run: the in-memory LogMatcher holds no reference to it and rebuilds
// its working state from whatever the cache (or a fresh parse) yields,
// per §6's "Persisted state: None" — nothing here is authoritative.
type parseCacheRow struct {
	Path      string `gorm:"primaryKey"`
	Hash      string `gorm:"index"`
	Payload   string
	UpdatedAt time.Time
}

// ParseCache stores previously extracted StatementsInFile payloads keyed
// by path and a content hash, so unchanged files can skip tree-sitter
// parsing and query execution on the next run.
type ParseCache struct {
	db *gorm.DB
}

// OpenParseCache opens (creating if needed) a sqlite-backed cache at
// dbPath.
func OpenParseCache(dbPath string) (*ParseCache, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&parseCacheRow{}); err != nil {
		return nil, err
	}
	return &ParseCache{db: db}, nil
}

// cachedStatements is the serializable projection of StatementsInFile;
// the live Matcher is rebuilt after load since *PerFileMatcher holds
// non-serializable Hyperscan state.
type cachedStatements struct {
	ID            int         `json:"id"`
	Path          string      `json:"path"`
	LogStatements []SourceRef `json:"log_statements"`
}

// Get returns the cached statements for path if hash still matches the
// stored content hash, rebuilding a fresh PerFileMatcher over their
// patterns.
func (c *ParseCache) Get(path, hash string) (*StatementsInFile, bool) {
	var row parseCacheRow
	err := c.db.Where("path = ? AND hash = ?", path, hash).First(&row).Error
	if err != nil {
		return nil, false
	}
	var cached cachedStatements
	if err := json.Unmarshal([]byte(row.Payload), &cached); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("corrupt parse cache entry, ignoring")
		return nil, false
	}
	patterns := make([]string, len(cached.LogStatements))
	for i, s := range cached.LogStatements {
		patterns[i] = s.Pattern
	}
	return &StatementsInFile{
		ID:            cached.ID,
		Path:          cached.Path,
		LogStatements: cached.LogStatements,
		Matcher:       NewPerFileMatcher(patterns),
	}, true
}

// Put stores stmts under path keyed by hash, replacing any prior entry.
func (c *ParseCache) Put(path, hash string, stmts *StatementsInFile) error {
	payload, err := json.Marshal(cachedStatements{
		ID:            stmts.ID,
		Path:          stmts.Path,
		LogStatements: stmts.LogStatements,
	})
	if err != nil {
		return err
	}
	row := parseCacheRow{Path: path, Hash: hash, Payload: string(payload), UpdatedAt: time.Now()}
	return c.db.Save(&row).Error
}

// Close releases the underlying database handle.
func (c *ParseCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
