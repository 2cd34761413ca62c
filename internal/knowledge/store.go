// Package knowledge stores learned question/answer pairs in SQLite and
// matches new questions against them by word-set similarity.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/diogo/learnchat/internal/models"
)

// Matching thresholds
const (
	// AnswerThreshold is the similarity above which a stored answer is reused
	AnswerThreshold = 0.6
	// MergeThreshold is the similarity above which a new exchange counts as
	// another use of a stored pair instead of a new pair
	MergeThreshold = 0.7
)

// InMemory opens a private database that disappears on Close
const InMemory = ":memory:"

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("knowledge store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS learned_qa (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	question   TEXT NOT NULL,
	response   TEXT NOT NULL,
	keywords   TEXT NOT NULL DEFAULT '[]',
	count      INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO counters (name, value) VALUES ('total_messages', 0);
INSERT OR IGNORE INTO counters (name, value) VALUES ('total_conversations', 0);
`

// Store is a SQLite-backed knowledge base. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if needed) the knowledge base at path
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive for the life of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &Store{
		db:     db,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// LearnedResponse returns the stored pair whose question is most similar to
// question, provided the similarity exceeds AnswerThreshold
func (s *Store) LearnedResponse(ctx context.Context, question string) (*models.LearnedQA, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, ErrClosed
	}

	all, err := s.list(ctx, s.db)
	if err != nil {
		return nil, false, err
	}

	var best *models.LearnedQA
	bestScore := 0.0
	for i := range all {
		score := Similarity(question, all[i].Question)
		if score > bestScore {
			bestScore = score
			best = &all[i]
		}
	}

	if best == nil || bestScore <= AnswerThreshold {
		return nil, false, nil
	}

	s.logger.Debug("learned answer matched",
		zap.String("id", best.ID),
		zap.Float64("score", bestScore),
	)
	return best, true, nil
}

// AddConversation records one exchange. A question similar enough to a
// stored one bumps that pair's use count; anything else is stored as a
// new pair. Either way two more messages are counted.
func (s *Store) AddConversation(ctx context.Context, question, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	all, err := s.list(ctx, tx)
	if err != nil {
		return err
	}

	now := s.now().UTC().Format(time.RFC3339Nano)

	merged := ""
	for _, qa := range all {
		if Similarity(question, qa.Question) > MergeThreshold {
			merged = qa.ID
			break
		}
	}

	if merged != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE learned_qa SET count = count + 1, updated_at = ? WHERE id = ?`,
			now, merged,
		); err != nil {
			return fmt.Errorf("failed to update learned pair: %w", err)
		}
	} else {
		keywords, err := json.Marshal(ExtractKeywords(question))
		if err != nil {
			return fmt.Errorf("failed to encode keywords: %w", err)
		}
		id := fmt.Sprintf("qa_%d", len(all)+1)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO learned_qa (id, question, response, keywords, count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			id, question, response, string(keywords), now, now,
		); err != nil {
			return fmt.Errorf("failed to insert learned pair: %w", err)
		}
		merged = id
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE counters SET value = value + 2 WHERE name = 'total_messages'`,
	); err != nil {
		return fmt.Errorf("failed to update counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("conversation recorded", zap.String("id", merged))
	return nil
}

// Count returns the number of stored pairs
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learned_qa`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count learned pairs: %w", err)
	}
	return n, nil
}

// Stats summarizes the knowledge base
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	stats := &models.Stats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learned_qa`).Scan(&stats.TotalLearnedQA); err != nil {
		return nil, fmt.Errorf("failed to count learned pairs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		switch name {
		case "total_messages":
			stats.TotalMessages = value
		case "total_conversations":
			stats.TotalConversations = value
		}
	}
	return stats, rows.Err()
}

// Export returns every pair in display form, most used first
func (s *Store) Export(ctx context.Context) ([]models.KnowledgeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	all, err := s.list(ctx, s.db)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	})

	entries := make([]models.KnowledgeEntry, len(all))
	for i, qa := range all {
		entries[i] = models.KnowledgeEntry{Q: qa.Question, A: qa.Response, Uses: qa.Count}
	}
	return entries, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// list returns every pair in insertion order
func (s *Store) list(ctx context.Context, q querier) ([]models.LearnedQA, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, question, response, keywords, count, created_at, updated_at
		 FROM learned_qa ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query learned pairs: %w", err)
	}
	defer rows.Close()

	var out []models.LearnedQA
	for rows.Next() {
		var (
			qa               models.LearnedQA
			keywords         string
			created, updated string
		)
		if err := rows.Scan(&qa.ID, &qa.Question, &qa.Response, &keywords, &qa.Count, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan learned pair: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &qa.Keywords); err != nil {
			s.logger.Warn("invalid keywords column", zap.String("id", qa.ID), zap.Error(err))
		}
		qa.Created, _ = time.Parse(time.RFC3339Nano, created)
		qa.Updated, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, qa)
	}
	return out, rows.Err()
}
