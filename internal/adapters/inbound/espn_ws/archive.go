package espn_ws

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/draftops/draftops/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	evictBatchSize = 500
	archiveQueue   = 1024
)

// Archive persists raw draft-room frames in a FIFO SQLite database
// capped at a row budget. A single writer goroutine drains the queue so
// archival never stalls the read loop and frames land in arrival order.
// Drafts replay cleanly from the archive, which is what makes
// post-mortems of decode or gap bugs possible.
type Archive struct {
	db        *sql.DB
	maxFrames int64

	mu           sync.Mutex
	cachedFrames int64

	queue chan Frame
	done  chan struct{}
}

func OpenArchive(path string, maxFrames int) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS frames (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			received TEXT    NOT NULL,
			raw      TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_frames_received ON frames(received)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init archive schema: %w", err)
		}
	}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM frames`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read archive size: %w", err)
	}

	telemetry.Plainf("archive: opened %s  frames=%d", path, count)

	a := &Archive{
		db:           db,
		maxFrames:    int64(maxFrames),
		cachedFrames: count,
		queue:        make(chan Frame, archiveQueue),
		done:         make(chan struct{}),
	}
	go a.writer()
	return a, nil
}

// Insert queues a frame for persistence. Drops with a warning rather
// than blocking when the writer falls hopelessly behind. A nil archive
// is a no-op.
func (a *Archive) Insert(f Frame) {
	if a == nil {
		return
	}
	select {
	case a.queue <- f:
	default:
		telemetry.Warnf("archive: queue full, dropping frame")
	}
}

func (a *Archive) writer() {
	defer close(a.done)
	for f := range a.queue {
		a.persist(f)
	}
}

func (a *Archive) persist(f Frame) {
	_, err := a.db.Exec(
		`INSERT INTO frames (received, raw) VALUES (?, ?)`,
		f.ReceivedAt.UTC().Format(time.RFC3339Nano),
		f.Text,
	)
	if err != nil {
		telemetry.Warnf("archive: insert failed: %v", err)
		return
	}

	telemetry.Metrics.FramesArchived.Inc()

	a.mu.Lock()
	a.cachedFrames++
	over := a.cachedFrames > a.maxFrames
	a.mu.Unlock()
	if over {
		a.evict()
	}
}

func (a *Archive) evict() {
	for {
		a.mu.Lock()
		batch := a.cachedFrames - a.maxFrames
		a.mu.Unlock()
		if batch <= 0 {
			return
		}
		if batch > evictBatchSize {
			batch = evictBatchSize
		}

		res, err := a.db.Exec(
			`DELETE FROM frames WHERE id IN (SELECT id FROM frames ORDER BY id ASC LIMIT ?)`,
			batch,
		)
		if err != nil {
			telemetry.Warnf("archive: eviction failed: %v", err)
			return
		}
		deleted, err := res.RowsAffected()
		if err != nil || deleted == 0 {
			telemetry.Warnf("archive: eviction freed 0 rows")
			return
		}

		a.mu.Lock()
		a.cachedFrames -= deleted
		a.mu.Unlock()
	}
}

// Frames reports the current archived frame count.
func (a *Archive) Frames() int64 {
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cachedFrames
}

// Replay streams archived frames in arrival order, oldest first.
func (a *Archive) Replay(fn func(Frame) error) error {
	if a == nil {
		return nil
	}
	rows, err := a.db.Query(`SELECT received, raw FROM frames ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("archive query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var received, raw string
		if err := rows.Scan(&received, &raw); err != nil {
			return fmt.Errorf("archive scan: %w", err)
		}
		at, _ := time.Parse(time.RFC3339Nano, received)
		if err := fn(Frame{Text: raw, ReceivedAt: at}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close drains the pending queue, then closes the database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	close(a.queue)
	<-a.done
	return a.db.Close()
}
