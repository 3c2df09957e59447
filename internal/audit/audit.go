// Package audit provides an append-only JSONL trail of mutating operations.
// One file per day; entries are never rewritten or deleted.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/model"
)

// Log appends audit entries to daily JSONL files under a directory. Safe for
// concurrent use. Recording never fails the audited operation: write errors
// are reported through the structured log only.
type Log struct {
	mu   sync.Mutex
	dir  string
	name string
	log  zerolog.Logger

	now func() time.Time
}

// NewLog creates an audit log writing files named <name>-YYYY-MM-DD.jsonl
// under dir.
func NewLog(dir, name string, log zerolog.Logger) *Log {
	return &Log{dir: dir, name: name, log: log, now: time.Now}
}

// Record appends one entry, assigning it a ULID and a timestamp when absent.
func (l *Log) Record(ctx context.Context, entry model.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if entry.EntryID == "" {
		entry.EntryID = ulid.Make().String()
	}

	if err := l.append(entry); err != nil {
		l.log.Error().Err(err).Str("agent", entry.AgentID).Str("op", entry.OperationType).Msg("audit write failed")
	}
}

func (l *Log) append(entry model.AuditEntry) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path(entry.Timestamp), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(b, '\n'))
	return err
}

// ReadDay returns every entry recorded on the given day (YYYY-MM-DD), in
// append order. A missing file yields an empty slice.
func (l *Log) ReadDay(date string) ([]model.AuditEntry, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}

	f, err := os.Open(l.path(day))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var entries []model.AuditEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e model.AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			l.log.Warn().Err(err).Str("file", l.path(day)).Msg("skipping malformed audit line")
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

func (l *Log) path(ts time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s-%s.jsonl", l.name, ts.UTC().Format("2006-01-02")))
}
