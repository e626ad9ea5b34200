package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"htrae.ai/internal/sim/world"
)

// Journal appends JSON lines to zstd-compressed segments, one per UTC hour,
// named <prefix>-<YYYY-MM-DD-HH>.jsonl.zst under dir. Reopening a segment
// appends a new zstd frame, which Scan reads as one stream.
type Journal struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	segment string
	file    *os.File
	enc     *zstd.Encoder
	buf     *bufio.Writer
}

func NewJournal(dir, prefix string) *Journal {
	return &Journal{dir: dir, prefix: prefix, now: time.Now}
}

// Append writes v as one line. A value that does not marshal leaves the
// journal untouched.
func (j *Journal) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("journal %s: %w", j.prefix, err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if seg := j.now().UTC().Format(segmentLayout); seg != j.segment {
		if err := j.open(seg); err != nil {
			return err
		}
	}
	if _, err := j.buf.Write(line); err != nil {
		return err
	}
	return j.buf.Flush()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeSegment()
}

const segmentLayout = "2006-01-02-15"

func (j *Journal) open(seg string) error {
	if err := j.closeSegment(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, seg))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.file, j.enc, j.buf, j.segment = f, enc, bufio.NewWriter(enc), seg
	return nil
}

func (j *Journal) closeSegment() error {
	if j.file == nil {
		return nil
	}
	err := errors.Join(j.buf.Flush(), j.enc.Close(), j.file.Close())
	j.file, j.enc, j.buf, j.segment = nil, nil, nil, ""
	return err
}

// Files lists the journal files written under dir with the given prefix, oldest first.
func Files(dir, prefix string) ([]string, error) {
	out, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Scan decodes a compressed JSONL file and calls fn for every line.
func Scan(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// TickLogger journals one entry per world tick under <data>/journal/ticks-*.
type TickLogger struct{ j *Journal }

func NewTickLogger(dataDir string) *TickLogger {
	return &TickLogger{j: NewJournal(filepath.Join(dataDir, "journal"), "ticks")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error { return l.j.Append(e) }
func (l *TickLogger) Close() error                         { return l.j.Close() }

// AuditLogger journals session actions (join, chat, leave, start/stop).
type AuditLogger struct{ j *Journal }

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{j: NewJournal(filepath.Join(dataDir, "journal"), "audit")}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error { return l.j.Append(e) }
func (l *AuditLogger) Close() error                        { return l.j.Close() }
