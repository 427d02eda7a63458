package audit

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	merrors "github.com/solace-labs/memoria/internal/errors"
)

// Action identifies the kind of operation an audit entry records.
type Action string

const (
	ActionStore    Action = "STORE"
	ActionUpdate   Action = "UPDATE"
	ActionQuery    Action = "QUERY"
	ActionRetrieve Action = "RETRIEVE"
	ActionRelevant Action = "RELEVANT"
	ActionObsolete Action = "OBSOLETE"
	ActionInit     Action = "INIT"
	ActionReload   Action = "RELOAD"
)

// Entry is one parsed line of the audit log.
type Entry struct {
	Instant time.Time
	Action  Action
	ChunkID string
	Details string
}

var chunkIDPattern = regexp.MustCompile(`^[a-f0-9]{6}$`)

// Log appends timestamped entries to a single file. Never fails the
// caller's operation: Append reports errors but the engine proceeds
// regardless, since the log is advisory over already-committed state.
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a Log that appends to path.
func New(path string) *Log {
	return &Log{path: path}
}

// Initialize ensures the log file and its parent directory exist.
func (l *Log) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return merrors.IOError("failed to create audit log directory", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return merrors.IOError("failed to create audit log file "+l.path, err)
	}
	return f.Close()
}

// Append formats and writes one entry, terminated by a newline. action and
// chunkID are required shape only by convention; chunkID and details may be
// empty.
func (l *Log) Append(action Action, chunkID, details string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := formatLine(time.Now().UTC(), action, chunkID, details)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return merrors.IOError("failed to open audit log "+l.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return merrors.IOError("failed to append audit log entry", err)
	}
	return nil
}

func formatLine(instant time.Time, action Action, chunkID, details string) string {
	var b strings.Builder
	b.WriteString(instant.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(string(action))
	if chunkID != "" {
		b.WriteByte(' ')
		b.WriteString(chunkID)
	}
	if details != "" {
		b.WriteByte(' ')
		b.WriteString(details)
	}
	return b.String()
}

// ReadSince returns the full log text if since is nil, otherwise only the
// lines whose leading instant is >= since.
func (l *Log) ReadSince(since *time.Time) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", merrors.IOError("failed to read audit log "+l.path, err)
	}

	if since == nil {
		return string(data), nil
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	var kept []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		ts, ok := leadingInstant(line)
		if !ok || ts.Before(*since) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return "", nil
	}
	return strings.Join(kept, "\n") + "\n", nil
}

// GetEntries parses every line into an Entry, optionally filtered to those
// at or after since.
func (l *Log) GetEntries(since *time.Time) ([]Entry, error) {
	text, err := l.ReadSince(since)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		e, ok := parseLine(line)
		if ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func leadingInstant(line string) (time.Time, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, fields[0])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func parseLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Entry{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, fields[0])
	if err != nil {
		return Entry{}, false
	}

	e := Entry{Instant: ts, Action: Action(fields[1])}

	rest := fields[2:]
	if len(rest) > 0 && chunkIDPattern.MatchString(rest[0]) {
		e.ChunkID = rest[0]
		rest = rest[1:]
	}
	e.Details = strings.Join(rest, " ")

	return e, true
}

// scanLines reads every line of path with a bufio.Scanner rather than as one
// giant string, and returns all of them.
func scanLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Tail returns up to the last n lines of the log, oldest first; n <= 0
// returns every line. Used by memoriactl's audit tail command. The whole
// file is read and every line held in memory before the last n are sliced
// off.
func (l *Log) Tail(n int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := scanLines(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, merrors.IOError("failed to read audit log "+l.path, err)
	}

	if n <= 0 || n >= len(lines) {
		return lines, nil
	}
	return lines[len(lines)-n:], nil
}
