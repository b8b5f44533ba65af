// Package audit keeps a tamper-evident record of every scan, sign, and
// verify operation. Events append to a JSONL file where each line carries
// the hash of the previous one, so truncation or edits break the chain.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const logFileName = "audit.jsonl"

// Event types emitted by the command layer.
const (
	EventScan       = "scan"
	EventSign       = "sign"
	EventVerify     = "verify"
	EventDLPScan    = "dlp_scan"
	EventInstallRef = "install_refused"
)

// Log appends hash-chained audit events under the state directory. Appends
// are serialized; the chain depends on read-last-then-write being atomic
// within the process.
type Log struct {
	mu   sync.Mutex
	path string
}

// NewLog builds a log writing to <stateDir>/audit.jsonl.
func NewLog(stateDir string) *Log {
	return &Log{path: filepath.Join(stateDir, logFileName)}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes one event. Fields are merged into the envelope; "id",
// "time", "event", "hash" and "prevHash" are reserved.
func (l *Log) Append(eventType string, fields map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := map[string]any{
		"id":    uuid.NewString(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"event": strings.TrimSpace(eventType),
	}
	for k, v := range fields {
		switch k {
		case "id", "time", "event", "hash", "prevHash":
			continue
		default:
			entry[k] = v
		}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return err
	}
	prevHash, err := lastHash(l.path)
	if err != nil {
		return err
	}
	if prevHash != "" {
		entry["prevHash"] = prevHash
	}
	entry["hash"] = entryHash(entry)

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// VerifyChain replays the log and checks every link. Returns the number of
// valid events; an error identifies the first broken line.
func (l *Log) VerifyChain() (int, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	count := 0
	prev := ""
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return count, fmt.Errorf("audit line %d: invalid JSON: %w", count+1, err)
		}
		gotPrev, _ := entry["prevHash"].(string)
		if gotPrev != prev {
			return count, fmt.Errorf("audit line %d: chain broken", count+1)
		}
		declared, _ := entry["hash"].(string)
		if declared != entryHash(entry) {
			return count, fmt.Errorf("audit line %d: hash mismatch", count+1)
		}
		prev = declared
		count++
	}
	if err := sc.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// lastHash reads the hash of the final non-empty line, or "" for a fresh
// log.
func lastHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	var last string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			last = line
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if last == "" {
		return "", nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(last), &obj); err != nil {
		return "", fmt.Errorf("invalid existing audit line: %w", err)
	}
	h, _ := obj["hash"].(string)
	return strings.TrimSpace(h), nil
}

// entryHash digests the entry with its own "hash" field excluded. JSON
// marshaling sorts map keys, which makes the digest canonical.
func entryHash(entry map[string]any) string {
	canonical := map[string]any{}
	for k, v := range entry {
		if k == "hash" {
			continue
		}
		canonical[k] = v
	}
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
