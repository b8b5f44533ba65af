package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("bad line: %v", err)
		}
		out = append(out, entry)
	}
	return out
}

func TestAppendChainsEvents(t *testing.T) {
	log := NewLog(t.TempDir())

	if err := log.Append(EventScan, map[string]any{"skill": "alpha", "score": 30}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(EventVerify, map[string]any{"skill": "alpha", "state": "VERIFIED"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries := readLines(t, log.Path())
	if len(entries) != 2 {
		t.Fatalf("expected two lines, got %d", len(entries))
	}
	if _, has := entries[0]["prevHash"]; has {
		t.Fatalf("first entry must not carry prevHash: %#v", entries[0])
	}
	firstHash, _ := entries[0]["hash"].(string)
	if firstHash == "" {
		t.Fatal("first entry missing hash")
	}
	if got, _ := entries[1]["prevHash"].(string); got != firstHash {
		t.Fatalf("second entry prevHash %q, want %q", got, firstHash)
	}
	if id, _ := entries[0]["id"].(string); len(id) != 36 {
		t.Fatalf("entry id is not a uuid: %q", id)
	}
}

func TestVerifyChainAcceptsOwnOutput(t *testing.T) {
	log := NewLog(t.TempDir())
	for i := 0; i < 5; i++ {
		if err := log.Append(EventSign, map[string]any{"n": i}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	n, err := log.VerifyChain()
	if err != nil {
		t.Fatalf("chain verification failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 valid events, got %d", n)
	}
}

func TestVerifyChainDetectsEditedLine(t *testing.T) {
	log := NewLog(t.TempDir())
	if err := log.Append(EventScan, map[string]any{"skill": "alpha"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(EventScan, map[string]any{"skill": "beta"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	edited := strings.Replace(string(data), "alpha", "omega", 1)
	if edited == string(data) {
		t.Fatal("edit did not apply")
	}
	if err := os.WriteFile(log.Path(), []byte(edited), 0o600); err != nil {
		t.Fatalf("rewrite log: %v", err)
	}

	if _, err := log.VerifyChain(); err == nil {
		t.Fatal("edited log passed chain verification")
	}
}

func TestVerifyChainEmptyLog(t *testing.T) {
	log := NewLog(t.TempDir())
	n, err := log.VerifyChain()
	if err != nil || n != 0 {
		t.Fatalf("fresh log should verify as empty, got n=%d err=%v", n, err)
	}
}

func TestReservedFieldsNotOverridable(t *testing.T) {
	log := NewLog(t.TempDir())
	if err := log.Append(EventScan, map[string]any{"hash": "forged", "event": "forged"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries := readLines(t, log.Path())
	if got, _ := entries[0]["event"].(string); got != EventScan {
		t.Fatalf("event field overridden: %q", got)
	}
	if got, _ := entries[0]["hash"].(string); got == "forged" {
		t.Fatal("hash field overridden")
	}
}
