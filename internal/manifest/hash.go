// Package manifest implements the content-addressed trust manifest: SHA-256
// hashes for every file in a skill, a composite hash per skill, and
// verification with per-file tamper diffs.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"

	"github.com/ClawSentry/ClawSentry/internal/workspace"
)

// hashChunkSize is the read size for streaming file hashing.
const hashChunkSize = 8192

// FileHash returns the hex SHA-256 of the file contents, streamed so large
// files never load into memory.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SkillHash hashes every file under skillDir and folds the per-file hashes
// into one composite digest. Files are folded in sorted relative-path order
// as "path:hash", so the composite is stable across walk implementations.
// Unreadable files are omitted, which verification then reports as removed.
func SkillHash(skillDir string) (string, map[string]string, error) {
	files := map[string]string{}
	err := workspace.WalkFiles(skillDir, func(rel, abs string) error {
		fh, err := FileHash(abs)
		if err != nil {
			return nil
		}
		files[rel] = fh
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		io.WriteString(h, p+":"+files[p])
	}
	return hex.EncodeToString(h.Sum(nil)), files, nil
}

// skillDirExists reports whether the path is an existing directory.
func skillDirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
