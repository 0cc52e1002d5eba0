/*
PURPOSE:
  Durable JSON storage for results and sessions, plus reload and listing.
  One file per result for crash safety; one overwritable file per session.

REQUIREMENTS:
  User-specified:
  - SaveResult must complete (or fail loudly) before the test call returns.
  - SaveSession is an atomic whole-file overwrite, last-writer-wins.
  - ListSessions derives ids from filenames without parsing contents.

  Implementation-discovered:
  - Per-result filenames need a uniqueness component beyond the session id;
    a nanosecond stamp avoids write contention across concurrent tests.
  - Atomic overwrite = write temp file in the same directory, then rename.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (per result), internal/cli (sessions/export)
  - Consumes: internal/model

ERROR HANDLING:
  - All write failures propagate; the engine never drops a produced result.
  - LoadSession returns ErrSessionNotFound for an absent id.

IMPLEMENTATION RULES:
  - Use encoding/json with indentation (files are read by humans too).
  - Concurrent saves of the SAME session are the caller's to serialize;
    the rename keeps readers from ever seeing a partial file.

USAGE:
  store, err := output.NewStore("results")
  loc, err := store.SaveResult(res)

SELF-HEALING INSTRUCTIONS:
  - If filenames change, update sessionPattern and the trim logic together.

RELATED FILES:
  - internal/model/types.go
  - internal/output/csv.go

MAINTENANCE:
  - Update Write mapping when the result shape changes.
*/

package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docstratum/stratum-runner/internal/model"
)

// ErrSessionNotFound is returned by LoadSession for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

const (
	sessionPrefix  = "session__"
	sessionPattern = sessionPrefix + "*.json"
)

// Store persists results and sessions as JSON files under one directory.
type Store struct {
	dir string
}

// NewStore creates the results directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// SaveResult writes one comparison result to its own uniquely-named file
// and returns the file path. Called eagerly after every test so a crash
// mid-session loses at most the in-flight comparison.
func (s *Store) SaveResult(r model.ABTestResult) (string, error) {
	name := fmt.Sprintf("result__%s__%d.json", r.SessionID, time.Now().UnixNano())
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file %s: %w", path, err)
	}
	return path, nil
}

// SaveSession writes the whole session to session__<id>.json, atomically
// replacing any previous version (last writer wins).
func (s *Store) SaveSession(sess *model.TestSession) (string, error) {
	path := filepath.Join(s.dir, sessionPrefix+sess.SessionID+".json")

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode session %s: %w", sess.SessionID, err)
	}

	tmp, err := os.CreateTemp(s.dir, sessionPrefix+sess.SessionID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for session %s: %w", sess.SessionID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write session %s: %w", sess.SessionID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file for session %s: %w", sess.SessionID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to replace session file %s: %w", path, err)
	}
	return path, nil
}

// LoadSession reloads a previously saved session, including its full
// ordered result list. Returns ErrSessionNotFound for an unknown id.
func (s *Store) LoadSession(id string) (*model.TestSession, error) {
	path := filepath.Join(s.dir, sessionPrefix+id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session file %s: %w", path, err)
	}

	var sess model.TestSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	return &sess, nil
}

// ListSessions returns the ids of all saved sessions, sorted. Ids are
// derived from filenames; file contents are never parsed here.
func (s *Store) ListSessions() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, sessionPattern))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		id := strings.TrimSuffix(strings.TrimPrefix(base, sessionPrefix), ".json")
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
