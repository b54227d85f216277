// Package store persists sessions and profiles as one JSON document per
// file, with a derived SQLite index for cheap listings. The JSON files
// are the sole source of truth; the index is rebuildable at any time.
//
// Two processes racing on the same date resolve last-writer-wins at the
// rename boundary. That is accepted for the single-user design and not
// reconciled here.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dayplan/internal/core/models"
)

// tempMaxAge is how old an orphaned temp file must be before startup
// purges it. Younger files may belong to a live process.
const tempMaxAge = time.Hour

// Store reads and writes the data directory.
type Store struct {
	sessionsDir  string
	profilesDir  string
	templatesDir string
	index        *Index // nil when the index could not be opened
}

// Open prepares the data directory, purges stale temp files, and opens
// the metadata index. An unusable index degrades listings to a
// directory scan instead of failing.
func Open(root string) (*Store, error) {
	s := &Store{
		sessionsDir:  filepath.Join(root, "sessions"),
		profilesDir:  filepath.Join(root, "profiles"),
		templatesDir: filepath.Join(root, "templates"),
	}
	for _, dir := range []string{s.sessionsDir, s.profilesDir, s.templatesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &IOError{Op: "create directory", Path: dir, Err: err}
		}
	}
	s.purgeStaleTemp()

	idx, err := OpenIndex(filepath.Join(root, "index.db"))
	if err != nil {
		slog.Warn("session index unavailable, listings will scan files", "error", err)
	} else {
		s.index = idx
	}
	return s, nil
}

// Close releases the index handle.
func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

func (s *Store) sessionPath(date string) string {
	return filepath.Join(s.sessionsDir, date+".json")
}

// Save atomically persists a session: serialize to a temp file in the
// same directory, then rename over the canonical path. A crash mid-write
// never leaves a half-written session file.
func (s *Store) Save(sess *models.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	sess.Touch()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session %s: %w", sess.Date, err)
	}
	if err := writeAtomic(s.sessionPath(sess.Date), data); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Upsert(sess.Metadata()); err != nil {
			// Index is derived state; a failed upsert only degrades
			// listings until the next reindex.
			slog.Warn("failed to update session index", "date", sess.Date, "error", err)
		}
	}
	return nil
}

// Load reads the session for a date. A missing file is a NotFoundError.
// A corrupt file is moved aside, partially salvaged where possible, and
// reported through the returned warning; Load only fails outright on
// filesystem errors.
func (s *Store) Load(date string) (*models.Session, *CorruptionRecoveredWarning, error) {
	path := s.sessionPath(date)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &models.NotFoundError{Kind: "session", Ref: date}
		}
		return nil, nil, &IOError{Op: "read", Path: path, Err: err}
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err == nil && sess.Validate() == nil {
		if sess.RepairTimestamps() {
			if err := s.Save(&sess); err != nil {
				slog.Warn("failed to persist timestamp repair", "date", date, "error", err)
			}
		}
		return &sess, nil, nil
	}

	warn, recoverErr := s.recoverCorrupt(date, path, data)
	if recoverErr != nil {
		return nil, nil, recoverErr
	}
	fresh := s.salvage(date, data, warn)
	return fresh, warn, nil
}

// recoverCorrupt moves the unparseable file aside with a timestamp
// suffix so nothing is silently lost.
func (s *Store) recoverCorrupt(date, path string, data []byte) (*CorruptionRecoveredWarning, error) {
	backup := filepath.Join(s.sessionsDir,
		fmt.Sprintf("%s.corrupt-%s.json", date, time.Now().Format("20060102T150405")))
	if err := os.Rename(path, backup); err != nil {
		return nil, &IOError{Op: "quarantine corrupt session", Path: path, Err: err}
	}
	slog.Warn("corrupt session file quarantined", "date", date, "backup", backup)
	return &CorruptionRecoveredWarning{Date: date, BackupPath: backup}, nil
}

// salvage builds a replacement session, pulling over whichever
// sub-documents of the corrupt file still parse on their own.
func (s *Store) salvage(date string, data []byte, warn *CorruptionRecoveredWarning) *models.Session {
	fresh := models.NewSession(date)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fresh
	}
	if msg, ok := raw["conversation"]; ok {
		var conversation []models.Message
		if err := json.Unmarshal(msg, &conversation); err == nil && len(conversation) > 0 {
			fresh.Conversation = conversation
			warn.Salvaged = true
		}
	}
	if msg, ok := raw["plan"]; ok {
		var plan models.Plan
		if err := json.Unmarshal(msg, &plan); err == nil && len(plan.Schedule) > 0 {
			fresh.Plan = &plan
			warn.Salvaged = true
		}
	}
	if msg, ok := raw["goal"]; ok {
		var goal string
		if err := json.Unmarshal(msg, &goal); err == nil {
			fresh.SetGoal(goal)
		}
	}
	if warn.Salvaged {
		slog.Info("salvaged partial session content", "date", date)
	}
	return fresh
}

// Delete removes a session file and its index row. Sessions are never
// deleted automatically; this backs an explicit CLI operation.
func (s *Store) Delete(date string) error {
	path := s.sessionPath(date)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &models.NotFoundError{Kind: "session", Ref: date}
		}
		return &IOError{Op: "delete", Path: path, Err: err}
	}
	if s.index != nil {
		if err := s.index.Remove(date); err != nil {
			slog.Warn("failed to remove session from index", "date", date, "error", err)
		}
	}
	return nil
}

// List returns lightweight metadata for every session, newest first. The
// index serves the query when available; otherwise session files are
// scanned without decoding conversation history.
func (s *Store) List() ([]models.SessionMetadata, error) {
	if s.index != nil {
		metas, err := s.index.List()
		if err == nil && len(metas) > 0 {
			return metas, nil
		}
		if err != nil {
			slog.Warn("index listing failed, falling back to scan", "error", err)
		}
	}
	return s.scanSessions()
}

// sessionHeader decodes everything but the conversation log, keeping
// listing cheap as history grows.
type sessionHeader struct {
	Date        string              `json:"date"`
	State       models.SessionState `json:"state"`
	Goal        string              `json:"goal"`
	Plan        *models.Plan        `json:"plan"`
	CreatedAt   time.Time           `json:"created_at"`
	LastUpdated time.Time           `json:"last_updated"`
}

func (s *Store) scanSessions() ([]models.SessionMetadata, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, &IOError{Op: "read directory", Path: s.sessionsDir, Err: err}
	}

	var metas []models.SessionMetadata
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.Contains(name, ".corrupt-") {
			continue
		}
		path := filepath.Join(s.sessionsDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable session file", "path", path, "error", err)
			continue
		}
		var header sessionHeader
		if err := json.Unmarshal(data, &header); err != nil || header.Date == "" {
			slog.Warn("skipping unparseable session file", "path", path)
			continue
		}
		meta := models.SessionMetadata{
			Date:        header.Date,
			State:       header.State,
			Goal:        header.Goal,
			CreatedAt:   header.CreatedAt,
			LastUpdated: header.LastUpdated,
		}
		if header.Plan != nil {
			meta.Items = len(header.Plan.Schedule)
			meta.CompletionRate = header.Plan.CompletionRate()
			for _, item := range header.Plan.Schedule {
				if item.Status == models.StatusCompleted {
					meta.Completed++
				}
			}
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Date > metas[j].Date })
	return metas, nil
}

// Aggregate computes cross-session totals, preferring the index and
// falling back to a file scan.
func (s *Store) Aggregate() (*AggregateStats, error) {
	if s.index != nil {
		stats, err := s.index.Aggregate()
		if err == nil {
			return stats, nil
		}
		slog.Warn("index aggregation failed, falling back to scan", "error", err)
	}
	metas, err := s.scanSessions()
	if err != nil {
		return nil, err
	}
	stats := &AggregateStats{}
	for _, meta := range metas {
		stats.Sessions++
		if meta.State == models.StateDone {
			stats.Done++
		}
		stats.TotalItems += meta.Items
		stats.TotalCompleted += meta.Completed
		stats.AvgCompletionRate += meta.CompletionRate
	}
	if stats.Sessions > 0 {
		stats.AvgCompletionRate /= float64(stats.Sessions)
	}
	return stats, nil
}

// Reindex rebuilds the SQLite index from the session files and returns
// the number of sessions indexed.
func (s *Store) Reindex() (int, error) {
	if s.index == nil {
		return 0, errors.New("session index is not available")
	}
	metas, err := s.scanSessions()
	if err != nil {
		return 0, err
	}
	if err := s.index.Rebuild(metas); err != nil {
		return 0, err
	}
	return len(metas), nil
}

// LoadProfile reads the user's profile, creating a default one on first
// use. An unreadable profile degrades to defaults with a warning rather
// than blocking planning.
func (s *Store) LoadProfile(userID string) (*models.Profile, error) {
	path := filepath.Join(s.profilesDir, userID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			profile := models.NewProfile(userID)
			if err := s.SaveProfile(profile); err != nil {
				return nil, err
			}
			return profile, nil
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		slog.Warn("profile unreadable, using defaults", "path", path, "error", err)
		return models.NewProfile(userID), nil
	}
	if profile.UserID == "" {
		profile.UserID = userID
	}
	return &profile, nil
}

// SaveProfile atomically persists the profile document.
func (s *Store) SaveProfile(profile *models.Profile) error {
	profile.LastUpdated = time.Now()
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize profile %s: %w", profile.UserID, err)
	}
	return writeAtomic(filepath.Join(s.profilesDir, profile.UserID+".json"), data)
}

// writeAtomic writes data to a temp file in the target's directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &IOError{Op: "create temp file", Path: dir, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &IOError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// purgeStaleTemp removes temp files left behind by an abnormal
// termination. Recent ones are kept; they may belong to a concurrently
// running process.
func (s *Store) purgeStaleTemp() {
	for _, dir := range []string{s.sessionsDir, s.profilesDir, s.templatesDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.Contains(entry.Name(), ".tmp-") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if time.Since(info.ModTime()) < tempMaxAge {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				slog.Warn("failed to purge stale temp file", "path", path, "error", err)
			} else {
				slog.Info("purged stale temp file", "path", path)
			}
		}
	}
}
