package store

import "fmt"

// IOError reports a filesystem failure. The in-memory session is left
// intact so the caller can retry the save.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CorruptionRecoveredWarning tells the caller a session file could not
// be parsed and was recovered. The original bytes are preserved at
// BackupPath for forensics; Salvaged reports whether any sub-documents
// survived into the returned session.
type CorruptionRecoveredWarning struct {
	Date       string
	BackupPath string
	Salvaged   bool
}

func (w *CorruptionRecoveredWarning) Error() string {
	if w.Salvaged {
		return fmt.Sprintf("session %s was corrupt; partial content recovered, original kept at %s", w.Date, w.BackupPath)
	}
	return fmt.Sprintf("session %s was corrupt; starting fresh, original kept at %s", w.Date, w.BackupPath)
}
