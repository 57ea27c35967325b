// Package history decides when a prompt save must capture a version
// snapshot, and what that snapshot contains. It is pure; persistence is the
// caller's concern.
package history

import "promptvault/internal/storage"

// Snapshot is the version payload the save pipeline must persist, minus the
// identifier the caller assigns.
type Snapshot struct {
	PromptID      string
	Title         string
	Description   string
	Content       string
	Timestamp     int64
	VersionNumber int
}

// Reconcile compares the stored prompt against the incoming field values and
// returns the snapshot to persist, or nil when no version is owed.
//
// A snapshot is owed only when a prompt with the same id already exists and
// at least one of content, title or description changed. Tag-only and
// usage-count-only changes never produce a version. The snapshot captures the
// old field values and the old modifiedAt; its number is one past the count
// of existing versions, which the caller must read from live storage at
// decision time.
func Reconcile(prev *storage.Prompt, title, description, content string, existingVersions int) *Snapshot {
	if prev == nil {
		return nil
	}
	if prev.Title == title && prev.Description == description && prev.Content == content {
		return nil
	}
	return &Snapshot{
		PromptID:      prev.ID,
		Title:         prev.Title,
		Description:   prev.Description,
		Content:       prev.Content,
		Timestamp:     prev.ModifiedAt,
		VersionNumber: existingVersions + 1,
	}
}
