package history

import (
	"testing"

	"promptvault/internal/storage"
)

func storedPrompt() *storage.Prompt {
	return &storage.Prompt{
		ID:          "p1",
		Title:       "Summarizer",
		Description: "Summarizes text",
		Content:     "Summarize the following:",
		Tags:        []string{"writing"},
		CreatedAt:   1000,
		ModifiedAt:  2000,
		UsageCount:  3,
	}
}

func TestReconcile_FirstSave(t *testing.T) {
	if snap := Reconcile(nil, "New", "", "content", 0); snap != nil {
		t.Errorf("Reconcile(nil prompt) = %+v, want nil", snap)
	}
}

func TestReconcile_NoFieldChange(t *testing.T) {
	prev := storedPrompt()

	// Tag and usage changes go through the same save path but must never
	// produce a snapshot when the three tracked fields are unchanged.
	if snap := Reconcile(prev, prev.Title, prev.Description, prev.Content, 4); snap != nil {
		t.Errorf("Reconcile(unchanged fields) = %+v, want nil", snap)
	}
}

func TestReconcile_FieldChanges(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		content     string
	}{
		{"title changed", "Renamed", "Summarizes text", "Summarize the following:"},
		{"description changed", "Summarizer", "Different", "Summarize the following:"},
		{"content changed", "Summarizer", "Summarizes text", "New body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := storedPrompt()
			snap := Reconcile(prev, tt.title, tt.description, tt.content, 2)
			if snap == nil {
				t.Fatal("Reconcile() = nil, want snapshot")
			}
			if snap.PromptID != "p1" {
				t.Errorf("snap.PromptID = %q, want p1", snap.PromptID)
			}
			// The snapshot captures the superseded values, not the new ones.
			if snap.Title != "Summarizer" || snap.Description != "Summarizes text" || snap.Content != "Summarize the following:" {
				t.Errorf("snapshot carries new values: %+v", snap)
			}
			if snap.Timestamp != 2000 {
				t.Errorf("snap.Timestamp = %d, want previous modifiedAt 2000", snap.Timestamp)
			}
			if snap.VersionNumber != 3 {
				t.Errorf("snap.VersionNumber = %d, want existing+1 = 3", snap.VersionNumber)
			}
		})
	}
}

func TestReconcile_SequentialNumbering(t *testing.T) {
	prev := storedPrompt()
	for count := 0; count < 5; count++ {
		snap := Reconcile(prev, "changed", prev.Description, prev.Content, count)
		if snap == nil {
			t.Fatal("Reconcile() = nil, want snapshot")
		}
		if snap.VersionNumber != count+1 {
			t.Errorf("VersionNumber = %d for count %d, want %d", snap.VersionNumber, count, count+1)
		}
	}
}
