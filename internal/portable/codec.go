// Package portable converts between the internal prompt/version model and the
// flat versioned-record format used for backup files. The external shape is
// fixed; it round-trips everything except tag membership, which the format
// does not carry.
package portable

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"promptvault/internal/storage"
)

// Record is one row of the external backup format, representing either a
// historical version or the current state of a prompt.
type Record struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Text        string  `json:"text"`
	Version     int     `json:"version"`
	IsLatest    int     `json:"isLatest"`
	ParentID    *int    `json:"parentId"`
	CreatedAt   string  `json:"createdAt"`
	LastUsedAt  *string `json:"lastUsedAt"`
	TimesUsed   int     `json:"timesUsed"`
	ID          int     `json:"id"`
}

// ErrNotArray is returned when the import payload parses but is not a JSON
// array.
var ErrNotArray = errors.New("invalid format: expected an array")

// Export flattens the prompt set and its version history into external
// records. For each prompt the non-latest versions come first in ascending
// version order, then the live state flagged isLatest=1; parentId chains each
// record to the previous one. External ids are one global 1-based counter.
func Export(prompts []storage.Prompt, versions []storage.Version) []Record {
	records := make([]Record, 0, len(prompts)+len(versions))
	idCounter := 1

	for _, prompt := range prompts {
		var promptVersions []storage.Version
		for _, v := range versions {
			if v.PromptID == prompt.ID {
				promptVersions = append(promptVersions, v)
			}
		}
		sort.Slice(promptVersions, func(i, j int) bool {
			return promptVersions[i].VersionNumber < promptVersions[j].VersionNumber
		})

		for _, v := range promptVersions {
			rec := Record{
				Title:       v.Title,
				Description: v.Description,
				Text:        v.Content,
				Version:     v.VersionNumber,
				IsLatest:    0,
				CreatedAt:   isoTime(v.Timestamp),
				TimesUsed:   0,
				ID:          idCounter,
			}
			if v.VersionNumber != 1 {
				parent := idCounter - 1
				rec.ParentID = &parent
			}
			records = append(records, rec)
			idCounter++
		}

		live := Record{
			Title:       prompt.Title,
			Description: prompt.Description,
			Text:        prompt.Content,
			Version:     len(promptVersions) + 1,
			IsLatest:    1,
			CreatedAt:   isoTime(prompt.CreatedAt),
			TimesUsed:   prompt.UsageCount,
			ID:          idCounter,
		}
		if len(promptVersions) > 0 {
			parent := idCounter - 1
			live.ParentID = &parent
		}
		if prompt.UsageCount > 0 {
			lastUsed := isoTime(prompt.ModifiedAt)
			live.LastUsedAt = &lastUsed
		}
		records = append(records, live)
		idCounter++
	}

	return records
}

// Marshal renders export records as the pretty-printed JSON the backup file
// contains.
func Marshal(records []Record) ([]byte, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Filename returns the dated backup filename for an export taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("prompts-export-%s.json", t.UTC().Format("2006-01-02"))
}

// Import parses a backup payload and rebuilds prompts and versions. Records
// are grouped by title (the lineage key); within a group the record flagged
// latest, or failing that the highest-numbered one, becomes the live prompt.
// A version is materialized only for records strictly before the
// second-to-last: the latest record and the record immediately preceding it
// fold into the live prompt rather than staying as history, so a lineage of
// k versions plus the live record imports as k-1 versions.
//
// Input that is not valid JSON, or not a JSON array, is rejected without
// producing anything. Tags are not preserved by the external format; every
// imported prompt starts untagged.
func Import(data []byte, newID func() string) ([]storage.Prompt, []storage.Version, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		var probe any
		if jsonErr := json.Unmarshal(data, &probe); jsonErr != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", jsonErr)
		}
		if _, ok := probe.([]any); !ok {
			return nil, nil, ErrNotArray
		}
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	// Group by title, preserving first-seen order.
	groups := make(map[string][]Record)
	var order []string
	for _, rec := range records {
		if _, ok := groups[rec.Title]; !ok {
			order = append(order, rec.Title)
		}
		groups[rec.Title] = append(groups[rec.Title], rec)
	}

	var prompts []storage.Prompt
	var versions []storage.Version

	for _, title := range order {
		items := groups[title]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Version < items[j].Version })

		latestIdx := len(items) - 1
		for i, item := range items {
			if item.IsLatest == 1 {
				latestIdx = i
				break
			}
		}
		latest := items[latestIdx]

		earliestAt, err := parseISOTime(items[0].CreatedAt)
		if err != nil {
			return nil, nil, err
		}
		latestAt, err := parseISOTime(latest.CreatedAt)
		if err != nil {
			return nil, nil, err
		}

		promptID := newID()
		prompts = append(prompts, storage.Prompt{
			ID:          promptID,
			Title:       latest.Title,
			Description: latest.Description,
			Content:     latest.Text,
			Tags:        []string{},
			CreatedAt:   earliestAt,
			ModifiedAt:  latestAt,
			UsageCount:  latest.TimesUsed,
		})

		for i, item := range items {
			if item.IsLatest == 1 || i >= latestIdx-1 {
				continue
			}
			at, err := parseISOTime(item.CreatedAt)
			if err != nil {
				return nil, nil, err
			}
			versions = append(versions, storage.Version{
				ID:            newID(),
				PromptID:      promptID,
				Title:         item.Title,
				Description:   item.Description,
				Content:       item.Text,
				Timestamp:     at,
				VersionNumber: item.Version,
			})
		}
	}

	return prompts, versions, nil
}

func isoTime(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func parseISOTime(value string) (int64, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, fmt.Errorf("invalid createdAt timestamp %q: %w", value, err)
	}
	return t.UnixMilli(), nil
}
