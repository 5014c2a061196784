package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spimport/internal/formatter"
	"github.com/desertthunder/spimport/internal/providers"
	"github.com/desertthunder/spimport/internal/tasks"
)

var (
	_ list.Item = entryItem{}
	_ list.Item = extractionItem{}
)

// entryItem wraps a [formatter.Entry] that was not imported to implement [list.Item].
type entryItem struct {
	entry formatter.Entry
}

func (i entryItem) FilterValue() string { return i.entry.SearchText }
func (i entryItem) Title() string       { return i.entry.SearchText }
func (i entryItem) Description() string {
	return fmt.Sprintf("%s • %s", i.entry.Status, i.entry.Reason)
}

// extractionItem wraps a [providers.ExtractionFailure] to implement [list.Item].
type extractionItem struct {
	failure providers.ExtractionFailure
}

func (i extractionItem) FilterValue() string { return i.failure.Raw }
func (i extractionItem) Title() string {
	if i.failure.Raw == "" {
		return fmt.Sprintf("entry %d", i.failure.Index+1)
	}
	return i.failure.Raw
}
func (i extractionItem) Description() string {
	return fmt.Sprintf("not extracted • %s", i.failure.Reason)
}

// problemItems lists every entry that did not end up in the playlist.
func problemItems(result *tasks.ImportResult) []list.Item {
	if result == nil {
		return nil
	}
	var items []list.Item
	for _, e := range formatter.NewReport(result).Entries {
		if e.Status == formatter.StatusMatched {
			continue
		}
		items = append(items, entryItem{entry: e})
	}
	for _, f := range result.Extraction {
		items = append(items, extractionItem{failure: f})
	}
	return items
}
