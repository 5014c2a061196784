package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/docpath"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/shared"
	"github.com/desertthunder/spimport/internal/titles"
)

var videoTitlePath = docpath.Parse("playlistVideoRenderer.title.runs.0.text")

// WebPlaylist reads a public YouTube playlist, following continuation tokens
// until a page carries none.
type WebPlaylist struct {
	playlistID string
	fetcher    PageFetcher
	logger     *log.Logger
}

// NewWebPlaylist creates a provider for the playlist with the given ID.
func NewWebPlaylist(playlistID string, fetcher PageFetcher, logger *log.Logger) *WebPlaylist {
	return &WebPlaylist{playlistID: playlistID, fetcher: fetcher, logger: logger}
}

func (p *WebPlaylist) Name() string {
	return "youtube"
}

// Gather fetches every page and parses each video title into an artist and song.
func (p *WebPlaylist) Gather(ctx context.Context) ([]models.TrackDescriptor, error) {
	descriptors, _, err := p.collect(ctx)
	return descriptors, err
}

// Queries builds one query per video whose title could be read.
func (p *WebPlaylist) Queries(ctx context.Context) ([]models.Query, []ExtractionFailure, error) {
	descriptors, failures, err := p.collect(ctx)
	if err != nil {
		return nil, nil, err
	}

	queries := make([]models.Query, 0, len(descriptors))
	for _, d := range descriptors {
		queries = append(queries, descriptorQuery(d))
	}

	p.logger.Info("built queries", "source", p.Name(), "queries", len(queries), "failures", len(failures))
	return queries, failures, nil
}

func (p *WebPlaylist) collect(ctx context.Context) ([]models.TrackDescriptor, []ExtractionFailure, error) {
	items, err := p.fetchAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: playlist %s has no videos", shared.ErrSourceEmpty, p.playlistID)
	}

	descriptors := make([]models.TrackDescriptor, 0, len(items))
	var failures []ExtractionFailure
	for i, item := range items {
		text, ok := docpath.LookupString(item, videoTitlePath)
		if !ok {
			failures = append(failures, ExtractionFailure{Index: i, Reason: "item has no video title"})
			continue
		}

		artist, song, err := titles.Parse(strings.ToLower(text))
		if err != nil {
			failures = append(failures, ExtractionFailure{Index: i, Raw: text, Reason: err.Error()})
			continue
		}
		if strings.TrimSpace(song) == "" {
			failures = append(failures, ExtractionFailure{Index: i, Raw: text, Reason: "empty song after parsing title"})
			continue
		}
		if artist == "" {
			p.logger.Debug("no artist in title", "title", text)
		}

		descriptors = append(descriptors, models.TrackDescriptor{
			Artist:  artist,
			Title:   strings.TrimSpace(song),
			Artists: []string{artist},
		})
	}
	return descriptors, failures, nil
}

// fetchAll walks the playlist pages in order. A token seen twice ends the walk
// with an error rather than looping.
func (p *WebPlaylist) fetchAll(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := p.fetcher.FetchInitial(ctx, p.playlistID)
	if err != nil {
		return nil, err
	}

	items := append([]any(nil), page.Items...)
	seen := map[string]struct{}{}
	pages := 1

	for !page.Next.Done() {
		token := page.Next.Token
		if _, ok := seen[token]; ok {
			return nil, fmt.Errorf("%w: continuation token repeated after %d pages", shared.ErrSourceMalformed, pages)
		}
		seen[token] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.logger.Debug("fetching next page", "page", pages+1, "items", len(items))
		page, err = p.fetcher.FetchNext(ctx, token)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		pages++
	}

	p.logger.Info("fetched playlist", "playlist", p.playlistID, "pages", pages, "items", len(items))
	return items, nil
}
