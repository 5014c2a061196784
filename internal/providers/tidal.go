package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/shared"
)

type tidalArtist struct {
	ID   int64   `json:"id"`
	Name *string `json:"name"`
}

type tidalTrack struct {
	ID      int64         `json:"id"`
	Title   *string       `json:"title"`
	ISRC    string        `json:"isrc"`
	Artist  *tidalArtist  `json:"artist"`
	Artists []tidalArtist `json:"artists"`
}

type tidalItem struct {
	Item *tidalTrack `json:"item"`
	Type string      `json:"type"`
}

// tidalExport is the body of a Tidal playlist items export.
type tidalExport struct {
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
	TotalItems int          `json:"totalNumberOfItems"`
	Items      *[]tidalItem `json:"items"`
}

// StructuredExport reads a Tidal playlist export.
type StructuredExport struct {
	path   string
	logger *log.Logger
}

// NewStructuredExport creates a Tidal export provider for path.
func NewStructuredExport(path string, logger *log.Logger) *StructuredExport {
	return &StructuredExport{path: path, logger: logger}
}

func (p *StructuredExport) Name() string {
	return "tidal"
}

// Gather decodes the export. Every item must carry a title and a primary artist.
func (p *StructuredExport) Gather(ctx context.Context) ([]models.TrackDescriptor, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSourceUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Debug("decoding tidal export", "path", p.path, "bytes", len(data))
	return decodeTidal(data)
}

// Queries keys each query on the primary artist and searches with every artist and the title.
func (p *StructuredExport) Queries(ctx context.Context) ([]models.Query, []ExtractionFailure, error) {
	descriptors, err := p.Gather(ctx)
	if err != nil {
		return nil, nil, err
	}

	queries := make([]models.Query, 0, len(descriptors))
	var failures []ExtractionFailure
	for i, d := range descriptors {
		if strings.TrimSpace(d.Title) == "" {
			failures = append(failures, ExtractionFailure{Index: i, Raw: d.Artist, Reason: "empty title"})
			continue
		}

		artists := make([]string, len(d.Artists))
		for j, a := range d.Artists {
			artists[j] = strings.ToLower(a)
		}
		queries = append(queries, models.Query{
			ArtistKey:  strings.ToLower(d.Artist),
			SearchText: Sanitize(joinNonEmpty(strings.Join(artists, " "), strings.ToLower(d.Title))),
		})
	}

	p.logger.Info("built queries", "source", p.Name(), "queries", len(queries), "failures", len(failures))
	return queries, failures, nil
}

func decodeTidal(data []byte) ([]models.TrackDescriptor, error) {
	var export tidalExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSourceMalformed, err)
	}
	if export.Items == nil {
		return nil, fmt.Errorf("%w: missing items", shared.ErrSourceMalformed)
	}
	if len(*export.Items) == 0 {
		return nil, fmt.Errorf("%w: export has no items", shared.ErrSourceEmpty)
	}

	descriptors := make([]models.TrackDescriptor, 0, len(*export.Items))
	for i, entry := range *export.Items {
		track := entry.Item
		switch {
		case track == nil:
			return nil, fmt.Errorf("%w: items.%d: missing item", shared.ErrSourceMalformed, i)
		case track.Title == nil:
			return nil, fmt.Errorf("%w: items.%d.item: missing title", shared.ErrSourceMalformed, i)
		case track.Artist == nil || track.Artist.Name == nil:
			return nil, fmt.Errorf("%w: items.%d.item: missing artist.name", shared.ErrSourceMalformed, i)
		}

		artists := make([]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			if a.Name != nil {
				artists = append(artists, *a.Name)
			}
		}
		if len(artists) == 0 {
			artists = append(artists, *track.Artist.Name)
		}

		descriptors = append(descriptors, models.TrackDescriptor{
			Artist:  *track.Artist.Name,
			Title:   *track.Title,
			Artists: artists,
		})
	}
	return descriptors, nil
}
