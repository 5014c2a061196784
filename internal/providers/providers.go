package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/services"
	"github.com/desertthunder/spimport/internal/shared"
)

// Platform names accepted by [Select].
const (
	PlatformTidal   = "tidal"
	PlatformCSV     = "csv"
	PlatformRaw     = "raw"
	PlatformYouTube = "youtube"
)

// Platforms lists the names accepted by [Select], for help text.
var Platforms = []string{PlatformTidal, PlatformCSV, PlatformRaw, PlatformYouTube}

// Provider is a source of playlist entries.
type Provider interface {
	// Name identifies the source in logs and reports.
	Name() string

	// Gather reads every entry of the source.
	Gather(ctx context.Context) ([]models.TrackDescriptor, error)

	// Queries gathers the source and builds one query per usable entry.
	// Entries that cannot be used are returned as failures alongside the queries.
	Queries(ctx context.Context) ([]models.Query, []ExtractionFailure, error)
}

// PageFetcher fetches playlist pages one request at a time.
// Implemented by [services.YouTubeService].
type PageFetcher interface {
	FetchInitial(ctx context.Context, playlistID string) (*services.Page, error)
	FetchNext(ctx context.Context, token string) (*services.Page, error)
}

// Options carries what any provider may need. Unused fields are ignored.
type Options struct {
	File       string      // Path of the export or CSV file
	PlaylistID string      // Source playlist for web providers
	Fetcher    PageFetcher // Page fetcher for web providers
	Logger     *log.Logger
}

// ExtractionFailure describes a source entry that produced no query.
type ExtractionFailure struct {
	Index  int    `json:"index" yaml:"index"`   // Position of the entry in the source
	Raw    string `json:"raw" yaml:"raw"`       // Raw text of the entry, when any
	Reason string `json:"reason" yaml:"reason"` // Why it was dropped
}

func (f ExtractionFailure) Error() string {
	return fmt.Sprintf("%s: item %d %q: %s", shared.ErrExtraction, f.Index, f.Raw, f.Reason)
}

func (f ExtractionFailure) Unwrap() error {
	return shared.ErrExtraction
}

// Select returns the provider for platform.
func Select(platform string, opts Options) (Provider, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	switch strings.ToLower(strings.TrimSpace(platform)) {
	case PlatformTidal:
		if opts.File == "" {
			return nil, fmt.Errorf("%w: --file is required for %s", shared.ErrMissingArgument, PlatformTidal)
		}
		return NewStructuredExport(opts.File, opts.Logger), nil
	case PlatformCSV, PlatformRaw:
		if opts.File == "" {
			return nil, fmt.Errorf("%w: --file is required for %s", shared.ErrMissingArgument, PlatformCSV)
		}
		return NewFileRecords(opts.File, opts.Logger), nil
	case PlatformYouTube:
		if opts.PlaylistID == "" {
			return nil, fmt.Errorf("%w: a YouTube playlist id is required", shared.ErrMissingArgument)
		}
		if opts.Fetcher == nil {
			return nil, fmt.Errorf("%w: no page fetcher configured", shared.ErrServiceUnavailable)
		}
		return NewWebPlaylist(opts.PlaylistID, opts.Fetcher, opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported platform %q (expected one of %s)",
			shared.ErrInvalidArgument, platform, strings.Join(Platforms, ", "))
	}
}

// Sanitize removes "(feat. " markers and closing parentheses from a search string.
func Sanitize(q string) string {
	q = strings.ReplaceAll(q, "(feat. ", "")
	return strings.ReplaceAll(q, ")", "")
}

// descriptorQuery builds the query for entries that carry the artist natively.
func descriptorQuery(d models.TrackDescriptor) models.Query {
	artist := strings.ToLower(strings.TrimSpace(d.Artist))
	return models.Query{
		ArtistKey:  artist,
		SearchText: Sanitize(joinNonEmpty(artist, strings.ToLower(strings.TrimSpace(d.Title)))),
	}
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
