package providers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/shared"
)

// FileRecords reads a CSV file whose header names an artist and a track column.
type FileRecords struct {
	path   string
	logger *log.Logger
}

// NewFileRecords creates a CSV provider for path.
func NewFileRecords(path string, logger *log.Logger) *FileRecords {
	return &FileRecords{path: path, logger: logger}
}

func (p *FileRecords) Name() string {
	return "csv"
}

// Gather reads every row of the file.
func (p *FileRecords) Gather(ctx context.Context) ([]models.TrackDescriptor, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSourceUnavailable, err)
	}
	defer f.Close()

	p.logger.Debug("reading csv file", "path", p.path)
	return readRecords(ctx, f)
}

// Queries builds one query per row with a non-empty track.
func (p *FileRecords) Queries(ctx context.Context) ([]models.Query, []ExtractionFailure, error) {
	descriptors, err := p.Gather(ctx)
	if err != nil {
		return nil, nil, err
	}

	queries := make([]models.Query, 0, len(descriptors))
	var failures []ExtractionFailure
	for i, d := range descriptors {
		if strings.TrimSpace(d.Title) == "" {
			failures = append(failures, ExtractionFailure{Index: i, Raw: d.Artist, Reason: "empty track"})
			continue
		}
		queries = append(queries, descriptorQuery(d))
	}

	p.logger.Info("built queries", "source", p.Name(), "queries", len(queries), "failures", len(failures))
	return queries, failures, nil
}

func readRecords(ctx context.Context, r io.Reader) ([]models.TrackDescriptor, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file has no header", shared.ErrSourceEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSourceMalformed, err)
	}

	// Spreadsheet exports often start with a byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	artistCol, trackCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "artist":
			artistCol = i
		case "track":
			trackCol = i
		}
	}
	if artistCol < 0 || trackCol < 0 {
		return nil, fmt.Errorf("%w: header must contain artist and track columns, got %v", shared.ErrSourceMalformed, header)
	}

	var descriptors []models.TrackDescriptor
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrSourceMalformed, err)
		}

		artist := strings.TrimSpace(record[artistCol])
		descriptors = append(descriptors, models.TrackDescriptor{
			Artist:  artist,
			Title:   strings.TrimSpace(record[trackCol]),
			Artists: []string{artist},
		})
	}

	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: no rows after header", shared.ErrSourceEmpty)
	}
	return descriptors, nil
}
