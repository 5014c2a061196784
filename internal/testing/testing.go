// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/providers"
)

// MockSearcher is a test double for tasks.Searcher.
//
// Results are keyed by search text. Unknown queries return no candidates.
type MockSearcher struct {
	Results map[string][]models.SearchCandidate
	Errors  map[string]error
	Hook    func(query string) // Called before every search, e.g. to cancel a context

	mu    sync.Mutex
	calls []string
}

func (m *MockSearcher) SearchTracks(ctx context.Context, query string, limit, offset int) ([]models.SearchCandidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()

	if m.Hook != nil {
		m.Hook(query)
	}
	if err := m.Errors[query]; err != nil {
		return nil, err
	}
	return m.Results[query], nil
}

// Calls returns the queries searched so far, in call order.
func (m *MockSearcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockPlaylistAdder is a test double for tasks.PlaylistAdder.
//
// FailOn lists 1-based call numbers that fail.
type MockPlaylistAdder struct {
	FailOn map[int]error

	mu      sync.Mutex
	calls   int
	batches [][]string
}

func (m *MockPlaylistAdder) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.batches = append(m.batches, append([]string(nil), uris...))
	m.mu.Unlock()

	if err := m.FailOn[call]; err != nil {
		return err
	}
	return nil
}

// Batches returns every batch received, in call order.
func (m *MockPlaylistAdder) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.batches...)
}

// MockSpotify combines the search and playlist doubles with account lookups.
type MockSpotify struct {
	MockSearcher
	MockPlaylistAdder

	User     *models.User
	Playlist *models.Playlist
	Err      error // Returned by CurrentUser and GetPlaylist
}

func (m *MockSpotify) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.User, nil
}

func (m *MockSpotify) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Playlist != nil {
		return m.Playlist, nil
	}
	return &models.Playlist{ID: playlistID, Name: playlistID}, nil
}

// MockProvider is a test double for [providers.Provider].
type MockProvider struct {
	ProviderName string
	Descriptors  []models.TrackDescriptor
	QueryList    []models.Query
	Failures     []providers.ExtractionFailure
	Err          error
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Gather(ctx context.Context) ([]models.TrackDescriptor, error) {
	return m.Descriptors, m.Err
}

func (m *MockProvider) Queries(ctx context.Context) ([]models.Query, []providers.ExtractionFailure, error) {
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.QueryList, m.Failures, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MustChdir changes into dir and restores the previous working directory on cleanup.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
