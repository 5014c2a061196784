// YouTube playlist page fetcher
//
// Reads public playlists without an API key of its own: the first page comes
// from the playlist HTML, later pages from the innertube browse endpoint.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/spimport/internal/docpath"
	"github.com/desertthunder/spimport/internal/metrics"
	"github.com/desertthunder/spimport/internal/shared"
)

const defaultYTBaseURL string = "https://www.youtube.com"

// ErrMalformedDocument is returned when a fetched page lacks a mandatory path.
var ErrMalformedDocument = fmt.Errorf("%w: unexpected youtube document", shared.ErrSourceMalformed)

var initialDataPattern = regexp.MustCompile(`var ytInitialData\s*=\s*`)

var (
	initialItemsPath = docpath.Parse(
		"contents.twoColumnBrowseResultsRenderer.tabs.0.tabRenderer.content." +
			"sectionListRenderer.contents.0.itemSectionRenderer.contents.0." +
			"playlistVideoListRenderer.contents",
	)
	nextItemsPath = docpath.Parse("onResponseReceivedActions.0.appendContinuationItemsAction.continuationItems")
	continuation  = docpath.Parse("continuationItemRenderer")
	tokenPath     = continuation.Join(docpath.Parse("continuationEndpoint.continuationCommand.token")...)
)

type innertubeClient struct {
	HL            string `json:"hl"`
	GL            string `json:"gl"`
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	UserAgent     string `json:"userAgent,omitempty"`
	OriginalURL   string `json:"originalUrl,omitempty"`
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type browseRequest struct {
	Context      innertubeContext `json:"context"`
	Continuation string           `json:"continuation"`
}

// YouTubeService fetches playlist pages through a [Transport].
type YouTubeService struct {
	baseURL   string
	config    shared.YouTubeConfig
	transport Transport
}

// NewYouTubeService creates a page fetcher. An empty base URL selects youtube.com.
func NewYouTubeService(config shared.YouTubeConfig, transport Transport) *YouTubeService {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	return &YouTubeService{baseURL: baseURL, config: config, transport: transport}
}

// YouTubeHeaders builds the request headers the innertube endpoints expect,
// with any captured browser headers layered on top.
func YouTubeHeaders(config shared.YouTubeConfig) map[string]string {
	origin := strings.TrimRight(config.BaseURL, "/")
	if origin == "" {
		origin = defaultYTBaseURL
	}

	headers := map[string]string{
		"X-Youtube-Client-Name":    "1",
		"X-Youtube-Client-Version": config.ClientVersion,
		"X-Origin":                 origin,
		"Origin":                   origin,
	}
	if config.UserAgent != "" {
		headers["User-Agent"] = config.UserAgent
	}
	if config.Language != "" {
		headers["Accept-Language"] = config.Language
	}
	for k, v := range config.Headers {
		headers[k] = v
	}
	return headers
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// PlaylistURL returns the public page for a playlist ID.
func (y *YouTubeService) PlaylistURL(playlistID string) string {
	return y.baseURL + "/playlist?list=" + url.QueryEscape(playlistID)
}

func (y *YouTubeService) browseURL() string {
	u := y.baseURL + "/youtubei/v1/browse"
	if y.config.APIKey != "" {
		u += "?key=" + url.QueryEscape(y.config.APIKey)
	}
	return u
}

// FetchInitial fetches the playlist page and returns its first page of items.
func (y *YouTubeService) FetchInitial(ctx context.Context, playlistID string) (page *Page, err error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	defer func() { metrics.PageFetchesTotal.WithLabelValues("initial", metrics.Status(err)).Inc() }()

	html, err := y.transport.Get(ctx, y.PlaylistURL(playlistID))
	if err != nil {
		return nil, err
	}

	tree, err := extractInitialData(html)
	if err != nil {
		return nil, err
	}
	return pageAt(tree, initialItemsPath)
}

// FetchNext requests the page a continuation token points to.
func (y *YouTubeService) FetchNext(ctx context.Context, token string) (page *Page, err error) {
	if token == "" {
		return nil, fmt.Errorf("%w: continuation token", shared.ErrMissingArgument)
	}
	defer func() { metrics.PageFetchesTotal.WithLabelValues("continuation", metrics.Status(err)).Inc() }()

	body, err := y.transport.Post(ctx, y.browseURL(), y.browseRequest(token))
	if err != nil {
		return nil, err
	}

	var tree any
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		return nil, fmt.Errorf("%w: browse response is not JSON: %w", ErrMalformedDocument, err)
	}
	return pageAt(tree, nextItemsPath)
}

func (y *YouTubeService) browseRequest(token string) browseRequest {
	return browseRequest{
		Context: innertubeContext{
			Client: innertubeClient{
				HL:            languageCode(y.config.Language),
				GL:            y.config.Region,
				ClientName:    y.config.ClientName,
				ClientVersion: y.config.ClientVersion,
				UserAgent:     y.config.UserAgent,
				OriginalURL:   y.baseURL,
			},
		},
		Continuation: token,
	}
}

// extractInitialData decodes the JSON value assigned to ytInitialData.
func extractInitialData(html string) (any, error) {
	loc := initialDataPattern.FindStringIndex(html)
	if loc == nil {
		return nil, fmt.Errorf("%w: ytInitialData not found", ErrMalformedDocument)
	}

	var tree any
	dec := json.NewDecoder(strings.NewReader(html[loc[1]:]))
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: ytInitialData is not JSON: %w", ErrMalformedDocument, err)
	}
	return tree, nil
}

func pageAt(tree any, path docpath.Path) (*Page, error) {
	items, err := docpath.GetArray(tree, path)
	if err != nil {
		if errors.Is(err, docpath.ErrPathNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
		return nil, err
	}

	page := &Page{Items: make([]any, 0, len(items))}
	if len(items) > 0 {
		if token, ok := docpath.LookupString(items[len(items)-1], tokenPath); ok {
			page.Next.Token = token
		}
	}
	for _, item := range items {
		if _, ok := docpath.Lookup(item, continuation); ok {
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// languageCode turns "en-GB" into "en".
func languageCode(lang string) string {
	code, _, _ := strings.Cut(lang, "-")
	return code
}
