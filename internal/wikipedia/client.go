package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/liliang-cn/wikirag/internal/domain"
)

// Some Wikipedia mirrors refuse requests without a browser-like agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	refMarkers     = regexp.MustCompile(`\[\d+]`)
	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

// Client wraps the MediaWiki API for topic search and page fetch by URL
type Client struct {
	language string
	baseURL  string // overrides the per-language endpoint when set, for tests
	client   *http.Client
}

// Config configures the content source
type Config struct {
	Language string
	Timeout  time.Duration
	BaseURL  string
}

func NewClient(cfg Config) *Client {
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		language: language,
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: timeout},
	}
}

type apiPage struct {
	PageID  int64  `json:"pageid"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
	FullURL string `json:"fullurl"`
	Index   int    `json:"index"`
}

type apiResponse struct {
	Query struct {
		Pages []apiPage `json:"pages"`
	} `json:"query"`
}

// SearchTopic fetches up to limit pages matching the topic, with their
// plain-text extracts, ordered by search relevance.
func (c *Client) SearchTopic(ctx context.Context, topic string, limit int) ([]domain.Page, error) {
	params := url.Values{
		"action":          {"query"},
		"format":          {"json"},
		"formatversion":   {"2"},
		"generator":       {"search"},
		"gsrsearch":       {topic},
		"gsrlimit":        {strconv.Itoa(limit)},
		"prop":            {"extracts|info"},
		"explaintext":     {"1"},
		"exsectionformat": {"plain"},
		"redirects":       {"1"},
		"inprop":          {"url"},
	}

	data, err := c.call(ctx, params)
	if err != nil {
		return nil, err
	}

	pages := data.Query.Pages
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	fetchedAt := time.Now().UTC()
	results := make([]domain.Page, 0, len(pages))
	for _, raw := range pages {
		cleaned := CleanText(raw.Extract)
		if cleaned == "" {
			continue
		}
		results = append(results, domain.Page{
			PageID:    raw.PageID,
			Title:     raw.Title,
			URL:       raw.FullURL,
			Topic:     topic,
			Content:   cleaned,
			FetchedAt: fetchedAt,
		})
	}
	return results, nil
}

// FetchPage retrieves a single article given its /wiki/<Title> URL
func (c *Client) FetchPage(ctx context.Context, pageURL string) (domain.Page, error) {
	title, err := titleFromURL(pageURL)
	if err != nil {
		return domain.Page{}, err
	}

	params := url.Values{
		"action":          {"query"},
		"format":          {"json"},
		"formatversion":   {"2"},
		"titles":          {title},
		"prop":            {"extracts|info"},
		"explaintext":     {"1"},
		"exsectionformat": {"plain"},
		"redirects":       {"1"},
		"inprop":          {"url"},
	}

	data, err := c.call(ctx, params)
	if err != nil {
		return domain.Page{}, err
	}

	for _, raw := range data.Query.Pages {
		if raw.PageID == 0 {
			continue
		}
		cleaned := CleanText(raw.Extract)
		if cleaned == "" {
			continue
		}
		return domain.Page{
			PageID:    raw.PageID,
			Title:     raw.Title,
			URL:       raw.FullURL,
			Content:   cleaned,
			FetchedAt: time.Now().UTC(),
		}, nil
	}
	return domain.Page{}, fmt.Errorf("%w: no content for %s", domain.ErrUpstreamFetch, pageURL)
}

func (c *Client) call(ctx context.Context, params url.Values) (*apiResponse, error) {
	endpoint := c.baseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrUpstreamFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: call mediawiki API: %v", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: mediawiki API returned %s", domain.ErrUpstreamFetch, resp.Status)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode mediawiki response: %v", domain.ErrUpstreamFetch, err)
	}
	return &data, nil
}

// titleFromURL extracts the article title from a /wiki/<Title> URL
func titleFromURL(pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid url %q", domain.ErrValidation, pageURL)
	}
	const prefix = "/wiki/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return "", fmt.Errorf("%w: not an article url: %q", domain.ErrValidation, pageURL)
	}
	title := strings.TrimPrefix(parsed.Path, prefix)
	title = strings.ReplaceAll(title, "_", " ")
	title, err = url.PathUnescape(title)
	if err != nil || title == "" {
		return "", fmt.Errorf("%w: not an article url: %q", domain.ErrValidation, pageURL)
	}
	return title, nil
}

// CleanText normalizes raw extracts: remove citation markers, compress
// runs of blank lines, trim whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	withoutRefs := refMarkers.ReplaceAllString(text, "")
	condensed := excessNewlines.ReplaceAllString(withoutRefs, "\n\n")
	return strings.TrimSpace(condensed)
}
