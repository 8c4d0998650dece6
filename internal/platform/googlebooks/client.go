package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// PageSize is the number of volumes requested per page.
const PageSize = 20

// Cache stores raw volume pages keyed by request URL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

type Config struct {
	BaseURL    string
	UserAgent  string
	RPS        int
	MaxRetries int
	// MaxPages caps pagination per query. Zero means no cap.
	MaxPages int
	// Backoff is the first retry delay; it doubles on each retry.
	Backoff time.Duration
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	maxPages   int
	backoff    time.Duration
	cache      Cache
}

// NewClient builds a client. cache may be nil.
func NewClient(cfg Config, cache Cache) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Every(time.Second / time.Duration(cfg.RPS))
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  cfg.UserAgent,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		maxPages:   cfg.MaxPages,
		backoff:    backoff,
		cache:      cache,
	}
}

// VolumesResponse matches books/v1/volumes
type VolumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	PublishedDate *string  `json:"publishedDate"`
	ImageLinks    *struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

// Thumbnail returns the thumbnail link, or nil when the volume has none.
func (v Volume) Thumbnail() *string {
	if v.VolumeInfo.ImageLinks == nil || v.VolumeInfo.ImageLinks.Thumbnail == "" {
		return nil
	}
	t := v.VolumeInfo.ImageLinks.Thumbnail
	return &t
}

// VolumesByAuthor returns every volume matching inauthor:<author>, following
// pagination until the reported total is reached or a page comes back empty.
// When MaxPages ends pagination early the partial result is returned and a
// warning is logged.
func (c *Client) VolumesByAuthor(ctx context.Context, author string) ([]Volume, error) {
	var out []Volume
	start, total := 0, 0
	for page := 0; ; page++ {
		if c.maxPages > 0 && page >= c.maxPages {
			log.Warn().
				Str("author", author).
				Int("fetched", len(out)).
				Int("total", total).
				Int("max_pages", c.maxPages).
				Msg("volume pagination stopped at page limit")
			break
		}

		res, err := c.volumesPage(ctx, author, start)
		if err != nil {
			return nil, fmt.Errorf("fetch volumes at %d: %w", start, err)
		}
		if len(res.Items) == 0 {
			break
		}
		out = append(out, res.Items...)

		total = res.TotalItems
		start += PageSize
		if start >= total {
			break
		}
	}
	return out, nil
}

func (c *Client) volumesPage(ctx context.Context, author string, start int) (*VolumesResponse, error) {
	q := url.Values{}
	q.Set("q", "inauthor:"+author)
	q.Set("maxResults", strconv.Itoa(PageSize))
	q.Set("startIndex", strconv.Itoa(start))
	u := fmt.Sprintf("%s/books/v1/volumes?%s", c.baseURL, q.Encode())

	body, err := c.cachedGet(ctx, u)
	if err != nil {
		return nil, err
	}

	var res VolumesResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode volumes: %w", err)
	}
	return &res, nil
}

func (c *Client) cachedGet(ctx context.Context, u string) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, u)
		if err != nil {
			log.Warn().Err(err).Str("url", u).Msg("volume cache read failed")
		} else if ok {
			return body, nil
		}
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && json.Valid(body) {
		if err := c.cache.Set(ctx, u, body); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("volume cache write failed")
		}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1x, 2x, 4x...
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retry, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// do performs a single request and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
