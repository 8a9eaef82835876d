package stremio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html/charset"

	"stremio2m3u/pkg/apperr"
	"stremio2m3u/pkg/logger"
	"stremio2m3u/pkg/release"
)

const (
	maxBodySize   = 32 << 20
	lookupMemoCap = 4096
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Proxy     string
	UserAgent string

	// ResolveStreams queries /stream/ for metas that carry no direct URL.
	ResolveStreams bool
	// PreferBest picks the highest resolution stream instead of the first one.
	PreferBest bool

	Fields Fields
}

// Client reads channels from a Stremio addon. It keeps no state between Fetch calls.
type Client struct {
	baseURL string
	http    *http.Client
	opts    Options
}

// Stats summarizes one Fetch.
type Stats struct {
	Catalogs       int // catalogs fetched successfully
	CatalogsFailed int
	CatalogsSkip   int // not listable without arguments
	Items          int // metas seen
	Skipped        int // metas without a usable URL
}

// Result is what one Fetch produced.
type Result struct {
	Manifest    *Manifest
	Descriptors []StreamDescriptor
	Stats       Stats
}

// NewClient creates a new addon client
func NewClient(opts Options) (*Client, error) {
	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, apperr.Config("addon url", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if len(opts.Fields.URL) == 0 {
		opts.Fields = DefaultFields()
	}

	httpClient, err := newHTTPClient(opts.Timeout, opts.Proxy)
	if err != nil {
		return nil, apperr.Config("addon proxy", err)
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		opts:    opts,
	}, nil
}

// normalizeBaseURL accepts either the addon root or its manifest.json URL
// and returns the root without a trailing slash.
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty addon url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/manifest.json")
	u.RawPath = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the normalized addon root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) manifestURL() string {
	return c.baseURL + "/manifest.json"
}

func (c *Client) catalogURL(cat Catalog) string {
	return fmt.Sprintf("%s/catalog/%s/%s.json", c.baseURL, url.PathEscape(cat.Type), url.PathEscape(cat.ID))
}

func (c *Client) streamURL(typ, id string) string {
	return fmt.Sprintf("%s/stream/%s/%s.json", c.baseURL, url.PathEscape(typ), url.PathEscape(id))
}

// getJSON performs one GET and decodes the body into target.
// Transport failures and non-2xx statuses are network errors; bodies that do
// not decode are parse errors.
func (c *Client) getJSON(ctx context.Context, op, reqURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperr.Network(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Network(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return apperr.Network(op, fmt.Errorf("GET %s: unexpected status %d", reqURL, resp.StatusCode))
	}

	body, err := decodeBody(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return apperr.Parse(op, fmt.Errorf("GET %s: %w", reqURL, err))
	}
	if err := json.NewDecoder(body).Decode(target); err != nil {
		if ctx.Err() != nil {
			return apperr.Network(op, ctx.Err())
		}
		if isTimeout(err) {
			return apperr.Network(op, fmt.Errorf("GET %s: reading body: %w", reqURL, err))
		}
		return apperr.Parse(op, fmt.Errorf("GET %s: invalid JSON: %w", reqURL, err))
	}
	return nil
}

// isTimeout reports whether err comes from a deadline, such as http.Client.Timeout
// firing while the body is still being read.
func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// decodeBody converts a body to UTF-8 when the Content-Type declares another
// charset. JSON without a declared charset is UTF-8.
func decodeBody(r io.Reader, contentType string) (io.Reader, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r, nil
	}
	label := strings.TrimSpace(params["charset"])
	if label == "" {
		return r, nil
	}
	return charset.NewReaderLabel(label, r)
}

// FetchManifest loads manifest.json. A manifest without a catalogs list is a parse error.
func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	var raw struct {
		Manifest
		Catalogs *[]Catalog `json:"catalogs"`
	}
	if err := c.getJSON(ctx, "fetch manifest", c.manifestURL(), &raw); err != nil {
		return nil, err
	}
	if raw.Catalogs == nil {
		return nil, apperr.Parse("fetch manifest", fmt.Errorf("GET %s: missing \"catalogs\" list", c.manifestURL()))
	}
	m := raw.Manifest
	m.Catalogs = *raw.Catalogs
	return &m, nil
}

// FetchCatalog loads the metas of one catalog. A body without a metas list is a parse error.
func (c *Client) FetchCatalog(ctx context.Context, cat Catalog) ([]Item, error) {
	op := fmt.Sprintf("fetch catalog %s/%s", cat.Type, cat.ID)
	var resp CatalogResponse
	if err := c.getJSON(ctx, op, c.catalogURL(cat), &resp); err != nil {
		return nil, err
	}
	if resp.Metas == nil {
		return nil, apperr.Parse(op, fmt.Errorf("GET %s: missing \"metas\" list", c.catalogURL(cat)))
	}
	return *resp.Metas, nil
}

// FetchStreams loads the stream list of one item.
func (c *Client) FetchStreams(ctx context.Context, typ, id string) ([]Item, error) {
	var resp StreamResponse
	if err := c.getJSON(ctx, fmt.Sprintf("fetch streams %s/%s", typ, id), c.streamURL(typ, id), &resp); err != nil {
		return nil, err
	}
	return resp.Streams, nil
}

// PickStream returns the URL of the chosen stream, or "" when none has one.
func (c *Client) PickStream(streams []Item) string {
	var urls, titles []string
	for _, s := range streams {
		if u := s.String(c.opts.Fields.URL...); u != "" {
			urls = append(urls, u)
			titles = append(titles, s.String("name")+" "+s.String("title", "description"))
		}
	}
	if len(urls) == 0 {
		return ""
	}
	if !c.opts.PreferBest {
		return urls[0]
	}
	return urls[release.Rank(titles)]
}

// Fetch walks manifest -> catalogs -> metas (-> streams) and returns the
// descriptors in addon order. Only the manifest is mandatory: failing catalogs
// and items are logged and skipped, unless every catalog failed.
func (c *Client) Fetch(ctx context.Context) (*Result, error) {
	logger.Info("Fetching manifest", "url", c.manifestURL())
	manifest, err := c.FetchManifest(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Addon loaded", "name", manifest.Name, "version", manifest.Version, "catalogs", len(manifest.Catalogs))

	// Identical type/id pairs show up across catalogs; look each up once per run.
	memo, err := lru.New[string, string](lookupMemoCap)
	if err != nil {
		return nil, err
	}

	res := &Result{Manifest: manifest}
	var firstCatalogErr error

	for _, cat := range manifest.Catalogs {
		if !cat.Listable() {
			res.Stats.CatalogsSkip++
			logger.Debug("Skipping catalog that requires arguments", "type", cat.Type, "id", cat.ID)
			continue
		}

		metas, err := c.FetchCatalog(ctx, cat)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperr.Network("fetch", ctx.Err())
			}
			res.Stats.CatalogsFailed++
			if firstCatalogErr == nil {
				firstCatalogErr = err
			}
			logger.Warn("Failed to fetch catalog", "type", cat.Type, "id", cat.ID, "err", err)
			continue
		}
		res.Stats.Catalogs++
		logger.Info("Catalog fetched", "name", cat.Group(), "items", len(metas))

		for _, meta := range metas {
			res.Stats.Items++
			d, ok := c.describe(ctx, cat, meta, memo)
			if ctx.Err() != nil {
				return nil, apperr.Network("fetch", ctx.Err())
			}
			if !ok {
				res.Stats.Skipped++
				continue
			}
			res.Descriptors = append(res.Descriptors, d)
		}
	}

	if res.Stats.Catalogs == 0 && firstCatalogErr != nil {
		return nil, firstCatalogErr
	}
	return res, nil
}

// describe turns one meta into a descriptor, resolving its stream if needed.
func (c *Client) describe(ctx context.Context, cat Catalog, meta Item, memo *lru.Cache[string, string]) (StreamDescriptor, bool) {
	f := c.opts.Fields
	d := StreamDescriptor{
		ID:    meta.String("id"),
		Name:  meta.String(f.Name...),
		URL:   meta.String(f.URL...),
		Logo:  meta.String(f.Logo...),
		Group: cat.Group(),
	}

	if d.URL == "" && c.opts.ResolveStreams && d.ID != "" {
		typ := meta.String("type")
		if typ == "" {
			typ = cat.Type
		}
		key := typ + "/" + d.ID
		if cached, ok := memo.Get(key); ok {
			d.URL = cached
		} else {
			streams, err := c.FetchStreams(ctx, typ, d.ID)
			if err != nil {
				logger.Debug("Stream lookup failed", "id", d.ID, "err", err)
			} else {
				d.URL = c.PickStream(streams)
			}
			if ctx.Err() == nil {
				memo.Add(key, d.URL)
			}
		}
	}

	if d.URL == "" {
		logger.Debug("No stream for item", "name", d.Name, "id", d.ID)
		return d, false
	}
	logger.Debug("Stream found", "name", d.Name)
	return d, true
}
