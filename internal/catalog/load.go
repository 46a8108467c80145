package catalog

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultUserAgent = "spigell/assessment-recommender"
	defaultTimeout   = 10 * time.Second
	acceptEncoding   = "gzip"
)

// Options controls how a catalog source is fetched.
type Options struct {
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// IsRemote reports whether the source is fetched over HTTP.
func IsRemote(source string) bool {
	s := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Load reads the catalog from source. An empty source yields the embedded sample catalog,
// an http(s) URL is fetched, anything else is read as a local file.
func Load(ctx context.Context, source string, opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	source = strings.TrimSpace(source)
	switch {
	case source == "":
		logger.Debug("using embedded sample catalog")
		return Sample()
	case IsRemote(source):
		data, err := fetch(ctx, source, opts, logger)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog %s: %w", source, err)
		}
		return Parse(data)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		return Parse(data)
	}
}

func fetch(ctx context.Context, url string, opts Options, logger *zap.Logger) ([]byte, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	return io.ReadAll(reader)
}
