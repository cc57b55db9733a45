package colly_fetcher

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/proxy"
	"github.com/connecta/gig-scraper/internal/repository"
)

// CollyFetcher fetches static HTML for boards that render server-side.
type CollyFetcher struct {
	timeout time.Duration
	proxies *proxy.Manager
	logger  *zap.Logger
}

func NewCollyFetcher(timeout time.Duration, proxies *proxy.Manager, logger *zap.Logger) *CollyFetcher {
	return &CollyFetcher{timeout: timeout, proxies: proxies, logger: logger}
}

// Open creates a collector bound to one user agent and proxy.
func (f *CollyFetcher) Open(_ context.Context) (repository.PageSession, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.proxies.UserAgent()),
		colly.AllowURLRevisit(),
	)
	if f.timeout > 0 {
		c.SetRequestTimeout(f.timeout)
	}
	if p := f.proxies.Proxy(); p != "" {
		if err := c.SetProxy(p); err != nil {
			return nil, fmt.Errorf("set proxy: %w", err)
		}
	}
	return &collySession{collector: c, logger: f.logger}, nil
}

type collySession struct {
	collector *colly.Collector
	logger    *zap.Logger
}

func (s *collySession) Visit(ctx context.Context, url string, waitSelector string) (repository.Page, error) {
	if err := ctx.Err(); err != nil {
		return repository.Page{}, err
	}
	c := s.collector.Clone()
	var body []byte
	var visitErr error
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(url); err != nil {
		return repository.Page{}, fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	if visitErr != nil {
		return repository.Page{}, fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, visitErr)
	}
	if err := ctx.Err(); err != nil {
		return repository.Page{}, err
	}

	page := repository.Page{URL: url, HTML: string(body), SelectorFound: true}
	if sel := strings.TrimSpace(waitSelector); sel != "" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil || doc.Find(sel).Length() == 0 {
			s.logger.Debug("selector not present in static page", zap.String("url", url), zap.String("selector", sel))
			page.SelectorFound = false
		}
	}
	return page, nil
}

func (s *collySession) Close() error { return nil }
