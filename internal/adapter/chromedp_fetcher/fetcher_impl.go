package chromedp_fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/proxy"
	"github.com/connecta/gig-scraper/internal/repository"
)

const selectorWaitTimeout = 10 * time.Second

// ChromedpFetcher renders pages in headless Chrome. Every session launches its
// own browser process, released by Close.
type ChromedpFetcher struct {
	pageLoadTimeout time.Duration
	proxies         *proxy.Manager
	logger          *zap.Logger
}

// NewChromedpFetcher creates a fetcher using chromedp.
func NewChromedpFetcher(pageLoadTimeout time.Duration, proxies *proxy.Manager, logger *zap.Logger) *ChromedpFetcher {
	return &ChromedpFetcher{
		pageLoadTimeout: pageLoadTimeout,
		proxies:         proxies,
		logger:          logger,
	}
}

func (f *ChromedpFetcher) Open(ctx context.Context) (repository.PageSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.proxies.UserAgent()),
	)
	if p := f.proxies.Proxy(); p != "" {
		opts = append(opts, chromedp.ProxyServer(p))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	sugar := f.logger.Sugar()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	// The first Run starts the browser.
	err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
	)
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &browserSession{
		ctx:             browserCtx,
		cancel:          func() { cancelBrowser(); cancelAlloc() },
		pageLoadTimeout: f.pageLoadTimeout,
		logger:          f.logger,
	}, nil
}

type browserSession struct {
	ctx             context.Context
	cancel          context.CancelFunc
	pageLoadTimeout time.Duration
	logger          *zap.Logger
}

// Visit navigates the session's tab to url, waits best-effort for
// waitSelector and returns the rendered document.
func (s *browserSession) Visit(ctx context.Context, url string, waitSelector string) (repository.Page, error) {
	navCtx, cancel := context.WithTimeout(s.ctx, s.pageLoadTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return repository.Page{}, fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}

	page := repository.Page{URL: url, SelectorFound: true}
	if sel := strings.TrimSpace(waitSelector); sel != "" {
		waitCtx, cancelWait := context.WithTimeout(navCtx, selectorWaitTimeout)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(sel, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			s.logger.Debug("wait selector not found", zap.String("url", url), zap.String("selector", sel), zap.Error(err))
			page.SelectorFound = false
		}
	}

	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery)); err != nil {
		return repository.Page{}, fmt.Errorf("read %s: %w", url, err)
	}
	return page, nil
}

func (s *browserSession) Close() error {
	s.cancel()
	return nil
}
