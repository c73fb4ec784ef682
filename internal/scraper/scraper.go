package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schema"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

const (
	UserAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	Timeout              = 30 * time.Second
	DetailDelay          = 1500 * time.Millisecond
	DefaultTableSelector = "table.tr-table"
)

// URLs holds the base address of every page family
type URLs struct {
	Stat      string `yaml:"stat"`
	Rating    string `yaml:"rating"`
	Boxscores string `yaml:"boxscores"`
	Matchups  string `yaml:"matchups"`
	Matchup   string `yaml:"matchup"`
}

// DefaultURLs returns the production page addresses
func DefaultURLs() URLs {
	return URLs{
		Stat:      "https://www.teamrankings.com/ncaa-basketball/stat/",
		Rating:    "https://www.teamrankings.com/ncaa-basketball/ranking/",
		Boxscores: "https://www.sports-reference.com/cbb/boxscores/index.cgi",
		Matchups:  "https://www.covers.com/sports/ncaab/matchups",
		Matchup:   "https://www.covers.com/sport/basketball/ncaab/matchup/",
	}
}

// Config controls the HTTP client
type Config struct {
	UserAgent        string
	Timeout          time.Duration
	Retries          int
	RetryWait        time.Duration
	DetailDelay      time.Duration
	TableSelector    string
	CloudflareBypass bool
	URLs             URLs
}

// DefaultConfig returns the settings used against the live sites
func DefaultConfig() Config {
	return Config{
		UserAgent:        UserAgent,
		Timeout:          Timeout,
		Retries:          2,
		RetryWait:        2 * time.Second,
		DetailDelay:      DetailDelay,
		TableSelector:    DefaultTableSelector,
		CloudflareBypass: true,
		URLs:             DefaultURLs(),
	}
}

// Scraper handles fetching and parsing pages
type Scraper struct {
	client        *resty.Client
	urls          URLs
	tableSelector string
	detail        *Throttle
	log           *logger.Logger
}

// New creates a Scraper from cfg. Zero fields fall back to package defaults.
func New(cfg Config) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = Timeout
	}
	if cfg.TableSelector == "" {
		cfg.TableSelector = DefaultTableSelector
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	if cfg.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if cfg.Retries > 0 {
		client.SetRetryCount(cfg.Retries)
		client.SetRetryWaitTime(cfg.RetryWait)
		client.AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500)
		})
	}

	return &Scraper{
		client:        client,
		urls:          cfg.URLs,
		tableSelector: cfg.TableSelector,
		detail:        NewThrottle(cfg.DetailDelay),
		log:           logger.Default(),
	}
}

// SetLogger replaces the logger used for request diagnostics
func (s *Scraper) SetLogger(l *logger.Logger) {
	s.log = l
}

// get issues one GET request and returns the body of a 200 response
func (s *Scraper) get(ctx context.Context, pageURL string, headers map[string]string) ([]byte, error) {
	start := time.Now()
	s.log.Debug("fetching page", logger.Fields{"url": pageURL})
	logger.IncrCounter("http.requests")

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(pageURL)
	logger.RecordTiming("http.request", time.Since(start))
	if err != nil {
		logger.IncrCounter("http.failures")
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		logger.IncrCounter("http.failures")
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}

// FetchTable fetches url and parses its stats table. On any failure the
// returned table is empty and the error is a *FetchError or *ParseError.
func (s *Scraper) FetchTable(ctx context.Context, pageURL string, headers map[string]string) (table.Table, error) {
	body, err := s.get(ctx, pageURL, headers)
	if err != nil {
		return table.New(), err
	}
	return parseTable(bytes.NewReader(body), s.tableSelector, pageURL)
}

// PageURL returns the address of a stat or rating page as of date
func (s *Scraper) PageURL(page schema.Page, date string) string {
	base := s.urls.Stat
	if page.Kind == schema.KindRating {
		base = s.urls.Rating
	}
	q := url.Values{}
	q.Set("date", date)
	return strings.TrimRight(base, "/") + "/" + page.Name + "?" + q.Encode()
}

// FetchPage fetches one stat or rating page as of date
func (s *Scraper) FetchPage(ctx context.Context, page schema.Page, date string) (table.Table, error) {
	return s.FetchTable(ctx, s.PageURL(page, date), nil)
}

// parseTable extracts the first table matching selector. Columns are the
// header cells; rows are the body rows that carry td cells.
func parseTable(r io.Reader, selector, sourceURL string) (table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return table.New(), &ParseError{URL: sourceURL, What: fmt.Sprintf("reading HTML: %v", err)}
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return table.New(), &ParseError{URL: sourceURL, What: fmt.Sprintf("no element matches %q", selector)}
	}

	headerCells := sel.Find("thead tr").First().Find("th")
	if headerCells.Length() == 0 {
		headerCells = sel.Find("tr").First().Find("th")
	}
	columns := make([]string, 0, headerCells.Length())
	headerCells.Each(func(_ int, th *goquery.Selection) {
		columns = append(columns, strings.TrimSpace(th.Text()))
	})
	if len(columns) == 0 {
		return table.New(), &ParseError{URL: sourceURL, What: "table has no header row"}
	}

	out := table.New(columns...)
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]table.Cell, 0, len(columns))
		cells.Each(func(i int, td *goquery.Selection) {
			if i < len(columns) {
				row = append(row, table.Value(strings.TrimSpace(td.Text())))
			}
		})
		// row length is bounded by len(columns) above
		_ = out.AddRow(row...)
	})

	return out, nil
}
