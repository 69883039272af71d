// Package ebay fetches completed listings from the eBay Finding API.
package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ubuntu/decorate"

	"comic-market-watch/config"
	"comic-market-watch/models"
	"comic-market-watch/utils"
)

const (
	operationName  = "findCompletedItems"
	serviceVersion = "1.13.0"
	responseFormat = "JSON"
	sortOrder      = "EndTimeSoonest"
	imageSelector  = "PictureURLSuperSize"

	// windowLayout is the timestamp form the Finding API expects in filters.
	windowLayout = "2006-01-02T00:00:00.000Z"
)

// ErrMissingAppID is returned when a network fetch is attempted without credentials.
var ErrMissingAppID = errors.New("ebay application id is not configured")

// Scraper issues the single findCompletedItems request of a run.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	hc     *http.Client
	now    func() time.Time
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Scraper) { s.hc = hc }
}

// WithClock replaces time.Now when computing the lookback window.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// New creates a Scraper. Without a configured timeout the client never
// times out, matching the runtime default.
func New(cfg *config.Config, logger *utils.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:    cfg,
		logger: logger,
		hc:     &http.Client{Timeout: cfg.Fetch.Timeout},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window is the lookback period of a run, both ends at midnight UTC.
type Window struct {
	From time.Time
	To   time.Time
}

// LookbackWindow returns the window ending today at midnight UTC.
func LookbackWindow(now time.Time, days int) Window {
	now = now.UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Window{From: to.AddDate(0, 0, -days), To: to}
}

func (w Window) String() string {
	return w.From.Format(windowLayout) + " → " + w.To.Format(windowLayout)
}

// Query builds the fixed set of request parameters.
func (s *Scraper) Query() url.Values {
	q := url.Values{}
	q.Set("OPERATION-NAME", operationName)
	q.Set("SERVICE-VERSION", serviceVersion)
	q.Set("SECURITY-APPNAME", s.cfg.Ebay.AppID)
	q.Set("RESPONSE-DATA-FORMAT", responseFormat)
	q.Set("categoryId", s.cfg.Ebay.CategoryID)
	q.Set("itemFilter(0).name", "SoldItemsOnly")
	q.Set("itemFilter(0).value", "true")
	q.Set("sortOrder", sortOrder)
	q.Set("paginationInput.entriesPerPage", strconv.Itoa(s.cfg.Fetch.MaxEntries))
	q.Set("outputSelector", imageSelector)

	if s.cfg.Fetch.EnforceDateWindow {
		w := LookbackWindow(s.now(), s.cfg.Fetch.LookbackDays)
		q.Set("itemFilter(1).name", "EndTimeFrom")
		q.Set("itemFilter(1).value", w.From.Format(windowLayout))
		q.Set("itemFilter(2).name", "EndTimeTo")
		q.Set("itemFilter(2).value", w.To.Format(windowLayout))
	}
	return q
}

// Fetch performs exactly one GET and returns the body. There is no retry:
// a transport failure, a non-2xx status or a body that is not JSON is
// returned as an error.
func (s *Scraper) Fetch(ctx context.Context) (raw models.RawResponse, err error) {
	defer decorate.OnError(&err, "could not fetch sold listings")

	if s.cfg.Ebay.AppID == "" {
		return nil, ErrMissingAppID
	}

	u, err := url.Parse(s.cfg.Ebay.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	u.RawQuery = s.Query().Encode()

	w := LookbackWindow(s.now(), s.cfg.Fetch.LookbackDays)
	s.logger.Info("[ebay] Fetching sold listings — category: %s | entries: %d | window: %s (enforced: %t)",
		s.cfg.Ebay.CategoryID, s.cfg.Fetch.MaxEntries, w, s.cfg.Fetch.EnforceDateWindow)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if !json.Valid(body) {
		return nil, errors.New("response body is not valid JSON")
	}

	s.logger.Debug("[ebay] Received %d bytes", len(body))
	return models.RawResponse(body), nil
}

// ReadFile loads a previously captured Finding API response.
func ReadFile(path string) (raw models.RawResponse, err error) {
	defer decorate.OnError(&err, "could not read saved response %q", path)

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("file is not valid JSON")
	}
	return models.RawResponse(body), nil
}
