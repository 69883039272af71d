package storage

import (
	"bytes"
	"encoding/xml"
	"time"

	"github.com/google/uuid"
	"github.com/ubuntu/decorate"

	"comic-market-watch/config"
	"comic-market-watch/models"
)

// PubDateLayout is RFC 822 with a numeric zone, always rendered in UTC.
const PubDateLayout = "Mon, 02 Jan 2006 15:04:05 +0000"

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Item        rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RSSWriter renders the report as a single-item RSS 2.0 feed.
// Channel and item links come from configuration, not from the report.
type RSSWriter struct {
	path string
	feed config.FeedConfig
	now  func() time.Time
}

// RSSOption customises an RSSWriter.
type RSSOption func(*RSSWriter)

// WithClock replaces time.Now as the source of pubDate.
func WithClock(now func() time.Time) RSSOption {
	return func(w *RSSWriter) { w.now = now }
}

// NewRSSWriter creates a writer for path.
func NewRSSWriter(path string, feed config.FeedConfig, opts ...RSSOption) *RSSWriter {
	w := &RSSWriter{path: path, feed: feed, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the output file location.
func (w *RSSWriter) Path() string { return w.path }

// Write renders report and replaces the feed on disk. Text is XML-escaped.
func (w *RSSWriter) Write(report *models.Report) (err error) {
	defer decorate.OnError(&err, "could not write RSS feed %q", w.path)

	data, err := w.render(report)
	if err != nil {
		return err
	}
	return writeFileAtomic(w.path, data)
}

func (w *RSSWriter) render(report *models.Report) ([]byte, error) {
	pubDate := w.now().UTC().Format(PubDateLayout)

	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       w.feed.Title,
			Link:        w.feed.SiteURL,
			Description: w.feed.Description,
			Item: rssItem{
				Title:       report.Headline,
				Link:        w.feed.ReportURL,
				Description: report.Summary,
				PubDate:     pubDate,
				GUID:        rssGUID{Value: itemGUID(w.feed.ReportURL, report.Headline, pubDate)},
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// itemGUID is stable for a given publication, so re-rendering the same run
// does not make readers show the item twice.
func itemGUID(link, headline, pubDate string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link+"\n"+headline+"\n"+pubDate)).String()
}
