package services

import (
	"fmt"
	"io"
	"strings"

	"comic-market-watch/config"
	"comic-market-watch/models"
	"comic-market-watch/utils"
)

type InsightService struct {
	cfg     config.ReportConfig
	cleaner *Cleaner
	logger  *utils.Logger
}

func NewInsightService(cfg config.ReportConfig, logger *utils.Logger) *InsightService {
	return &InsightService{cfg: cfg, cleaner: NewCleaner(logger), logger: logger}
}

// Analyze decodes raw and summarises it. The only errors are ErrNoData and
// ErrNoValidPrices, and exactly one of the return values is non-nil.
func (s *InsightService) Analyze(raw models.RawResponse) (*models.Report, error) {
	batch, err := s.cleaner.Decode(raw)
	if err != nil {
		return nil, err
	}
	return s.Generate(batch)
}

// Generate computes the mean price and the top sale of a decoded batch.
// The first item reaching the maximum price wins ties.
func (s *InsightService) Generate(batch Batch) (*models.Report, error) {
	if len(batch.Items) == 0 {
		return nil, ErrNoValidPrices
	}

	top := batch.Items[0]
	var total float64
	for _, l := range batch.Items {
		total += l.CurrentPrice
		if l.CurrentPrice > top.CurrentPrice {
			top = l
		}
	}
	avg := total / float64(len(batch.Items))

	report := &models.Report{
		Headline: fmt.Sprintf("%s: Avg Price $%.2f, Top Sale $%.2f", s.cfg.MarketName, avg, top.CurrentPrice),
		Summary: fmt.Sprintf("This week’s eBay %s market saw %d notable sales with an average price of $%.2f. "+
			"The top sale was \"%s\" for $%.2f. Stay tuned weekly for pricing trends and key shifts.",
			s.cfg.CategoryLabel, len(batch.Items), avg, top.Title, top.CurrentPrice),
		Title:     top.Title,
		Link:      top.ViewItemURL,
		Thumbnail: top.GalleryURL,
		Price:     top.CurrentPrice,
		Currency:  top.Currency,

		Average: avg,
		Count:   len(batch.Items),
		Skipped: len(batch.Skipped),
	}

	s.logger.Info("[insights] %d sales, average $%.2f, top sale $%.2f (%s)",
		report.Count, report.Average, report.Price, truncate(report.Title, 50))
	return report, nil
}

// Print writes a human readable version of the report, used by dry runs.
func (s *InsightService) Print(w io.Writer, r *models.Report) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  %s\n", strings.ToUpper(s.cfg.MarketName))
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  %s\n", r.Headline)
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Sales counted  : %d\n", r.Count)
	fmt.Fprintf(w, "  Items skipped  : %d\n", r.Skipped)
	fmt.Fprintf(w, "  Average price  : $%.2f\n", r.Average)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Top Sale\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  %s\n", truncate(r.Title, 50))
	fmt.Fprintf(w, "  Price : $%.2f\n", r.Price)
	if r.Currency != "" {
		fmt.Fprintf(w, "  Currency : %s\n", r.Currency)
	}
	if r.Link != "" {
		fmt.Fprintf(w, "  Link  : %s\n", r.Link)
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
