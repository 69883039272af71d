package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"comic-market-watch/utils"
)

const (
	// AppName is used for the config file name and the environment prefix.
	AppName = "comic-market-watch"

	DefaultEndpoint      = "https://svcs.ebay.com/services/search/FindingService/v1"
	DefaultCategoryID    = "63"
	DefaultMaxEntries    = 50
	DefaultLookbackDays  = 7
	DefaultHTMLPath      = "report.html"
	DefaultRSSPath       = "feed.xml"
	DefaultSiteURL       = "https://yourusername.github.io/ebay-comic-agent/"
	DefaultReportURL     = "https://yourusername.github.io/ebay-comic-agent/report.html"
	DefaultMarketName    = "Comic Book Market Watch"
	DefaultCategoryLabel = "Comics"
	DefaultFeedTitle     = "eBay Comic Market Pulse"
	DefaultFeedDesc      = "Weekly summary of eBay sold comic listings"

	// maxEntriesPerPage is the largest page the Finding API will serve.
	maxEntriesPerPage = 100
)

// Config holds all application configuration.
type Config struct {
	Ebay        EbayConfig   `mapstructure:"ebay"`
	Fetch       FetchConfig  `mapstructure:"fetch"`
	Report      ReportConfig `mapstructure:"report"`
	Render      RenderConfig `mapstructure:"render"`
	Feed        FeedConfig   `mapstructure:"feed"`
	MetricsFile string       `mapstructure:"metrics_file"`
}

// EbayConfig identifies the upstream search endpoint and category.
type EbayConfig struct {
	AppID      string `mapstructure:"app_id"`
	Endpoint   string `mapstructure:"endpoint"`
	CategoryID string `mapstructure:"category_id"`
}

// FetchConfig shapes the single search request.
type FetchConfig struct {
	MaxEntries        int           `mapstructure:"max_entries"`
	LookbackDays      int           `mapstructure:"lookback_days"`
	EnforceDateWindow bool          `mapstructure:"enforce_date_window"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// ReportConfig holds the wording used in the headline and summary.
type ReportConfig struct {
	MarketName    string `mapstructure:"market_name"`
	CategoryLabel string `mapstructure:"category_label"`
}

// RenderConfig holds the output locations.
type RenderConfig struct {
	HTMLPath   string `mapstructure:"html_path"`
	RSSPath    string `mapstructure:"rss_path"`
	HTMLEscape bool   `mapstructure:"html_escape"`
}

// FeedConfig holds the static channel metadata and links of the RSS feed.
type FeedConfig struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	SiteURL     string `mapstructure:"site_url"`
	ReportURL   string `mapstructure:"report_url"`
}

// SetDefaults registers every known key so that environment variables can
// override keys that no config file mentions.
func SetDefaults(vip *viper.Viper) {
	vip.SetDefault("ebay.app_id", "")
	vip.SetDefault("ebay.endpoint", DefaultEndpoint)
	vip.SetDefault("ebay.category_id", DefaultCategoryID)

	vip.SetDefault("fetch.max_entries", DefaultMaxEntries)
	vip.SetDefault("fetch.lookback_days", DefaultLookbackDays)
	vip.SetDefault("fetch.enforce_date_window", false)
	vip.SetDefault("fetch.timeout", time.Duration(0))

	vip.SetDefault("report.market_name", DefaultMarketName)
	vip.SetDefault("report.category_label", DefaultCategoryLabel)

	vip.SetDefault("render.html_path", DefaultHTMLPath)
	vip.SetDefault("render.rss_path", DefaultRSSPath)
	vip.SetDefault("render.html_escape", true)

	vip.SetDefault("feed.title", DefaultFeedTitle)
	vip.SetDefault("feed.description", DefaultFeedDesc)
	vip.SetDefault("feed.site_url", DefaultSiteURL)
	vip.SetDefault("feed.report_url", DefaultReportURL)

	vip.SetDefault("metrics_file", "")
}

// Load layers defaults, an optional config file, the .env file, environment
// variables and any flags already bound on vip, and returns the result.
// An empty configFile searches the usual locations and tolerates absence.
func Load(vip *viper.Viper, configFile string, logger *utils.Logger) (*Config, error) {
	loadDotEnv(logger)
	SetDefaults(vip)

	if configFile != "" {
		vip.SetConfigFile(configFile)
	} else {
		vip.SetConfigName(AppName)
		vip.SetConfigType("yaml")
		vip.AddConfigPath(".")
		vip.AddConfigPath("/etc/" + AppName)
	}
	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return nil, fmt.Errorf("invalid configuration file: %w", err)
		}
		logger.Debug("[config] No configuration file, using defaults, environment and flags")
	} else {
		logger.Info("[config] Using configuration file %s", vip.ConfigFileUsed())
	}

	vip.SetEnvPrefix(strings.ReplaceAll(AppName, "-", "_"))
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()
	// The bare variable predates the prefixed one and is still honoured.
	if err := vip.BindEnv("ebay.app_id", "COMIC_MARKET_WATCH_EBAY_APP_ID", "EBAY_APP_ID"); err != nil {
		return nil, fmt.Errorf("could not bind environment variable: %w", err)
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail late in the run.
// The application id is checked by the fetcher, since a run fed from a
// saved response does not need one.
func (c *Config) Validate() error {
	if c.Ebay.Endpoint == "" {
		return errors.New("ebay endpoint must not be empty")
	}
	if c.Ebay.CategoryID == "" {
		return errors.New("ebay category id must not be empty")
	}
	if c.Fetch.MaxEntries < 1 || c.Fetch.MaxEntries > maxEntriesPerPage {
		return fmt.Errorf("max entries must be between 1 and %d, got %d", maxEntriesPerPage, c.Fetch.MaxEntries)
	}
	if c.Fetch.LookbackDays < 0 {
		return fmt.Errorf("lookback days must not be negative, got %d", c.Fetch.LookbackDays)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.Fetch.Timeout)
	}
	if c.Render.HTMLPath == "" || c.Render.RSSPath == "" {
		return errors.New("output paths must not be empty")
	}
	return nil
}

func loadDotEnv(logger *utils.Logger) {
	err := godotenv.Load()
	if err == nil {
		logger.Debug("[config] Loaded .env file")
		return
	}
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("[config] No .env file found, falling back to system env vars")
		return
	}
	logger.Warn("[config] Could not read .env file: %v", err)
}
