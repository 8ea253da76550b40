package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the admin endpoints (optional)"`

	// Persistent data
	DataDir       string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the aggregate and cursor documents"`
	ProvidersFile string `long:"providers-file" env:"PROVIDERS_FILE" default:"./providers.yml" description:"YAML file describing the streaming providers to crawl"`
	CacheDBPath   string `long:"cache-db" env:"CACHE_DB" default:"./data/cache.db" description:"SQLite file backing the TTL response cache"`

	// Upstream catalog API
	TmdbBaseURL   string `long:"tmdb-base-url" env:"TMDB_BASE_URL" default:"https://api.themoviedb.org" description:"Base URL of the movie catalog API"`
	TmdbReadToken string `long:"tmdb-read-token" env:"TMDB_READ_TOKEN" description:"Bearer token for the movie catalog API (required)" required:"true"`
	WatchRegion   string `long:"watch-region" env:"WATCH_REGION" default:"GB" description:"Watch region passed to discover queries"`
	StartYear     int    `long:"start-year" env:"START_YEAR" default:"2020" description:"Oldest release year harvested from provider catalogs"`
	CacheTTL      int    `long:"cache-ttl" env:"CACHE_TTL" default:"86400" description:"Seconds before a completed provider crawl is considered stale"`

	// Background crawl
	AutoCrawl      bool `long:"auto-crawl" env:"AUTO_CRAWL" description:"Advance stale providers from a background loop instead of relying on client polling"`
	CrawlInterval  int  `long:"crawl-interval" env:"CRAWL_INTERVAL" default:"60" description:"Background crawl scheduler interval in seconds"`
	WorkerCount    int  `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers executing crawl tasks"`
	CrawlChunkSize int  `long:"crawl-chunk-size" env:"CRAWL_CHUNK_SIZE" default:"200" description:"Chunk budget used by background crawl tasks"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Stream Comb/1.0" description:"User agent string for upstream requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/London)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:           raw.Port,
		APIAccessKey:   raw.APIAccessKey,
		DataDir:        raw.DataDir,
		ProvidersFile:  raw.ProvidersFile,
		CacheDBPath:    raw.CacheDBPath,
		TmdbBaseURL:    raw.TmdbBaseURL,
		TmdbReadToken:  raw.TmdbReadToken,
		WatchRegion:    raw.WatchRegion,
		StartYear:      raw.StartYear,
		CacheTTL:       raw.CacheTTL,
		AutoCrawl:      raw.AutoCrawl,
		CrawlInterval:  raw.CrawlInterval,
		WorkerCount:    raw.WorkerCount,
		CrawlChunkSize: raw.CrawlChunkSize,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
