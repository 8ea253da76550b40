package cfg

type Cfg struct {
	// HTTP server
	Port         string
	APIAccessKey string

	// Persistent data
	DataDir       string
	ProvidersFile string
	CacheDBPath   string

	// Upstream catalog API
	TmdbBaseURL   string
	TmdbReadToken string
	WatchRegion   string
	StartYear     int
	CacheTTL      int

	// Background crawl
	AutoCrawl      bool
	CrawlInterval  int
	WorkerCount    int
	CrawlChunkSize int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
