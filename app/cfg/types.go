package cfg

type Cfg struct {
	// Storage configuration
	DBPath     string
	MediaDir   string
	MediaURL   string
	SourcesDir string

	// Application configuration
	Port              string
	APIAccessKey      string
	WorkerCount       int
	SchedulerInterval int
	EntryLimit        int
	ExtractTimeout    int
	PolitenessDelay   int

	// Summarization configuration
	SummaryRetries    int
	SummaryBackoff    int
	SummaryRatePerMin int
	GeminiAPIKey      string
	GeminiModel       string
	CohereAPIKey      string
	CohereModel       string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
