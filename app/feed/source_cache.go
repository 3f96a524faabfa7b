package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// defaultSources is the built-in BBC source set, used when the sources
// directory contains no configuration files.
var defaultSources = []Source{
	{Category: "Technology", Description: "Latest technology news and innovations", URL: "https://feeds.bbci.co.uk/news/technology/rss.xml"},
	{Category: "World", Description: "Global news and current events", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
	{Category: "Business", Description: "Business and economic news", URL: "https://feeds.bbci.co.uk/news/business/rss.xml"},
	{Category: "Science", Description: "Science and research news", URL: "https://feeds.bbci.co.uk/news/science_and_environment/rss.xml"},
	{Category: "Health", Description: "Health and medical news", URL: "https://feeds.bbci.co.uk/news/health/rss.xml"},
	{Category: "Sports", Description: "Sports news and updates", URL: "http://feeds.bbci.co.uk/sport/rss.xml"},
	{Category: "Entertainment", Description: "Movie, music, and celebrity news", URL: "https://feeds.bbci.co.uk/news/entertainment/rss.xml"},
	{Category: "Politics", Description: "Government news, policy, and elections", URL: "https://feeds.bbci.co.uk/news/politics/rss.xml"},
	{Category: "Lifestyle", Description: "Fashion, food, travel, and wellness news", URL: "https://feeds.bbci.co.uk/news/lifestyle/rss.xml"},
	{Category: "Environment", Description: "News on climate change and conservation", URL: "https://feeds.bbci.co.uk/news/environment/rss.xml"},
	{Category: "Education", Description: "News about schools and educational trends", URL: "https://feeds.bbci.co.uk/news/education/rss.xml"},
	{Category: "Gaming", Description: "Video game news, reviews, and esports", URL: "https://feeds.bbci.co.uk/news/gaming/rss.xml"},
}

type SourceCache struct {
	sourcesDir string
	cache      map[string]*Source
	mu         sync.RWMutex
}

func NewSourceCache(sourcesDir string) *SourceCache {
	return &SourceCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Source),
	}
}

// Run loads all source configurations from the sources directory. When the
// directory is missing or empty the built-in default set is used instead.
func (sc *SourceCache) Run() error {
	files, err := sc.listConfigFiles()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		sc.loadDefaults()
		slog.Debug("No source configuration files found, using built-in defaults", "count", sc.GetSourceCount())
		return nil
	}

	for _, file := range files {
		source, err := sc.parseSource(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := sc.validateSource(source); err != nil {
			return fmt.Errorf("invalid source config %s: %w", file, err)
		}

		sc.mu.Lock()
		sc.cache[source.Category] = source
		sc.mu.Unlock()

		slog.Debug("Source configuration loaded", "category", source.Category, "url", source.URL, "enabled", source.Settings.Enabled)
	}

	return nil
}

func (sc *SourceCache) GetSource(category string) (*Source, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	source, ok := sc.cache[category]
	if !ok {
		return nil, fmt.Errorf("source for category '%s' not found", category)
	}
	return source, nil
}

func (sc *SourceCache) GetSources() []*Source {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sources := make([]*Source, 0, len(sc.cache))
	for _, s := range sc.cache {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Category < sources[j].Category
	})
	return sources
}

func (sc *SourceCache) GetEnabledSources() []*Source {
	sources := sc.GetSources()
	enabled := make([]*Source, 0, len(sources))
	for _, s := range sources {
		if s.Settings.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

func (sc *SourceCache) GetSourceCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func (sc *SourceCache) listConfigFiles() ([]string, error) {
	if _, err := os.Stat(sc.sourcesDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(sc.sourcesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}

	yamlFiles, err := filepath.Glob(filepath.Join(sc.sourcesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	return append(files, yamlFiles...), nil
}

func (sc *SourceCache) loadDefaults() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for _, s := range defaultSources {
		source := s
		source.Settings.Enabled = true
		sc.applyDefaults(&source)
		sc.cache[source.Category] = &source
	}
}

func (sc *SourceCache) parseSource(configFile string) (*Source, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if source.Category == "" {
		// Derive the category from the filename
		base := filepath.Base(configFile)
		source.Category = strings.TrimSuffix(strings.TrimSuffix(base, ".yml"), ".yaml")
	}

	sc.applyDefaults(&source)

	return &source, nil
}

func (sc *SourceCache) applyDefaults(source *Source) {
	if source.Settings.MaxEntries == 0 {
		source.Settings.MaxEntries = 7
	}
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = 30
	}
	if source.Description == "" {
		source.Description = source.Category + " news"
	}
}

func (sc *SourceCache) validateSource(source *Source) error {
	if source == nil {
		return fmt.Errorf("source is nil")
	}
	if source.Category == "" {
		return fmt.Errorf("category is required")
	}
	if source.URL == "" {
		return fmt.Errorf("feed URL is required")
	}
	if source.Settings.MaxEntries < 0 {
		return fmt.Errorf("max entries must be non-negative")
	}
	if source.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}
