package database

// ListOptions narrows and pages article listings.
type ListOptions struct {
	Category string // filter by category name, empty for all
	Search   string // substring match against title and summary
	Limit    int
	Offset   int
}

type ArticleRepository interface {
	ExistsByURL(url string) (bool, error)
	CreateArticle(article NewArticle, categoryIDs []int64) (int64, error)
	GetArticle(id int64) (*Article, error)
	ListArticles(opts ListOptions) ([]Article, error)
	CountArticles(opts ListOptions) (int, error)
	UpdateSummary(id int64, summary string) error
	UpdateAudioPath(id int64, audioPath string) error
	GetStats() (*Stats, error)
}

type CategoryRepository interface {
	GetOrCreate(name, description string) (*Category, error)
	GetByName(name string) (*Category, error)
	List() ([]Category, error)
	GetCategoryCount() (int, error)
}
