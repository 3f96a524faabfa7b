package database

import (
	"database/sql"
	"fmt"
	"strings"
)

type ArticleRepo struct {
	db *DB
}

var _ ArticleRepository = (*ArticleRepo)(nil)

func NewArticleRepo(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// ExistsByURL reports whether an article with the given URL has already been
// ingested. The URL is the dedup key across ingestion runs.
func (r *ArticleRepo) ExistsByURL(url string) (bool, error) {
	var id int64
	err := r.db.QueryRow("SELECT id FROM articles WHERE url = ? LIMIT 1", url).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return true, nil
}

// CreateArticle persists a fully assembled article and its category links in
// one transaction. Reading time is computed from content at write time.
func (r *ArticleRepo) CreateArticle(article NewArticle, categoryIDs []int64) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO articles (title, author, content, url, source, published_at, summary, approved, reading_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.Title, article.Author, article.Content, article.URL, article.Source,
		article.PublishedAt.UTC(), article.Summary, article.Approved, ReadingTime(article.Content))
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get article id: %w", err)
	}

	for _, categoryID := range categoryIDs {
		_, err := tx.Exec(`
			INSERT INTO article_categories (article_id, category_id)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, id, categoryID)
		if err != nil {
			return 0, fmt.Errorf("failed to link category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit article: %w", err)
	}

	return id, nil
}

func (r *ArticleRepo) GetArticle(id int64) (*Article, error) {
	var article Article
	err := r.db.QueryRow(`
		SELECT id, title, author, content, url, source, published_at,
		       COALESCE(summary, ''), approved, COALESCE(audio_path, ''),
		       reading_time, created_at
		FROM articles
		WHERE id = ?
	`, id).Scan(
		&article.ID, &article.Title, &article.Author, &article.Content,
		&article.URL, &article.Source, &article.PublishedAt,
		&article.Summary, &article.Approved, &article.AudioPath,
		&article.ReadingTime, &article.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	categories, err := r.articleCategories(id)
	if err != nil {
		return nil, err
	}
	article.Categories = categories

	return &article, nil
}

func (r *ArticleRepo) ListArticles(opts ListOptions) ([]Article, error) {
	where, args := buildArticleFilter(opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)

	rows, err := r.db.Query(`
		SELECT a.id, a.title, a.author, a.content, a.url, a.source, a.published_at,
		       COALESCE(a.summary, ''), a.approved, COALESCE(a.audio_path, ''),
		       a.reading_time, a.created_at
		FROM articles a
		`+where+`
		ORDER BY a.published_at DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		err := rows.Scan(
			&article.ID, &article.Title, &article.Author, &article.Content,
			&article.URL, &article.Source, &article.PublishedAt,
			&article.Summary, &article.Approved, &article.AudioPath,
			&article.ReadingTime, &article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepo) CountArticles(opts ListOptions) (int, error) {
	where, args := buildArticleFilter(opts)

	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles a "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (r *ArticleRepo) UpdateSummary(id int64, summary string) error {
	_, err := r.db.Exec("UPDATE articles SET summary = ? WHERE id = ?", summary, id)
	if err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	return nil
}

func (r *ArticleRepo) UpdateAudioPath(id int64, audioPath string) error {
	_, err := r.db.Exec("UPDATE articles SET audio_path = ? WHERE id = ?", audioPath, id)
	if err != nil {
		return fmt.Errorf("failed to update audio path: %w", err)
	}
	return nil
}

func (r *ArticleRepo) GetStats() (*Stats, error) {
	var stats Stats
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN summary IS NOT NULL AND summary != '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN audio_path IS NOT NULL AND audio_path != '' THEN 1 ELSE 0 END), 0)
		FROM articles
	`).Scan(&stats.Articles, &stats.Summarized, &stats.WithAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to get article stats: %w", err)
	}

	err = r.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&stats.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to get category count: %w", err)
	}

	return &stats, nil
}

func (r *ArticleRepo) articleCategories(articleID int64) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT c.name
		FROM categories c
		JOIN article_categories ac ON ac.category_id = c.id
		WHERE ac.article_id = ?
		ORDER BY c.name
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get article categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category names: %w", err)
	}

	return names, nil
}

func buildArticleFilter(opts ListOptions) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if opts.Category != "" {
		conditions = append(conditions, `a.id IN (
			SELECT ac.article_id FROM article_categories ac
			JOIN categories c ON c.id = ac.category_id
			WHERE c.name = ?)`)
		args = append(args, opts.Category)
	}

	if opts.Search != "" {
		conditions = append(conditions, "(a.title LIKE ? OR COALESCE(a.summary, '') LIKE ?)")
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}
