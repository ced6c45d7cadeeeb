package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storefront/models"
)

type ArticleRepository struct {
	db DBTX
}

func NewArticleRepository(db DBTX) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const articleSelect = `
	SELECT a.id, a.title, %s, a.pub_date, au.id, au.name, au.bio, c.id, c.name
	FROM articles a
	JOIN authors au ON au.id = a.author_id
	JOIN categories c ON c.id = a.category_id`

func articleQuery(withContent bool) string {
	content := "''"
	if withContent {
		content = "a.content"
	}
	return fmt.Sprintf(articleSelect, content)
}

func scanArticle(row pgx.Row) (models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.PubDate,
		&a.Author.ID, &a.Author.Name, &a.Author.Bio, &a.Category.ID, &a.Category.Name)
	a.Tags = []models.Tag{}
	return a, err
}

func (r *ArticleRepository) collect(ctx context.Context, rows pgx.Rows) ([]models.Article, error) {
	defer rows.Close()
	articles := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	return articles, r.attachTags(ctx, articles)
}

func (r *ArticleRepository) attachTags(ctx context.Context, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	ids := make([]int, len(articles))
	index := make(map[int]int, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		index[a.ID] = i
	}

	rows, err := r.db.Query(ctx, `
		SELECT at.article_id, t.id, t.name
		FROM article_tags at JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id = ANY($1)
		ORDER BY t.name`, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID int
		var t models.Tag
		if err := rows.Scan(&articleID, &t.ID, &t.Name); err != nil {
			return err
		}
		i := index[articleID]
		articles[i].Tags = append(articles[i].Tags, t)
	}
	return rows.Err()
}

// List omits article content.
func (r *ArticleRepository) List(ctx context.Context, limit, offset int) ([]models.Article, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM articles").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, articleQuery(false)+" ORDER BY a.id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	articles, err := r.collect(ctx, rows)
	return articles, total, err
}

func (r *ArticleRepository) GetByID(ctx context.Context, id int) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRow(ctx, articleQuery(true)+" WHERE a.id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	articles := []models.Article{a}
	if err := r.attachTags(ctx, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

// LatestPublished returns the n newest articles with a publish date.
func (r *ArticleRepository) LatestPublished(ctx context.Context, n int) ([]models.Article, error) {
	rows, err := r.db.Query(ctx,
		articleQuery(true)+" WHERE a.pub_date IS NOT NULL ORDER BY a.pub_date DESC LIMIT $1", n)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func setArticleTags(ctx context.Context, tx pgx.Tx, articleID int, tagIDs []int) error {
	if _, err := tx.Exec(ctx, "DELETE FROM article_tags WHERE article_id = $1", articleID); err != nil {
		return err
	}
	for _, tid := range tagIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			articleID, tid); err != nil {
			return fmt.Errorf("link tag %d: %w", tid, err)
		}
	}
	return nil
}

func (r *ArticleRepository) Create(ctx context.Context, a *models.Article, tagIDs []int) error {
	return translateWriteErr(inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO articles (title, content, author_id, category_id, pub_date)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			a.Title, a.Content, a.Author.ID, a.Category.ID, a.PubDate,
		).Scan(&a.ID)
		if err != nil {
			return err
		}
		return setArticleTags(ctx, tx, a.ID, tagIDs)
	}))
}

func (r *ArticleRepository) Update(ctx context.Context, a *models.Article, tagIDs []int) error {
	return translateWriteErr(inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE articles SET title = $1, content = $2, author_id = $3, category_id = $4, pub_date = $5
			WHERE id = $6`,
			a.Title, a.Content, a.Author.ID, a.Category.ID, a.PubDate, a.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if tagIDs == nil {
			return nil
		}
		return setArticleTags(ctx, tx, a.ID, tagIDs)
	}))
}

func (r *ArticleRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByTitle returns the oldest article with the given title.
func (r *ArticleRepository) FindByTitle(ctx context.Context, title string) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRow(ctx, articleQuery(true)+" WHERE a.title = $1 ORDER BY a.id LIMIT 1", title))
	if err != nil {
		return nil, notFound(err)
	}
	articles := []models.Article{a}
	if err := r.attachTags(ctx, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

func (r *ArticleRepository) AuthorByName(ctx context.Context, name string) (*models.Author, error) {
	var a models.Author
	err := r.db.QueryRow(ctx,
		"SELECT id, name, bio FROM authors WHERE name = $1 ORDER BY id LIMIT 1", name,
	).Scan(&a.ID, &a.Name, &a.Bio)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *ArticleRepository) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRow(ctx,
		"SELECT id, name FROM categories WHERE name = $1 ORDER BY id LIMIT 1", name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ArticleRepository) Tags(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.Query(ctx, "SELECT id, name FROM tags ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Tag, error) {
		var t models.Tag
		err := row.Scan(&t.ID, &t.Name)
		return t, err
	})
}
