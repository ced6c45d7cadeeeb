package services

import (
	"context"

	"storefront/models"
)

type ProductStore interface {
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	BulkCreate(ctx context.Context, products []models.Product) error
	Update(ctx context.Context, p *models.Product) error
	SetArchived(ctx context.Context, ids []int, archived bool) (int64, error)
	Delete(ctx context.Context, id int) error
	AddImage(ctx context.Context, img *models.ProductImage) error
	Latest(ctx context.Context, n int) ([]models.Product, error)
	CountExisting(ctx context.Context, ids []int) (int, error)
}

type OrderStore interface {
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error)
	GetByID(ctx context.Context, id int) (*models.Order, error)
	Create(ctx context.Context, o *models.Order, productIDs []int) error
	BulkCreate(ctx context.Context, orders []models.Order, productIDs [][]int) error
	Update(ctx context.Context, o *models.Order, productIDs []int) error
	Delete(ctx context.Context, id int) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int) (*models.User, error)
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	GetWithProfile(ctx context.Context, id int) (*models.UserWithProfile, error)
	List(ctx context.Context, limit, offset int) ([]models.UserWithProfile, int, error)
	Update(ctx context.Context, u *models.User) error
	UpsertProfile(ctx context.Context, p *models.Profile) error
	ListGroups(ctx context.Context) ([]models.Group, error)
	CreateGroup(ctx context.Context, g *models.Group) error
}

type ArticleStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Article, int, error)
	GetByID(ctx context.Context, id int) (*models.Article, error)
	LatestPublished(ctx context.Context, n int) ([]models.Article, error)
	Create(ctx context.Context, a *models.Article, tagIDs []int) error
	Update(ctx context.Context, a *models.Article, tagIDs []int) error
	Delete(ctx context.Context, id int) error
}
