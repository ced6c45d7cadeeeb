// Package servicetest provides in-memory stores for service and handler tests.
package servicetest

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"sync"
	"time"

	"storefront/models"
	"storefront/repositories"
)

type Products struct {
	mu        sync.Mutex
	Rows      []models.Product
	Images    []models.ProductImage
	ListCalls int
}

func (f *Products) List(_ context.Context, filter models.ProductFilter) ([]models.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	out := []models.Product{}
	for _, p := range f.Rows {
		if !filter.IncludeArchived && p.Archived {
			continue
		}
		if filter.Archived != nil && p.Archived != *filter.Archived {
			continue
		}
		out = append(out, p)
	}
	total := len(out)
	if filter.Limit > 0 {
		end := min(filter.Offset+filter.Limit, len(out))
		if filter.Offset >= len(out) {
			return []models.Product{}, total, nil
		}
		out = out[filter.Offset:end]
	}
	return out, total, nil
}

func (f *Products) GetByID(_ context.Context, id int) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Rows {
		if p.ID == id {
			for _, img := range f.Images {
				if img.ProductID == id {
					p.Images = append(p.Images, img)
				}
			}
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *Products) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = 1
	for _, row := range f.Rows {
		p.ID = max(p.ID, row.ID+1)
	}
	p.CreatedAt = time.Now()
	f.Rows = append(f.Rows, *p)
	return nil
}

func (f *Products) BulkCreate(ctx context.Context, products []models.Product) error {
	for i := range products {
		if err := f.Create(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *Products) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Rows {
		if f.Rows[i].ID == p.ID {
			row := *p
			row.Images = nil
			f.Rows[i] = row
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *Products) SetArchived(_ context.Context, ids []int, archived bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.Rows {
		if slices.Contains(ids, f.Rows[i].ID) {
			f.Rows[i].Archived = archived
			n++
		}
	}
	return n, nil
}

func (f *Products) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Rows {
		if f.Rows[i].ID == id {
			f.Rows = slices.Delete(f.Rows, i, i+1)
			f.Images = slices.DeleteFunc(f.Images, func(img models.ProductImage) bool { return img.ProductID == id })
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *Products) AddImage(_ context.Context, img *models.ProductImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	img.ID = len(f.Images) + 1
	f.Images = append(f.Images, *img)
	return nil
}

func (f *Products) Latest(_ context.Context, n int) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.Rows)
	slices.Reverse(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *Products) CountExisting(_ context.Context, ids []int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.Rows {
		if slices.Contains(ids, p.ID) {
			n++
		}
	}
	return n, nil
}

type Orders struct {
	mu       sync.Mutex
	products *Products
	Rows     []models.Order
	Links    map[int][]int
	FailBulk bool
}

func NewOrders(products *Products) *Orders {
	return &Orders{products: products, Links: map[int][]int{}}
}

func (f *Orders) withProducts(o models.Order) models.Order {
	o.Products = nil
	for _, pid := range f.Links[o.ID] {
		if p, err := f.products.GetByID(context.Background(), pid); err == nil {
			p.Images = nil
			o.Products = append(o.Products, *p)
		}
	}
	return o
}

func (f *Orders) List(_ context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.Rows {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.DeliveryAddress != nil && o.DeliveryAddress != *filter.DeliveryAddress {
			continue
		}
		if filter.Promocode != nil && o.Promocode != *filter.Promocode {
			continue
		}
		out = append(out, f.withProducts(o))
	}
	return out, len(out), nil
}

func (f *Orders) GetByID(_ context.Context, id int) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.Rows {
		if o.ID == id {
			o = f.withProducts(o)
			return &o, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *Orders) Create(_ context.Context, o *models.Order, productIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = len(f.Rows) + 1
	o.CreatedAt = time.Now()
	row := *o
	row.Products = nil
	f.Rows = append(f.Rows, row)
	f.Links[o.ID] = slices.Clone(productIDs)
	return nil
}

func (f *Orders) BulkCreate(ctx context.Context, orders []models.Order, productIDs [][]int) error {
	if f.FailBulk {
		return fmt.Errorf("insert order row 2: %w", repositories.ErrBadReference)
	}
	for i := range orders {
		if err := f.Create(ctx, &orders[i], productIDs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *Orders) Update(_ context.Context, o *models.Order, productIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Rows {
		if f.Rows[i].ID == o.ID {
			row := *o
			row.Products = nil
			f.Rows[i] = row
			if productIDs != nil {
				f.Links[o.ID] = slices.Clone(productIDs)
			}
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *Orders) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Rows {
		if f.Rows[i].ID == id {
			f.Rows = slices.Delete(f.Rows, i, i+1)
			delete(f.Links, id)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type Users struct {
	mu          sync.Mutex
	Users       []models.User
	Profiles    map[int]models.Profile
	Groups      []models.Group
	Memberships map[int][]int
}

func NewUsers(users ...models.User) *Users {
	f := &Users{Profiles: map[int]models.Profile{}}
	for _, u := range users {
		f.Users = append(f.Users, u)
		f.Profiles[u.ID] = models.Profile{ID: u.ID, UserID: u.ID}
	}
	return f
}

func (f *Users) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Users {
		if existing.Username == u.Username {
			return fmt.Errorf("duplicate: %w", repositories.ErrDuplicate)
		}
	}
	u.ID = len(f.Users) + 1
	f.Users = append(f.Users, *u)
	f.Profiles[u.ID] = models.Profile{ID: u.ID, UserID: u.ID}
	return nil
}

func (f *Users) find(match func(models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.Username == username })
}

func (f *Users) FindByID(_ context.Context, id int) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.ID == id })
}

func (f *Users) GetProfile(_ context.Context, userID int) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Profiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (f *Users) GetWithProfile(ctx context.Context, id int) (*models.UserWithProfile, error) {
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, _ := f.GetProfile(ctx, id)
	out := &models.UserWithProfile{User: *u}
	if p != nil {
		out.Profile = *p
	}
	return out, nil
}

func (f *Users) List(ctx context.Context, limit, offset int) ([]models.UserWithProfile, int, error) {
	out := []models.UserWithProfile{}
	for _, u := range f.Users {
		wp, _ := f.GetWithProfile(ctx, u.ID)
		out = append(out, *wp)
	}
	total := len(out)
	if offset >= len(out) {
		return []models.UserWithProfile{}, total, nil
	}
	return out[offset:min(offset+limit, len(out))], total, nil
}

func (f *Users) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Users {
		if f.Users[i].ID == u.ID {
			f.Users[i] = *u
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *Users) UpsertProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = p.UserID
	}
	f.Profiles[p.UserID] = *p
	return nil
}

func (f *Users) ListGroups(context.Context) ([]models.Group, error) {
	return slices.Clone(f.Groups), nil
}

func (f *Users) CreateGroup(_ context.Context, g *models.Group) error {
	for _, existing := range f.Groups {
		if existing.Name == g.Name {
			return repositories.ErrDuplicate
		}
	}
	g.ID = len(f.Groups) + 1
	f.Groups = append(f.Groups, *g)
	return nil
}

// Storage records saved and deleted files. Saving a file named FailOn, or
// any file when FailOn is "*", returns ErrSave.
// BindGroup creates the named group when missing and records the membership
// in Memberships.
func (f *Users) BindGroup(_ context.Context, userID int, g *models.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := slices.IndexFunc(f.Groups, func(existing models.Group) bool { return existing.Name == g.Name })
	if idx < 0 {
		g.ID = len(f.Groups) + 1
		f.Groups = append(f.Groups, models.Group{ID: g.ID, Name: g.Name})
		idx = len(f.Groups) - 1
	}
	g.ID = f.Groups[idx].ID
	for _, code := range g.Permissions {
		if !slices.Contains(f.Groups[idx].Permissions, code) {
			f.Groups[idx].Permissions = append(f.Groups[idx].Permissions, code)
		}
	}
	if f.Memberships == nil {
		f.Memberships = map[int][]int{}
	}
	if !slices.Contains(f.Memberships[userID], g.ID) {
		f.Memberships[userID] = append(f.Memberships[userID], g.ID)
	}
	return nil
}

func (f *Users) GrantPermission(_ context.Context, userID int, codename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Users {
		if f.Users[i].ID == userID {
			if !slices.Contains(f.Users[i].Permissions, codename) {
				f.Users[i].Permissions = append(f.Users[i].Permissions, codename)
			}
			return nil
		}
	}
	return repositories.ErrBadReference
}

type Storage struct {
	mu      sync.Mutex
	Saved   []string
	Deleted []string
	FailOn  string
}

var ErrSave = errors.New("storage unavailable")

func (f *Storage) Save(_ context.Context, fh *multipart.FileHeader, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailOn == "*" || f.FailOn == fh.Filename {
		return "", ErrSave
	}
	url := "/uploads/" + dir + "/" + fh.Filename
	f.Saved = append(f.Saved, url)
	return url, nil
}

func (f *Storage) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, ref)
	return nil
}

type Articles struct {
	Rows       []models.Article
	Authors    []models.Author
	Categories []models.Category
	TagRows    []models.Tag
}

func (f *Articles) List(_ context.Context, limit, offset int) ([]models.Article, int, error) {
	if offset >= len(f.Rows) {
		return []models.Article{}, len(f.Rows), nil
	}
	return f.Rows[offset:min(offset+limit, len(f.Rows))], len(f.Rows), nil
}

func (f *Articles) GetByID(_ context.Context, id int) (*models.Article, error) {
	for _, a := range f.Rows {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *Articles) LatestPublished(_ context.Context, n int) ([]models.Article, error) {
	out := []models.Article{}
	for _, a := range f.Rows {
		if a.PubDate != nil && len(out) < n {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *Articles) Create(_ context.Context, a *models.Article, tagIDs []int) error {
	a.ID = len(f.Rows) + 1
	for _, id := range tagIDs {
		a.Tags = append(a.Tags, models.Tag{ID: id})
	}
	f.Rows = append(f.Rows, *a)
	return nil
}

func (f *Articles) Update(_ context.Context, a *models.Article, tagIDs []int) error {
	for i := range f.Rows {
		if f.Rows[i].ID == a.ID {
			if tagIDs != nil {
				a.Tags = []models.Tag{}
				for _, id := range tagIDs {
					a.Tags = append(a.Tags, models.Tag{ID: id})
				}
			}
			f.Rows[i] = *a
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *Articles) Delete(_ context.Context, id int) error {
	for i := range f.Rows {
		if f.Rows[i].ID == id {
			f.Rows = append(f.Rows[:i], f.Rows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *Articles) FindByTitle(_ context.Context, title string) (*models.Article, error) {
	for _, a := range f.Rows {
		if a.Title == title {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *Articles) AuthorByName(_ context.Context, name string) (*models.Author, error) {
	for _, a := range f.Authors {
		if a.Name == name {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *Articles) CategoryByName(_ context.Context, name string) (*models.Category, error) {
	for _, c := range f.Categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *Articles) Tags(context.Context) ([]models.Tag, error) {
	return slices.Clone(f.TagRows), nil
}
