package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func TestWhereBuilderNumbersPlaceholders(t *testing.T) {
	w := &whereBuilder{}
	w.add("archived = false")
	w.add("(name ILIKE ? OR description ILIKE ?)", "%a%", "%a%")
	w.add("price = ?", 10)

	assert.Equal(t, " WHERE archived = false AND (name ILIKE $1 OR description ILIKE $2) AND price = $3", w.sql())
	assert.Equal(t, " LIMIT $4 OFFSET $5", paginate(20, 40, w))
	assert.Equal(t, []any{"%a%", "%a%", 10, 20, 40}, w.args)
	assert.Empty(t, (&whereBuilder{}).sql())
}

func TestOrderByIgnoresUnknownFields(t *testing.T) {
	assert.Equal(t, " ORDER BY price DESC, name ASC", orderBy([]string{"-price", "name", "secret"}, productOrdering, "id ASC"))
	assert.Equal(t, " ORDER BY id ASC", orderBy([]string{"password"}, productOrdering, "id ASC"))
	assert.Equal(t, " ORDER BY name ASC, price ASC", orderBy(nil, productOrdering, "name ASC, price ASC"))
}

func TestProductListHidesArchivedByDefault(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM products WHERE archived = false AND (name ILIKE $1 OR description ILIKE $2)")).
		WithArgs("%lap%", "%lap%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(q("FROM products WHERE archived = false AND (name ILIKE $1 OR description ILIKE $2) ORDER BY price DESC LIMIT $3 OFFSET $4")).
		WithArgs("%lap%", "%lap%", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "price", "discount", "created_at", "created_by", "archived", "preview"}))

	products, total, err := repo.List(context.Background(), models.ProductFilter{
		Search:   "lap",
		Ordering: []string{"-price"},
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%lap%", containsPattern("lap"))
	assert.Equal(t, `%50\%\_off%`, containsPattern("50%_off"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

func TestOrderSearchMatchesWildcardsLiterally(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM orders WHERE (delivery_address ILIKE $1 OR CAST(user_id AS TEXT) LIKE $2)")).
		WithArgs(`%flat\_1%`, `%flat\_1%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(q("FROM orders WHERE (delivery_address ILIKE $1 OR CAST(user_id AS TEXT) LIKE $2) ORDER BY id ASC")).
		WithArgs(`%flat\_1%`, `%flat\_1%`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "delivery_address", "promocode", "created_at", "user_id", "receipt"}))

	_, _, err := repo.List(context.Background(), models.OrderFilter{Search: "flat_1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec(q("DELETE FROM products WHERE id = $1")).WithArgs(4).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(q("DELETE FROM products WHERE id = $1")).WithArgs(9).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(q("DELETE FROM products WHERE id = $1")).WithArgs(2).WillReturnError(&pgconn.PgError{Code: "23503"})

	require.NoError(t, repo.Delete(context.Background(), 4))
	assert.ErrorIs(t, repo.Delete(context.Background(), 9), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), ErrProtected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductSetArchivedIsAnUpdate(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec(q("UPDATE products SET archived = $1 WHERE id = ANY($2)")).
		WithArgs(true, []int{1, 2}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.SetArchived(context.Background(), []int{1, 2}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductGetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery(q("FROM products WHERE id = $1")).WithArgs(9).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateLinksProductsInTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO orders (delivery_address, promocode, user_id, receipt)")).
		WithArgs("Main st 1", "SALE", 4, "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))
	mock.ExpectExec(q("DELETE FROM order_products WHERE order_id = $1")).
		WithArgs(7).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(q("INSERT INTO order_products (order_id, product_id)")).
		WithArgs(7, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q("INSERT INTO order_products (order_id, product_id)")).
		WithArgs(7, 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	o := &models.Order{DeliveryAddress: "Main st 1", Promocode: "SALE", UserID: 4}
	require.NoError(t, repo.Create(context.Background(), o, []int{1, 3}))
	assert.Equal(t, 7, o.ID)
	assert.Equal(t, now, o.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateMissingUserIsBadReference(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO orders")).
		WithArgs("Main st 1", "", 99, "").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "orders_user_id_fkey"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Order{DeliveryAddress: "Main st 1", UserID: 99}, nil)
	assert.ErrorIs(t, err, ErrBadReference)
	assert.Contains(t, err.Error(), "orders_user_id_fkey")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderDeleteIsHard(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectExec(q("DELETE FROM orders WHERE id = $1")).WithArgs(5).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(q("DELETE FROM orders WHERE id = $1")).WithArgs(6).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(q("DELETE FROM orders WHERE id = $1")).WithArgs(8).WillReturnError(&pgconn.PgError{Code: "23503"})

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 8), ErrProtected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderListFiltersByUser(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM orders WHERE user_id = $1")).
		WithArgs(4).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(q("FROM orders WHERE user_id = $1 ORDER BY id ASC")).
		WithArgs(4).
		WillReturnRows(pgxmock.NewRows([]string{"id", "delivery_address", "promocode", "created_at", "user_id", "receipt"}))

	userID := 4
	orders, total, err := repo.List(context.Background(), models.OrderFilter{UserID: &userID, Ordering: []string{"pk"}})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByUsernameLoadsPermissions(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(q("FROM users WHERE username = $1")).
		WithArgs("ann").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password", "first_name", "last_name", "is_staff", "is_superuser", "created_at", "updated_at"}).
			AddRow(1, "ann", "ann@example.com", "hash", "Ann", "Lee", false, false, now, now))
	mock.ExpectQuery(q("SELECT codename FROM user_permissions WHERE user_id = $1")).
		WithArgs(1).
		WillReturnRows(pgxmock.NewRows([]string{"codename"}).AddRow("add_product").AddRow("view_order"))

	user, err := repo.FindByUsername(context.Background(), "ann")
	require.NoError(t, err)
	assert.Equal(t, []string{"add_product", "view_order"}, user.Permissions)
	assert.True(t, user.HasPerm(models.PermViewOrder))
	assert.False(t, user.HasPerm(models.PermChangeProduct))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO users")).
		WithArgs("ann", "", "hash", "", "", false, false).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "ann", Password: "hash"})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserBindGroupCreatesGroupAndMembership(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO groups (name) VALUES ($1)")).
		WithArgs("profile_manager").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(q("INSERT INTO group_permissions (group_id, codename) VALUES ($1, $2) ON CONFLICT DO NOTHING")).
		WithArgs(3, models.PermViewProfile).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q("INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING")).
		WithArgs(7, 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	g := &models.Group{Name: "profile_manager", Permissions: []string{models.PermViewProfile}}
	require.NoError(t, repo.BindGroup(context.Background(), 7, g))
	assert.Equal(t, 3, g.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleAuthorByNameNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewArticleRepository(mock)

	mock.ExpectQuery(q("SELECT id, name, bio FROM authors WHERE name = $1")).
		WithArgs("igor").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.AuthorByName(context.Background(), "igor")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
