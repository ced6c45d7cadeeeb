package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"storefront/models"
)

var ErrDuplicate = errors.New("record already exists")

const userColumns = `id, username, email, password, first_name, last_name, is_staff, is_superuser, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts the user together with its empty profile.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, password, first_name, last_name, is_staff, is_superuser)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at`,
			u.Username, u.Email, u.Password, u.FirstName, u.LastName, u.IsStaff, u.IsSuperuser,
		).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		_, err = tx.Exec(ctx, "INSERT INTO profiles (user_id) VALUES ($1)", u.ID)
		return err
	})
}

func (r *UserRepository) permissions(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT codename FROM user_permissions WHERE user_id = $1
		UNION
		SELECT gp.codename FROM group_permissions gp
		JOIN user_groups ug ON ug.group_id = gp.group_id
		WHERE ug.user_id = $1
		ORDER BY 1`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if err != nil {
		return nil, notFound(err)
	}
	u.Permissions, err = r.permissions(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *UserRepository) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRow(ctx,
		"SELECT id, user_id, avatar, bio FROM profiles WHERE user_id = $1", userID,
	).Scan(&p.ID, &p.UserID, &p.Avatar, &p.Bio)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *UserRepository) GetWithProfile(ctx context.Context, id int) (*models.UserWithProfile, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &models.UserWithProfile{User: *u}
	p, err := r.GetProfile(ctx, id)
	switch {
	case err == nil:
		out.Profile = *p
	case errors.Is(err, ErrNotFound):
		out.Profile = models.Profile{UserID: id}
	default:
		return nil, err
	}
	return out, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.UserWithProfile, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.is_staff, u.is_superuser, u.created_at, u.updated_at,
			COALESCE(p.id, 0), COALESCE(p.avatar, ''), COALESCE(p.bio, '')
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.UserWithProfile{}
	for rows.Next() {
		var u models.UserWithProfile
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsStaff, &u.IsSuperuser,
			&u.CreatedAt, &u.UpdatedAt, &u.Profile.ID, &u.Profile.Avatar, &u.Profile.Bio); err != nil {
			return nil, 0, err
		}
		u.Profile.UserID = u.ID
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET email = $1, first_name = $2, last_name = $3, updated_at = NOW()
		WHERE id = $4`,
		u.Email, u.FirstName, u.LastName, u.ID)
	return err
}

// UpsertProfile creates the profile row for users that predate it.
func (r *UserRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO profiles (user_id, avatar, bio) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET avatar = EXCLUDED.avatar, bio = EXCLUDED.bio
		RETURNING id`,
		p.UserID, p.Avatar, p.Bio,
	).Scan(&p.ID)
}

func (r *UserRepository) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.id, g.name, COALESCE(array_agg(gp.codename ORDER BY gp.codename) FILTER (WHERE gp.codename IS NOT NULL), '{}')
		FROM groups g
		LEFT JOIN group_permissions gp ON gp.group_id = g.id
		GROUP BY g.id, g.name
		ORDER BY g.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Permissions); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *UserRepository) CreateGroup(ctx context.Context, g *models.Group) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "INSERT INTO groups (name) VALUES ($1) RETURNING id", g.Name).Scan(&g.ID); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		for _, code := range g.Permissions {
			if _, err := tx.Exec(ctx,
				"INSERT INTO group_permissions (group_id, codename) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				g.ID, code); err != nil {
				return err
			}
		}
		return nil
	})
}

// BindGroup adds the user to group g. A missing group is created, and the
// permissions of g are added to it.
func (r *UserRepository) BindGroup(ctx context.Context, userID int, g *models.Group) error {
	return translateWriteErr(inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO groups (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, g.Name).Scan(&g.ID)
		if err != nil {
			return err
		}
		for _, code := range g.Permissions {
			if _, err := tx.Exec(ctx,
				"INSERT INTO group_permissions (group_id, codename) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				g.ID, code); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			userID, g.ID)
		return err
	}))
}

func (r *UserRepository) GrantPermission(ctx context.Context, userID int, codename string) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO user_permissions (user_id, codename) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, codename)
	return translateWriteErr(err)
}
