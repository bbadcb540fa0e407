package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lumenhq/adminapi/internal/db"
	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/listquery"
)

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UserColumns maps API field names to users table columns. It doubles as the
// column allowlist for the list-query predicate builder.
var UserColumns = map[string]string{
	"id":        "id",
	"email":     "email",
	"name":      "name",
	"role":      "role",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

const userSelect = `SELECT id, organization_id, email, name, role, status, created_at, updated_at, deleted_at FROM users`

// userRepository implements UserRepository
type userRepository struct {
	conn *db.Connection
}

// NewUserRepository creates a new user repository
func NewUserRepository(conn *db.Connection) UserRepository {
	return &userRepository{conn: conn}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Name, &u.Role, &u.Status,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.conn.Pool.QueryRow(ctx, `
		INSERT INTO users (id, organization_id, email, name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, organization_id, email, name, role, status, created_at, updated_at, deleted_at`,
		user.ID, user.OrganizationID, user.Email, user.Name, user.Role, user.Status,
		user.CreatedAt, user.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return getUser(ctx, r.conn.Pool, id)
}

func getUser(ctx context.Context, q querier, id uuid.UUID) (domain.User, error) {
	return scanUser(q.QueryRow(ctx, userSelect+` WHERE id = $1`, id))
}

// List executes a validated list query with keyset pagination. It fetches
// limit+1 rows to detect whether a further page exists without a count query.
func (r *userRepository) List(ctx context.Context, organizationID *uuid.UUID, query listquery.ListQuery) (UserPage, error) {
	builder := newSQLBuilder(UserColumns)
	conds := []string{"deleted_at IS NULL"}
	if organizationID != nil {
		conds = append(conds, "organization_id = "+builder.bind(*organizationID))
	}
	for _, expr := range query.Filters {
		conds = append(conds, builder.filterSQL(expr))
	}
	if query.Q != "" {
		pattern := "%" + query.Q + "%"
		conds = append(conds, "(email ILIKE "+builder.bind(pattern)+" OR name ILIKE "+builder.bind(pattern)+")")
	}
	if query.Cursor != nil {
		conds = append(conds, listquery.KeysetAfter(builder.primitives(), query.Sort, query.Cursor.After))
	}

	sql := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %s",
		userSelect,
		joinConds(conds),
		builder.orderBySQL(query.Sort),
		builder.bind(query.Limit+1),
	)

	rows, err := r.conn.Pool.Query(ctx, sql, builder.args...)
	if err != nil {
		return UserPage{}, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return UserPage{}, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return UserPage{}, fmt.Errorf("failed to iterate users: %w", err)
	}

	page := UserPage{Users: users}
	if len(users) > query.Limit {
		page.Users = users[:query.Limit]
		page.HasMore = true
		page.NextCursor = listquery.EncodeCursor(listquery.Payload{
			Sort:  query.Normalized,
			After: userAfterValues(page.Users[len(page.Users)-1], query.Sort),
		})
	}
	if page.Users == nil {
		page.Users = []domain.User{}
	}
	return page, nil
}

// userAfterValues extracts the cursor after-values for a row under a sort.
func userAfterValues(u domain.User, sort []listquery.SortField) map[string]any {
	after := make(map[string]any, len(sort))
	for _, key := range sort {
		switch key.Field {
		case "id":
			after[key.Field] = u.ID.String()
		case "email":
			after[key.Field] = u.Email
		case "name":
			after[key.Field] = u.Name
		case "role":
			after[key.Field] = string(u.Role)
		case "status":
			after[key.Field] = string(u.Status)
		case "createdAt":
			after[key.Field] = listquery.FormatDatetime(u.CreatedAt)
		case "updatedAt":
			after[key.Field] = listquery.FormatDatetime(u.UpdatedAt)
		default:
			panic(fmt.Sprintf("repository: no after-value mapping for sort field %q", key.Field))
		}
	}
	return after
}

// CreateInitialAdminIfNone creates the bootstrap admin inside a transaction
// that locks the qualifying set first, so two racing bootstraps cannot both
// insert one.
func (r *userRepository) CreateInitialAdminIfNone(ctx context.Context, user domain.User) (bool, error) {
	created := false
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		count, err := lockActiveAdmins(ctx, tx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		user.Role = domain.RoleAdmin
		user.Status = domain.StatusActive
		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, organization_id, email, name, role, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			user.ID, user.OrganizationID, user.Email, user.Name, user.Role, user.Status,
			user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create initial admin: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// lockActiveAdmins locks every row in the qualifying set and returns its size.
// The subquery form is required because FOR UPDATE cannot apply to an aggregate.
func lockActiveAdmins(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT id FROM users
			WHERE role = 'admin' AND status = 'active' AND deleted_at IS NULL
			FOR UPDATE
		) AS locked`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to lock active admins: %w", err)
	}
	return count, nil
}

func joinConds(conds []string) string {
	result := conds[0]
	for _, cond := range conds[1:] {
		result += " AND " + cond
	}
	return result
}
