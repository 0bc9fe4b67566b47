package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/clubboard/internal/database"
	"github.com/hitoshi/clubboard/internal/model"
)

const userColumns = `id, username, first_name, last_name, password, is_member, is_admin, created_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db     *sql.DB
	hasher PasswordHasher
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB, hasher PasswordHasher) *PostgresUserRepo {
	return &PostgresUserRepo{db: db, hasher: hasher}
}

// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		username,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// ListSafe はパスワードを除いた全ユーザーをユーザー名順に返す。
func (r *PostgresUserRepo) ListSafe(ctx context.Context) ([]model.SafeUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, first_name, last_name, is_member, is_admin, created_at
		 FROM users
		 ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.SafeUser, 0)
	for rows.Next() {
		var u model.SafeUser
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.IsMember, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Create はパスワードをハッシュ化してユーザーを作成する。
// 一意制約違反はmodel.ErrDuplicateEntityとして返す。
func (r *PostgresUserRepo) Create(ctx context.Context, reg model.Registration) (*model.User, error) {
	hashed, err := r.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, first_name, last_name, password)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		reg.Username, reg.FirstName, reg.LastName, hashed,
	))
	if database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("failed to create user %q: %w", reg.Username, model.ErrDuplicateEntity)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Update は指定されたフィールドのみを更新し、更新後のユーザーを返す。
// SET句はUserUpdateのnilでないフィールドから動的に組み立てる。
func (r *PostgresUserRepo) Update(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	if upd.IsEmpty() {
		return nil, model.ErrNoFieldsProvided
	}

	var (
		setClauses []string
		args       []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Username != nil {
		set("username", *upd.Username)
	}
	if upd.FirstName != nil {
		set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		set("last_name", *upd.LastName)
	}
	if upd.Password != nil {
		hashed, err := r.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		set("password", hashed)
	}
	if upd.IsMember != nil {
		set("is_member", *upd.IsMember)
	}
	if upd.IsAdmin != nil {
		set("is_admin", *upd.IsAdmin)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), userColumns,
	)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("failed to update user %d: %w", id, model.ErrDuplicateEntity)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// messages、sessionsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// scanUser は1行をUserにマッピングする。行が存在しない場合はnil, nilを返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName,
		&user.Password, &user.IsMember, &user.IsAdmin, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
