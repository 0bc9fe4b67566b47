package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/clubboard/internal/model"
)

// messageSelect は著者情報をJOINしたメッセージ取得クエリの共通部分。
const messageSelect = `SELECT m.id, m.user_id, m.title, m.content, m.created_at,
       u.username, u.first_name, u.last_name
  FROM messages m
  JOIN users u ON u.id = m.user_id`

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// ListAll は全メッセージを新しい順に返す。
func (r *PostgresMessageRepo) ListAll(ctx context.Context) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		messageSelect+` ORDER BY m.created_at DESC, m.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return collectMessages(rows)
}

// ListByUserID は指定ユーザーのメッセージを新しい順に返す。
func (r *PostgresMessageRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		messageSelect+` WHERE m.user_id = $1 ORDER BY m.created_at DESC, m.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by user: %w", err)
	}
	return collectMessages(rows)
}

// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
func (r *PostgresMessageRepo) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	var m model.Message
	err := r.db.QueryRowContext(ctx,
		messageSelect+` WHERE m.id = $1`,
		id,
	).Scan(&m.ID, &m.UserID, &m.Title, &m.Content, &m.CreatedAt, &m.Username, &m.FirstName, &m.LastName)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message by ID: %w", err)
	}

	return &m, nil
}

// Create はメッセージを作成し、著者情報を含めて返す。
// INSERTとJOINを1往復で行うためCTEを使用する。
func (r *PostgresMessageRepo) Create(ctx context.Context, msg model.NewMessage) (*model.Message, error) {
	var m model.Message
	err := r.db.QueryRowContext(ctx,
		`WITH inserted AS (
		     INSERT INTO messages (user_id, title, content)
		     VALUES ($1, $2, $3)
		     RETURNING id, user_id, title, content, created_at
		 )
		 SELECT i.id, i.user_id, i.title, i.content, i.created_at,
		        u.username, u.first_name, u.last_name
		   FROM inserted i
		   JOIN users u ON u.id = i.user_id`,
		msg.UserID, msg.Title, msg.Content,
	).Scan(&m.ID, &m.UserID, &m.Title, &m.Content, &m.CreatedAt, &m.Username, &m.FirstName, &m.LastName)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &m, nil
}

// DeleteByID は指定IDのメッセージを削除する。
func (r *PostgresMessageRepo) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func collectMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Content, &m.CreatedAt, &m.Username, &m.FirstName, &m.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
