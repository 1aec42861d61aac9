package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loan-advisor/internal/models"
)

// PostgresConversations stores conversation headers in `conversations` and
// the transcript in `conversation_messages`, ordered by a serial id.
type PostgresConversations struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresConversations(db *sql.DB) *PostgresConversations {
	return &PostgresConversations{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const (
	queryActiveConversation = `SELECT id, user_id, language, context, is_active, created_at, updated_at
		FROM conversations WHERE user_id = $1 AND is_active = TRUE
		ORDER BY updated_at DESC LIMIT 1`
	queryConversationMessages = `SELECT role, content, is_voice, created_at
		FROM conversation_messages WHERE conversation_id = $1 ORDER BY id ASC`
	execDeactivateConversations = `UPDATE conversations SET is_active = FALSE, updated_at = $2
		WHERE user_id = $1 AND is_active = TRUE`
	execInsertConversation = `INSERT INTO conversations (id, user_id, language, context, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, TRUE, $5, $6)`
	execInsertMessage = `INSERT INTO conversation_messages (conversation_id, role, content, is_voice, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	execTouchConversation = `UPDATE conversations SET updated_at = $2 WHERE id = $1`
	execSaveContext       = `UPDATE conversations SET context = $2::jsonb, updated_at = $3 WHERE id = $1`
)

func (s *PostgresConversations) FindActive(ctx context.Context, userID string) (*models.Conversation, error) {
	var (
		conv       models.Conversation
		rawContext []byte
		language   string
	)
	err := s.db.QueryRowContext(ctx, queryActiveConversation, userID).Scan(
		&conv.ID, &conv.UserID, &language, &rawContext, &conv.IsActive, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find active conversation: %w", err)
	}
	conv.Language = models.Language(language)

	if len(rawContext) > 0 {
		if err := json.Unmarshal(rawContext, &conv.Context); err != nil {
			return nil, fmt.Errorf("postgres: decode context: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, queryConversationMessages, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load messages: %w", err)
	}
	defer rows.Close()

	conv.Messages = []models.Message{}
	for rows.Next() {
		var (
			msg  models.Message
			role string
		)
		if err := rows.Scan(&role, &msg.Content, &msg.IsVoice, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		msg.Role = models.Role(role)
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate messages: %w", err)
	}
	return &conv, nil
}

func (s *PostgresConversations) Create(ctx context.Context, conv *models.Conversation) error {
	rawContext, err := json.Marshal(conv.Context.Clone())
	if err != nil {
		return fmt.Errorf("postgres: encode context: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		if _, err := tx.ExecContext(ctx, execDeactivateConversations, conv.UserID, now); err != nil {
			return fmt.Errorf("postgres: deactivate previous: %w", err)
		}
		if _, err := tx.ExecContext(ctx, execInsertConversation,
			conv.ID, conv.UserID, string(conv.Language), string(rawContext), conv.CreatedAt, conv.UpdatedAt,
		); err != nil {
			return fmt.Errorf("postgres: insert conversation: %w", err)
		}
		for _, msg := range conv.Messages {
			if err := insertMessage(ctx, tx, conv.ID, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresConversations) AppendMessage(ctx context.Context, conversationID string, msg models.Message) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, execTouchConversation, conversationID, s.now())
		if err != nil {
			return fmt.Errorf("postgres: touch conversation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return insertMessage(ctx, tx, conversationID, msg)
	})
}

func (s *PostgresConversations) SaveContext(ctx context.Context, conversationID string, c models.Context) error {
	raw, err := json.Marshal(c.Clone())
	if err != nil {
		return fmt.Errorf("postgres: encode context: %w", err)
	}

	res, err := s.db.ExecContext(ctx, execSaveContext, conversationID, string(raw), s.now())
	if err != nil {
		return fmt.Errorf("postgres: save context: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresConversations) Deactivate(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, execDeactivateConversations, userID, s.now()); err != nil {
		return fmt.Errorf("postgres: deactivate: %w", err)
	}
	return nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, conversationID string, msg models.Message) error {
	if _, err := tx.ExecContext(ctx, execInsertMessage,
		conversationID, string(msg.Role), msg.Content, msg.IsVoice, msg.Timestamp,
	); err != nil {
		return fmt.Errorf("postgres: insert message: %w", err)
	}
	return nil
}

func (s *PostgresConversations) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
