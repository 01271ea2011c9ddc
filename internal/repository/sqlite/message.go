package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/skill-match/internal/domain"
)

// MessageRepository implements domain.MessageRepository using SQLite.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db.SqlDB}
}

// Create stores msg. CreatedAt is kept if already set so callers can stamp
// the server receive time, otherwise it is set to now.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()

	a, b := conversationKey(msg.Users[0], msg.Users[1])
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, user_a, user_b, text, attachment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID, a, b, msg.Body.Text, msg.Body.Attachment, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListConversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	ka, kb := conversationKey(a, b)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, user_a, user_b, text, attachment, created_at
		 FROM messages WHERE user_a = ? AND user_b = ?
		 ORDER BY created_at ASC, rowid ASC`, ka, kb)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			m            domain.Message
			userA, userB string
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &userA, &userB,
			&m.Body.Text, &m.Body.Attachment, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		other := userA
		if other == m.SenderID {
			other = userB
		}
		m.Users = [2]string{m.SenderID, other}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// conversationKey orders a participant pair so both directions share a key.
func conversationKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
