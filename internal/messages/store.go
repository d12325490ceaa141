package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/codegram/codegram/internal/db"
	"github.com/codegram/codegram/internal/profile"
	"github.com/codegram/codegram/internal/validate"
)

// Store provides access to conversations and their messages.
type Store struct {
	db    *db.DB
	users *profile.Store
	now   func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB, users *profile.Store) *Store {
	return &Store{db: database, users: users, now: time.Now}
}

// CreateConversation inserts a conversation with the given peer.
func (s *Store) CreateConversation(ctx context.Context, c Conversation) (*Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.LastMessageAt.IsZero() {
		c.LastMessageAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, peer_id, online, last_message, last_message_at, unread)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Peer.ID, db.Int(c.Online), c.LastMessage, db.FormatTime(c.LastMessageAt), c.Unread,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting conversation: %w", err)
	}
	return &c, nil
}

// AddMessage stores a message without touching the conversation summary.
// It is used for seeding history.
func (s *Store) AddMessage(ctx context.Context, m Message) (*Message, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.SentAt.IsZero() {
		m.SentAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.Text, db.FormatTime(m.SentAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	return &m, nil
}

// List returns conversations, most recent first. A non-empty query
// matches the peer's name or username.
func (s *Store) List(ctx context.Context, query string) ([]Conversation, error) {
	q := `
		SELECT c.id, c.online, c.last_message, c.last_message_at, c.unread, ` + profile.UserColumns("u") + `
		FROM conversations c JOIN users u ON u.id = c.peer_id`
	var args []any
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		q += " WHERE LOWER(u.name) LIKE ? OR LOWER(u.username) LIKE ?"
		like := "%" + query + "%"
		args = append(args, like, like)
	}
	q += " ORDER BY c.last_message_at DESC, c.id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	now := s.now()
	out := []Conversation{}
	for rows.Next() {
		var (
			c      Conversation
			online int
			ts     string
		)
		userDest, finish := profile.UserDest(&c.Peer)
		dest := append([]any{&c.ID, &online, &c.LastMessage, &ts, &c.Unread}, userDest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		finish()
		c.Online = db.Bool(online)
		c.LastMessageAt = db.ParseTime(ts)
		c.Age = humanize.RelTime(c.LastMessageAt, now, "ago", "from now")
		out = append(out, c)
	}
	return out, rows.Err()
}

// Unread returns the total number of unread messages.
func (s *Store) Unread(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(unread), 0) FROM conversations").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return n, nil
}

// Messages returns a conversation's messages in the order they were sent.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	if err := s.exists(ctx, conversationID); err != nil {
		return nil, err
	}
	me, err := s.users.CurrentID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, text, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var (
			m  Message
			ts string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.SentAt = db.ParseTime(ts)
		m.Mine = m.SenderID == me
		out = append(out, m)
	}
	return out, rows.Err()
}

// Send appends a message from the current user, makes it the
// conversation's last message and clears the unread count.
func (s *Store) Send(ctx context.Context, conversationID string, in SendInput) (*Message, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	me, err := s.users.CurrentID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}

	m := Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       me,
		Text:           in.Text,
		Mine:           true,
		SentAt:         s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning send: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE conversations SET last_message = ?, last_message_at = ?, unread = 0
		WHERE id = ?`, m.Text, db.FormatTime(m.SentAt), conversationID)
	if err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.Text, db.FormatTime(m.SentAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing send: %w", err)
	}
	return &m, nil
}

func (s *Store) exists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM conversations WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up conversation %s: %w", id, err)
	}
	return nil
}
