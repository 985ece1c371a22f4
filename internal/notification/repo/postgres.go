package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/spin-wager-platform/internal/notification"
)

// InboxLimit é quantas notificações a caixa de entrada devolve
const InboxLimit = 20

// PostgresRepo persiste notificações na tabela notifications
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// Insert grava a notificação; reentrega do Kafka com o mesmo id é ignorada
func (r *PostgresRepo) Insert(ctx context.Context, n notification.Notification) error {
	const q = `
		INSERT INTO notifications
		  (id, account_id, title, message, severity, created_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, q,
		n.ID, n.AccountID, n.Title, n.Body, string(n.Severity), n.CreatedAt,
	)
	return err
}

// ListRecent devolve as notificações mais novas primeiro
func (r *PostgresRepo) ListRecent(ctx context.Context, accountID string, limit int) ([]notification.Notification, error) {
	if limit <= 0 || limit > InboxLimit {
		limit = InboxLimit
	}
	const q = `
		SELECT id, account_id, title, message, severity, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, q, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notification.Notification, 0, limit)
	for rows.Next() {
		var n notification.Notification
		var sev string
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Body, &sev, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Severity = notification.Severity(sev)
		out = append(out, n)
	}
	return out, rows.Err()
}
