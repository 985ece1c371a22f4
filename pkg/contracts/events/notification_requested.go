package events

import "time"

// Evento publicado no tópico "spin_notifications" após um spin confirmado.
// Consumido pelo notification-worker, que persiste a notificação.
type NotificationRequested struct {
	NotificationID string    `json:"notification_id"`
	AccountID      string    `json:"account_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Severity       string    `json:"severity"` // info | success | warning | error
	CreatedAt      time.Time `json:"created_at"`
	TsUnixMs       int64     `json:"ts_unix_ms"`
}
