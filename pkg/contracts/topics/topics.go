package topics

const (
	// Notificações de spins liquidados
	SpinNotifications    = "spin_notifications"
	SpinNotificationsDLQ = "spin_notifications_dlq"

	// Redis Pub/Sub: alterações da tabela de resultados
	OutcomeTableUpdates = "outcome_table_updates"
)
