package events

import "time"

// Evento publicado no canal Redis "outcome_table_updates" quando o admin
// altera ou semeia a tabela de resultados.
type OutcomeTableUpdated struct {
	Reason    string    `json:"reason"` // "update" | "seed"
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}
