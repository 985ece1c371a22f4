package ws

import "github.com/radieske/spin-wager-platform/pkg/contracts/events"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type string `json:"type"` // ping
}

// TableUpdate é enviado a todos os clientes quando a tabela muda;
// o front recarrega GET /v1/outcomes/visible
type TableUpdate struct {
	Type    string                     `json:"type"` // outcomes_updated
	Payload events.OutcomeTableUpdated `json:"payload"`
}
