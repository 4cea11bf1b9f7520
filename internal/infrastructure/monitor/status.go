package monitor

import "time"

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Status struct {
	Storage    string    `json:"storage"`
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Outbox     bool      `json:"outbox"`
	OutboxSize int       `json:"outbox_size"`
	OutboxDead int       `json:"outbox_dead"`
	LastCheck  time.Time `json:"last_check"`
}
