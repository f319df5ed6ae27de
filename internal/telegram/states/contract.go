package states

import "time"

// DataReader is the read side needed to fetch flow data.
type DataReader interface {
	GetData(chatID int64) any
}

// Store keeps the per-chat conversation step and its flow data.
type Store interface {
	GetState(chatID int64) State
	SetState(chatID int64, state State, data any)
	GetData(chatID int64) any
	Clear(chatID int64)
	// Sweep drops sessions untouched for longer than idle and reports how many were removed.
	Sweep(idle time.Duration) int
}
