package solana

import "context"

// WSClient defines the ledger WebSocket subscription interface.
type WSClient interface {
	// SubscribeProgram subscribes to account updates for every account
	// owned by the program.
	SubscribeProgram(ctx context.Context, filter ProgramFilter) (<-chan AccountNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// ProgramFilter selects the program whose accounts to watch.
type ProgramFilter struct {
	// ProgramID is the owning program.
	ProgramID string
}

// AccountNotification is one observed account update.
type AccountNotification struct {
	Pubkey   string
	Slot     int64
	Lamports uint64
	Owner    string
	Data     string // base64 encoded
}
