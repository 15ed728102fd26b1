package domain

import "time"

// Event types
const (
	EventTypeTransactionBooked = "transaction.booked"
	EventTypeAccountOpened     = "account.opened"
	EventTypeAccountClosed     = "account.closed"
	EventTypePadMaterialized   = "pad.materialized"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// Event is emitted after a ledger state change has been applied. Payload
// holds the matching *Event struct for the event type.
type Event struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       any
	OccurredAt    time.Time
}

// TransactionBookedEvent payload
type TransactionBookedEvent struct {
	TransactionID string   `json:"transaction_id"`
	Date          string   `json:"date"`
	Narration     string   `json:"narration"`
	Postings      int      `json:"postings"`
	Accounts      []string `json:"accounts"`
	Reductions    int      `json:"reductions"`
}

// AccountOpenedEvent payload
type AccountOpenedEvent struct {
	Account     string   `json:"account"`
	Date        string   `json:"date"`
	Commodities []string `json:"commodities,omitempty"`
	Booking     string   `json:"booking,omitempty"`
}

// AccountClosedEvent payload
type AccountClosedEvent struct {
	Account string `json:"account"`
	Date    string `json:"date"`
}

// PadMaterializedEvent payload
type PadMaterializedEvent struct {
	Account       string `json:"account"`
	SourceAccount string `json:"source_account"`
	PadDate       string `json:"pad_date"`
	AssertionDate string `json:"assertion_date"`
	Amount        string `json:"amount"`
}
