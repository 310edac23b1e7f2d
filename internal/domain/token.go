package domain

// Status represents the lifecycle state of a token.
type Status string

const (
	StatusInitial  Status = "Initial"
	StatusActive   Status = "Active"
	StatusArchived Status = "Archived"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s Status) IsValid() bool {
	return s == StatusInitial || s == StatusActive || s == StatusArchived
}

// Token represents a discovered tradable token.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	Address      string   // PRIMARY KEY, base58 mint address
	Symbol       *string  // learned from the primary provider at activation (nullable)
	Status       Status   // Initial | Active | Archived
	CreatedAt    int64    // Unix timestamp in milliseconds
	ActivatedAt  *int64   // set on Initial → Active (nullable)
	LastScore    *float64 // last smoothed composite score (nullable)
	LastScoredAt *int64   // timestamp of last score computation (nullable)
}
