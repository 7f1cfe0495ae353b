package models

// Sequence is a named counter backing human-readable document numbers.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:50"`
	Value int64  `gorm:"not null;default:0"`
}

// Sequence names and number prefixes.
const (
	SequenceOrder   = "order"
	SequencePayment = "payment"

	PrefixOrder   = "CMD"
	PrefixPayment = "PAY"
)
