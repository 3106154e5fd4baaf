package models

// CycleSummary is the owner-facing progress view of one round. The
// recipient is excluded from the payer denominator: a round of N
// members has N-1 expected payers.
type CycleSummary struct {
	RoundID      string
	CycleNumber  int
	StartDate    int64
	Completed    bool
	RecipientID  string
	TotalPayers  int
	PaidCount    int
	ReceiptCount int
}
