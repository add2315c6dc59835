package anomaly

// Settings contains the tunable thresholds of the detector
type Settings struct {
	// ZThreshold flags segments whose |z| exceeds it (default: 2.0)
	ZThreshold float64
	// PThreshold flags segments whose p-value is below it (default: 0.05)
	PThreshold float64
	// MinTransactions is the current-period floor a segment must exceed to be flagged (default: 50)
	MinTransactions int64
	// WeeksPerPeriod is the number of weeks one comparison window covers (default: 3)
	WeeksPerPeriod float64
	// WeeksPerMonth converts weekly figures to a month (default: 4.33)
	WeeksPerMonth float64
	// Workers bounds the goroutines used for significance tests; 1 runs sequentially
	Workers int
	// Tail selects the normal tail implementation; nil means NormalTail
	Tail TailFunc
}

// DefaultSettings returns the default detector configuration
func DefaultSettings() Settings {
	return Settings{
		ZThreshold:      2.0,
		PThreshold:      0.05,
		MinTransactions: 50,
		WeeksPerPeriod:  3,
		WeeksPerMonth:   4.33,
		Workers:         1,
		Tail:            NormalTail,
	}
}
