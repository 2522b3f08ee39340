package domain

// Comparison is a single persisted comparison record.
type Comparison struct {
	PK           string
	SK           string
	ComparisonID string
	Question     string
	PlanNames    []string
	Answer       string
	Status       string
	CreatedAt    string
	TTL          int64
}
