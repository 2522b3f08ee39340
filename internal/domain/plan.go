package domain

// PlanDocument is a named insurance plan text. Immutable after load; the name
// is the source filename with its extension stripped.
type PlanDocument struct {
	Name string
	Text string
}
