package domain

// Company is one row of the input company list. Domain may be empty when the
// caller supplies it through a separate domain map.
type Company struct {
	BusinessID string
	Name       string
	Domain     string
}
