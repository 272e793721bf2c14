package core

// Page is a keyset page over KSUID ordered rows.
type Page struct {
	Limit int
	After ID
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Normalize clamps the limit into [1, MaxPageSize].
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}
