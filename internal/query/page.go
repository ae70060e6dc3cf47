package query

// Page size bounds for list endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps number and limit to at least 1 and limit to MaxLimit.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset is the number of items before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Result is one page of items plus the size of the whole result set.
type Result[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Paginate slices items for p. Total is always len(items); a page past the end
// yields no items rather than an error.
func Paginate[T any](items []T, p Page) Result[T] {
	res := Result[T]{
		Items: []T{},
		Total: len(items),
		Page:  p.Number,
		Limit: p.Limit,
	}
	// Limit >= 1, so any page number above len(items) is past the end; checking
	// that first keeps Offset from overflowing on absurd page numbers.
	if p.Number > len(items) {
		return res
	}
	start := p.Offset()
	if start >= len(items) {
		return res
	}
	end := min(start+p.Limit, len(items))
	res.Items = items[start:end]
	return res
}
