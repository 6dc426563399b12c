package repository

const (
	// DefaultPageLimit applies when a caller gives no limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size.
	MaxPageLimit = 100
)

// PageRequest is a 1-based page and a page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps limit to [1, MaxPageLimit] (default DefaultPageLimit) and
// page to at least 1.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Page is one slice of a listing.
type Page[T any] struct {
	Items   []T
	Total   int
	Page    int
	Limit   int
	HasMore bool
}

// ResolvePage clamps a normalized request against the total row count. A page
// past the end becomes the last page; an empty collection yields page 1.
func ResolvePage(req PageRequest, total int) (page, offset int) {
	req = req.Normalize()
	if total <= 0 {
		return 1, 0
	}
	lastPage := (total + req.Limit - 1) / req.Limit
	page = req.Page
	if page > lastPage {
		page = lastPage
	}
	return page, (page - 1) * req.Limit
}

// NewPage assembles a page. items may be nil; the result always carries a
// non-nil slice.
func NewPage[T any](items []T, total int, req PageRequest, page int) *Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:   items,
		Total:   total,
		Page:    page,
		Limit:   req.Limit,
		HasMore: page*req.Limit < total,
	}
}

// MapPage converts the items of a page.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, fn(item))
	}
	return &Page[U]{Items: out, Total: p.Total, Page: p.Page, Limit: p.Limit, HasMore: p.HasMore}
}
