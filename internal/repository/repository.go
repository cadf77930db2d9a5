package repository

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// pageBounds converts a 1-based page plus limit into SQL limit/offset with
// sane clamping.
func pageBounds(page, limit int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// TotalPages is the page count for a record total at the given limit, with
// the same clamping pageBounds applies to the query itself.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		pages = 1
	}
	return pages
}
