package shared

// PageWindow normalizes a requested page and size into the window a listing
// query should fetch. Zero or negative inputs take the default size of 20;
// maxPerPage, when positive, caps the size. The returned offset addresses the
// first row of the page.
func PageWindow(page, perPage, maxPerPage int) (normPage, size, offset int) {
	if perPage <= 0 {
		perPage = 20
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	return page, perPage, (page - 1) * perPage
}
