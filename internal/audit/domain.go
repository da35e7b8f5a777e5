package audit

import "time"

// TrailRow is one recorded deletion in the audit trail.
type TrailRow struct {
	ID        int64
	VideoURL  string
	DeletedBy string
	DeletedAt time.Time
}

// Filters narrow the trail query. Zero values mean unfiltered.
type Filters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Page     int
	PageSize int
}

// PagingInfo describes the window returned and whether more rows exist.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result bundles trail rows with paging information.
type Result struct {
	Rows   []TrailRow
	Paging PagingInfo
}
