package pagination

// Meta describes a paginated slice of a larger result.
type Meta struct {
	TotalItems int  `json:"total_items"`
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit,omitempty"`
	Returned   int  `json:"returned"`
	HasNext    bool `json:"has_next"`
}

// NewMeta builds metadata for a window of returned items out of totalCount.
func NewMeta(params Params, totalCount, returned int) Meta {
	return Meta{
		TotalItems: totalCount,
		Offset:     params.Offset,
		Limit:      params.Limit,
		Returned:   returned,
		HasNext:    params.Offset+returned < totalCount,
	}
}
