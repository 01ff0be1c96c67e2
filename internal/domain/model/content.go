package model

type ContentType string

const (
	ContentTypeMovie   ContentType = "movie"
	ContentTypeEpisode ContentType = "episode"
	ContentTypeSeries  ContentType = "series"
)

// Content is the catalog aggregate the orchestrator reads prices from and
// writes revenue counters to. Catalog CRUD itself lives elsewhere.
type Content struct {
	ID               string
	FilmmakerID      string
	Title            string
	Type             ContentType
	SeriesID         string // parent series for episodes
	Approved         bool
	ViewPriceRWF     int64
	DownloadPriceRWF int64
	TotalViews       int64
	TotalRevenueRWF  int64
}

// SeriesTier is one published price point for series-wide access.
// The tier price is the source of truth; client-supplied amounts never win.
type SeriesTier struct {
	SeriesID string
	Period   AccessPeriod
	PriceRWF int64
}
