package domain

import "time"

// TransactionType - sale vs rent filter for listings.
type TransactionType string

const (
	TransactionSale TransactionType = "sale"
	TransactionRent TransactionType = "rent"
)

// PropertyFilters - listing filters carried into the property tile
// fingerprint. Zero values mean "no constraint".
type PropertyFilters struct {
	Transaction TransactionType `json:"transaction,omitempty"`
	EstateTypes []string        `json:"estateTypes,omitempty"`
	PriceMin    float64         `json:"priceMin,omitempty"`
	PriceMax    float64         `json:"priceMax,omitempty"`
	AreaMin     float64         `json:"areaMin,omitempty"`
	AreaMax     float64         `json:"areaMax,omitempty"`
	RoomsMin    int             `json:"roomsMin,omitempty"`
	RoomsMax    int             `json:"roomsMax,omitempty"`
}

// Listing - a real-estate offer as returned by the listings source.
type Listing struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Title    string  `json:"title,omitempty"`
	URL      string  `json:"url,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Price    float64 `json:"price"`
	Area     float64 `json:"area,omitempty"` // square meters
	Rooms    int     `json:"rooms,omitempty"`
	Estate   string  `json:"estate,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// PriceVerdict - qualitative price-vs-quality classification.
type PriceVerdict string

const (
	VerdictBargain    PriceVerdict = "bargain"
	VerdictFair       PriceVerdict = "fair"
	VerdictOverpriced PriceVerdict = "overpriced"
)

// PriceAnalysis - price position of a listing relative to its local
// neighborhood quality. Percentiles are computed over the expanded
// context tiles of the request.
type PriceAnalysis struct {
	QualityK        float64      `json:"qualityK"`
	PricePerM2      float64      `json:"pricePerM2,omitempty"`
	PricePercentile float64      `json:"pricePercentile"`
	Verdict         PriceVerdict `json:"verdict"`
}

// EnrichedListing - listing plus its local quality analysis.
type EnrichedListing struct {
	Listing
	Analysis *PriceAnalysis `json:"analysis,omitempty"`
}

// ListingCluster - pre-aggregated group of listings from the source.
type ListingCluster struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}

// ListingsPage - one listings-source response for a bounds + filter set.
type ListingsPage struct {
	Properties []Listing        `json:"properties"`
	Clusters   []ListingCluster `json:"clusters,omitempty"`
	TotalCount int              `json:"totalCount"`
}

// PropertyTileResult - cached per-tile listings payload.
type PropertyTileResult struct {
	Coords      Tile              `json:"coordinates"`
	Properties  []EnrichedListing `json:"properties"`
	Clusters    []ListingCluster  `json:"clusters,omitempty"`
	TotalCount  int               `json:"totalCount"`
	GeneratedAt time.Time         `json:"generatedAt"`
}
