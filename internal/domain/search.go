package domain

type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"address"`
}

type Suggestion struct {
	Label string  `json:"label"`
	Value string  `json:"value"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// RankedListing is a listing annotated with its distance from a resolved point.
type RankedListing struct {
	Listing
	Distance   int    `json:"distance"`   // meters, rounded
	DistanceKm string `json:"distanceKm"` // two decimals
}

type SearchType string

const (
	SearchNone     SearchType = ""
	SearchName     SearchType = "name"
	SearchLocation SearchType = "location"
)

// SearchResult is one of three outcomes, told apart by Type:
// SearchName carries Listings, SearchLocation carries Ranked plus Location and
// Radius, SearchNone carries nothing.
type SearchResult struct {
	Type     SearchType
	Listings []Listing
	Ranked   []RankedListing
	Location *GeocodeResult
	Radius   int
}

func (r SearchResult) Count() int {
	switch r.Type {
	case SearchName:
		return len(r.Listings)
	case SearchLocation:
		return len(r.Ranked)
	}
	return 0
}
