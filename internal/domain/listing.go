package domain

import "time"

type ListingType string

const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
)

// GeoPoint is a GeoJSON point. Coordinates are always [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func NewPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

type Listing struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	RegularPrice  float64     `json:"regularPrice"`
	DiscountPrice float64     `json:"discountPrice"`
	Bathrooms     int         `json:"bathrooms"`
	Bedrooms      int         `json:"bedrooms"`
	Furnished     bool        `json:"furnished"`
	Parking       bool        `json:"parking"`
	Type          ListingType `json:"type"`
	Offer         bool        `json:"offer"`
	ImageURLs     []string    `json:"imageUrls"`
	UserRef       string      `json:"userRef"`
	Location      GeoPoint    `json:"location"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// ListingDraft is the caller-supplied part of a listing; the address is geocoded
// before it is persisted.
type ListingDraft struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	RegularPrice  float64     `json:"regularPrice"`
	DiscountPrice float64     `json:"discountPrice"`
	Bathrooms     int         `json:"bathrooms"`
	Bedrooms      int         `json:"bedrooms"`
	Furnished     bool        `json:"furnished"`
	Parking       bool        `json:"parking"`
	Type          ListingType `json:"type"`
	Offer         bool        `json:"offer"`
	ImageURLs     []string    `json:"imageUrls"`
}

type ListingFilter struct {
	SearchTerm string
	Offer      bool // only true constrains
	Furnished  bool
	Parking    bool
	Type       ListingType // empty means rent and sale
	Sort       string      // createdAt|regularPrice
	Desc       bool
	Limit      int
	StartIndex int
}
