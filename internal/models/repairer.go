// internal/models/repairer.go
package models

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// DirectoryRecord is one listing as stored in the repairer directory.
type DirectoryRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postalCode"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Rating      float64   `json:"rating"`
	Location    *GeoPoint `json:"location,omitempty"`
	IsVerified  bool      `json:"isVerified"`
	Specialties []string  `json:"specialties"`
	Services    []string  `json:"services"`
}

// MatchedRepairer is a directory record scored against an intent.
type MatchedRepairer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	PostalCode    string    `json:"postalCode,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Rating        float64   `json:"rating"`
	Location      *GeoPoint `json:"location,omitempty"`
	IsVerified    bool      `json:"isVerified"`
	Specialties   []string  `json:"specialties"`
	Services      []string  `json:"services"`
	RepairerLevel int       `json:"repairerLevel"`

	RelevanceScore float64 `json:"relevanceScore"`
	DistanceScore  float64 `json:"distanceScore"`
	RatingScore    float64 `json:"ratingScore"`
	LevelScore     float64 `json:"levelScore"`
	MatchScore     float64 `json:"matchScore"`

	Distance     *float64 `json:"distance,omitempty"`
	MatchReasons []string `json:"matchReasons"`
}

// BoundingBox restricts a directory query to a lat/lng rectangle.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// DirectoryFilter is the predicate set pushed down to a DirectoryStore.
// Records without coordinates are always excluded.
type DirectoryFilter struct {
	MinRating    float64      `json:"minRating"`
	OnlyVerified bool         `json:"onlyVerified"`
	City         string       `json:"city,omitempty"`
	PostalCode   string       `json:"postalCode,omitempty"`
	Bounds       *BoundingBox `json:"bounds,omitempty"`
	Limit        int          `json:"limit"`
}

// Validate checks the coordinate ranges.
func (p GeoPoint) Validate() error {
	return validate.Struct(p)
}
