package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Dog is an adoptable dog as described by the upstream API.
type Dog struct {
	ID      string `json:"id"`
	Img     string `json:"img"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	ZipCode string `json:"zip_code"`
	Breed   string `json:"breed"`
}

// Location is a ZIP code area with its centroid.
type Location struct {
	ZipCode   string  `json:"zip_code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	County    string  `json:"county"`
}

// Point returns the location centroid.
func (l Location) Point() GeoPoint {
	return GeoPoint{Lat: l.Latitude, Lon: l.Longitude}
}

// DogWithLocation is a dog joined to the location of its ZIP code.
// Location is nil when the upstream does not know the ZIP code.
type DogWithLocation struct {
	Dog
	Location *Location `json:"location,omitempty"`
}

// SearchQuery filters a dog search.
type SearchQuery struct {
	Breeds   []string `json:"breeds,omitempty"`
	ZipCodes []string `json:"zip_codes,omitempty"`
	AgeMin   *int     `json:"age_min,omitempty"`
	AgeMax   *int     `json:"age_max,omitempty"`
	Size     int      `json:"size"`
	From     int      `json:"from"`
	Sort     Sort     `json:"sort"`
}

// SearchResult is the raw page of IDs returned by a dog search.
type SearchResult struct {
	ResultIDs []string `json:"resultIds"`
	Total     int      `json:"total"`
	Next      string   `json:"next,omitempty"`
	Prev      string   `json:"prev,omitempty"`
}

// SearchPage is a search result with dog details, locations and
// pagination metadata.
type SearchPage struct {
	Dogs  []DogWithLocation `json:"dogs"`
	Total int               `json:"total"`
	Next  string            `json:"next,omitempty"`
	Prev  string            `json:"prev,omitempty"`
	Page  PageInfo          `json:"page"`
}

// LocationQuery filters a location search.
type LocationQuery struct {
	City           string       `json:"city,omitempty"`
	States         []string     `json:"states,omitempty"`
	GeoBoundingBox *BoundingBox `json:"geoBoundingBox,omitempty"`
	Size           int          `json:"size,omitempty"`
	From           int          `json:"from,omitempty"`
}

// LocationResult is a page of locations.
type LocationResult struct {
	Results []Location `json:"results"`
	Total   int        `json:"total"`
}

// Nearby is the outcome of a "pets near me" lookup.
type Nearby struct {
	Center    GeoPoint    `json:"center"`
	Miles     float64     `json:"miles"`
	Bounds    BoundingBox `json:"bounds"`
	ZipCodes  []string    `json:"zip_codes"`
	Locations []Location  `json:"locations"`
}

// Match is the dog picked for a user out of their favorites.
type Match struct {
	DogID     string    `json:"match"`
	Dog       *Dog      `json:"dog,omitempty"`
	Owner     string    `json:"-"`
	MatchedAt time.Time `json:"matched_at"`
}

// FavoriteEvent is emitted whenever a favorites set changes.
type FavoriteEvent struct {
	Owner string    `json:"owner"`
	DogID string    `json:"dog_id"`
	Added bool      `json:"added"`
	IDs   []string  `json:"ids"`
	Time  time.Time `json:"time"`
}

// NormalizeOwner lower-cases and trims an owner identifier (an e-mail).
func NormalizeOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}

// OwnerKey derives a storage- and subject-safe key from an owner.
func OwnerKey(owner string) string {
	h := sha256.Sum256([]byte(NormalizeOwner(owner)))
	return hex.EncodeToString(h[:8])
}
