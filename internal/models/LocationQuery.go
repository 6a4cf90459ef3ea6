package models

import "fmt"

// LocationKind tells which variant a LocationQuery holds.
type LocationKind int

const (
	NamedPlace LocationKind = iota
	Coordinates
)

// LocationQuery is either a free-text place name or a latitude/longitude pair.
type LocationQuery struct {
	Kind LocationKind `json:"kind"`
	Name string       `json:"name,omitempty" example:"Berlin"`
	Lat  float64      `json:"lat,omitempty" example:"55.75"`
	Lon  float64      `json:"lon,omitempty" example:"37.61"`
}

func NewNamedPlace(name string) LocationQuery {
	return LocationQuery{Kind: NamedPlace, Name: name}
}

func NewCoordinates(lat, lon float64) LocationQuery {
	return LocationQuery{Kind: Coordinates, Lat: lat, Lon: lon}
}

func (q LocationQuery) IsCoordinates() bool {
	return q.Kind == Coordinates
}

// Label is the human readable form used when the provider does not report a place name.
func (q LocationQuery) Label() string {
	if q.IsCoordinates() {
		return fmt.Sprintf("%.4f, %.4f", q.Lat, q.Lon)
	}
	return q.Name
}

func (q LocationQuery) RequestParams() string {
	if q.IsCoordinates() {
		return fmt.Sprintf("lat: %.4f lon: %.4f", q.Lat, q.Lon)
	}
	return fmt.Sprintf("q: %s", q.Name)
}
