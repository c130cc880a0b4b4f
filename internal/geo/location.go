package geo

import "fmt"

// PointType is the GeoJSON geometry type used for stored locations.
const PointType = "Point"

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point is the persisted GeoJSON point. Coordinates are [longitude, latitude]
// so the field can back a 2dsphere index.
type Point struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// Encode converts a latitude/longitude pair into a Point.
func Encode(lat, lon float64) Point {
	return Point{Type: PointType, Coordinates: []float64{lon, lat}}
}

// EncodeCoordinate is Encode for a Coordinate value.
func EncodeCoordinate(c Coordinate) Point {
	return Encode(c.Latitude, c.Longitude)
}

// Decode returns the latitude and longitude held by p.
func Decode(p Point) (lat, lon float64, err error) {
	if p.Type != PointType {
		return 0, 0, fmt.Errorf("unexpected geometry type %q", p.Type)
	}
	if len(p.Coordinates) != 2 {
		return 0, 0, fmt.Errorf("point has %d coordinates, want 2", len(p.Coordinates))
	}
	return p.Coordinates[1], p.Coordinates[0], nil
}

// Validate reports whether lat is within [-90, 90] and lon within [-180, 180].
func Validate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
