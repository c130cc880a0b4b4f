package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeStoresLongitudeFirst(t *testing.T) {
	p := Encode(12.9716, 77.5946)
	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, []float64{77.5946, 12.9716}, p.Coordinates)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, c := range []Coordinate{
		{0, 0}, {90, 180}, {-90, -180}, {12.9716, 77.5946}, {-33.8688, 151.2093}, {51.5074, -0.1278},
	} {
		lat, lon, err := Decode(EncodeCoordinate(c))
		require.NoError(t, err)
		assert.Equal(t, c.Latitude, lat)
		assert.Equal(t, c.Longitude, lon)
	}
}

func TestDecodeRejectsMalformedPoints(t *testing.T) {
	_, _, err := Decode(Point{Type: "Point", Coordinates: []float64{1}})
	assert.Error(t, err)
	_, _, err = Decode(Point{Type: "LineString", Coordinates: []float64{1, 2}})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(90, 180))
	assert.True(t, Validate(-90, -180))
	assert.False(t, Validate(90.0001, 0))
	assert.False(t, Validate(0, -180.5))
}
