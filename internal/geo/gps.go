package geo

import (
	"bytes"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// GPSExtractor reads the capture location embedded in an image.
type GPSExtractor interface {
	Extract(data []byte) (Coordinate, bool)
}

// EXIFExtractor extracts GPS coordinates from EXIF metadata in JPEG or TIFF bytes.
type EXIFExtractor struct{}

// NewEXIFExtractor returns an EXIF backed extractor.
func NewEXIFExtractor() *EXIFExtractor {
	return &EXIFExtractor{}
}

// Extract returns the embedded location. Any decoding problem, including a
// panic inside the EXIF parser, is reported as absent.
func (e *EXIFExtractor) Extract(data []byte) (coord Coordinate, ok bool) {
	if len(data) == 0 {
		return Coordinate{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			coord, ok = Coordinate{}, false
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return Coordinate{}, false
	}

	lat, err := readDegrees(x, exif.GPSLatitude)
	if err != nil {
		return Coordinate{}, false
	}
	lon, err := readDegrees(x, exif.GPSLongitude)
	if err != nil {
		return Coordinate{}, false
	}

	if readRef(x, exif.GPSLatitudeRef) == "S" {
		lat = -lat
	}
	if readRef(x, exif.GPSLongitudeRef) == "W" {
		lon = -lon
	}

	if math.IsNaN(lat) || math.IsNaN(lon) || !Validate(lat, lon) {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: lat, Longitude: lon}, true
}

// readDegrees converts a degrees/minutes/seconds rational triple into decimal degrees.
func readDegrees(x *exif.Exif, name exif.FieldName) (float64, error) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, err
	}
	if tag.Format() != tiff.RatVal || tag.Count < 1 {
		return 0, errMalformed
	}

	parts := [3]float64{}
	for i := 0; i < 3 && i < int(tag.Count); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, err
		}
		if den == 0 {
			return 0, errMalformed
		}
		parts[i] = float64(num) / float64(den)
	}
	return parts[0] + parts[1]/60 + parts[2]/3600, nil
}

func readRef(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	ref, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return string(bytes.TrimSpace(bytes.Trim([]byte(ref), "\x00")))
}

type extractError string

func (e extractError) Error() string { return string(e) }

const errMalformed = extractError("malformed gps tag")
