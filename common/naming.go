package common

import (
	"fmt"
	"path"
	"strings"
	"time"
)

//go:generate go run github.com/dmarkham/enumer -json -type Sensor -trimprefix Sensor -transform lower

// Sensor defines the satellite family and its image collection
type Sensor int

const (
	SensorL8 Sensor = iota // LANDSAT/LC08/C02/T1_TOA/LC08_PPPRRR_YYYYMMDD
	SensorL9               // LANDSAT/LC09/C02/T1_TOA/LC09_PPPRRR_YYYYMMDD
	SensorS2               // COPERNICUS/S2_HARMONIZED/YYYYMMDDTHHMMSS_YYYYMMDDTHHMMSS_TXXXXX
)

var landsatBands = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B9", "B10", "B11", "QA_PIXEL", "QA_RADSAT", "SAA", "SZA", "VAA", "VZA"}
var sentinel2Bands = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B8A", "B9", "B10", "B11", "B12", "QA10", "QA20", "QA60"}

// DefaultBands is the band selection used when none is given (true color)
var DefaultBands = []string{"B4", "B3", "B2"}

// Collection returns the image collection of the sensor
func (s Sensor) Collection() string {
	switch s {
	case SensorL8:
		return "LANDSAT/LC08/C02/T1_TOA"
	case SensorL9:
		return "LANDSAT/LC09/C02/T1_TOA"
	case SensorS2:
		return "COPERNICUS/S2_HARMONIZED"
	}
	return ""
}

// CloudProperty returns the name of the image property holding the cloud cover percentage
func (s Sensor) CloudProperty() string {
	if s.IsLandsat() {
		return "CLOUD_COVER"
	}
	return "CLOUDY_PIXEL_PERCENTAGE"
}

// Bands returns the bands available for the sensor
func (s Sensor) Bands() []string {
	if s.IsLandsat() {
		return landsatBands
	}
	return sentinel2Bands
}

// IsLandsat returns true for L8 and L9
func (s Sensor) IsLandsat() bool {
	return s == SensorL8 || s == SensorL9
}

// VisualMultiplier scales reflectances to bytes (a reflectance of 0.3 is mapped to 255)
// Sentinel-2 values are reflectances x10000
func (s Sensor) VisualMultiplier() float64 {
	m := 255 / 0.3
	if !s.IsLandsat() {
		m *= 0.0001
	}
	return m
}

// GetDateFromSceneID returns the acquisition date encoded in the image id
// The id may be prefixed by the collection.
func GetDateFromSceneID(sceneID string) (time.Time, error) {
	name := path.Base(sceneID)
	format, err := Info(name)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("20060102", format["DATE"])
}

// Info parses the image name (without the collection)
func Info(name string) (map[string]string, error) {
	switch {
	case strings.HasPrefix(name, "LC08_") || strings.HasPrefix(name, "LC09_"):
		// LC08_017040_20220115
		if len(name) < len("LCSS_PPPRRR_YYYYMMDD") {
			return nil, fmt.Errorf("invalid Landsat8/9 image name: %s", name)
		}
		return map[string]string{
			"SCENE":      name,
			"MISSION_ID": name[0:4],
			"PATH":       name[5:8],
			"ROW":        name[8:11],
			"DATE":       name[12:20],
			"YEAR":       name[12:16],
			"MONTH":      name[16:18],
			"DAY":        name[18:20],
		}, nil
	case len(name) >= 9 && name[8] == 'T':
		// 20220105T160521_20220105T160519_T17RML
		if len(name) < len("YYYYMMDDTHHMMSS_YYYYMMDDTHHMMSS_TXXXXX") {
			return nil, fmt.Errorf("invalid Sentinel2 image name: %s", name)
		}
		return map[string]string{
			"SCENE":  name,
			"DATE":   name[0:8],
			"YEAR":   name[0:4],
			"MONTH":  name[4:6],
			"DAY":    name[6:8],
			"TIME":   name[9:15],
			"HOUR":   name[9:11],
			"MINUTE": name[11:13],
			"SECOND": name[13:15],
			"TILE":   name[32:38],
		}, nil
	}
	return nil, fmt.Errorf("Info: unrecognized image name: %s", name)
}

// Output name templates
const (
	SceneNameTemplate  = "{SENSOR}_{REGION}_{DATE}_{INDEX}"
	MosaicNameTemplate = "{SENSOR}_{REGION}_{INDEX}"
)

// OutputName formats the name of the output of the index-th image (without extension)
// date is ignored if zero
func OutputName(template string, sensor Sensor, region string, index int, date time.Time) string {
	info := map[string]string{
		"SENSOR": sensor.String(),
		"REGION": region,
		"INDEX":  fmt.Sprintf("%05d", index),
	}
	if !date.IsZero() {
		info["DATE"] = date.Format("20060102")
	}
	return FormatBrackets(template, info)
}

/**
 * FormatBrackets replaces in <str> all {keys} of <info> by the corresponding value
 * keys must be one of SENSOR, REGION, INDEX, DATE(YEAR/MONTH/DAY), TIME(HOUR/MINUTE/SECOND), PATH, ROW, TILE
 */
func FormatBrackets(str string, infos ...map[string]string) string {
	for _, info := range infos {
		for k, v := range info {
			str = strings.ReplaceAll(str, "{"+k+"}", v)
		}
	}
	return str
}

//go:generate go run github.com/dmarkham/enumer -json -type Format -trimprefix Format -transform snake-upper

// Format of the output rasters
type Format int

const (
	FormatGeoTIFF Format = iota
	FormatPNG
)

// Extension returns the file extension of the format
func (f Format) Extension() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".tif"
}

// ParseFormat accepts the canonical names (GEO_TIFF, PNG) and the usual aliases (GeoTIFF, tif, png...)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "geotiff", "tif", "tiff":
		return FormatGeoTIFF, nil
	case "png":
		return FormatPNG, nil
	}
	return FormatString(s)
}
