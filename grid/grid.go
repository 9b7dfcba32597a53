// Package grid resolves an area of interest (MGRS grid-zone designator or explicit bounds) into a Region
package grid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
)

const (
	lonStep = 6
	latStep = 8
	minLat  = -80

	// Latitude bands from south to north (I and O are not used)
	bands = "CDEFGHJKLMNPQRSTUVWX"
)

// DefaultBounds is the reference area used when neither a key nor bounds are given (17R)
var DefaultBounds = geometry.Bounds{MinLon: -84, MinLat: 24, MaxLon: -78, MaxLat: 32}

var keyPattern = regexp.MustCompile(`^([0-9]{1,2})([C-HJ-NP-X])$`)

// exceptions of the regular 6°x8° tiling (Norway and Svalbard)
var exceptions = map[string]geometry.Bounds{
	"31V": {MinLon: 0, MinLat: 56, MaxLon: 3, MaxLat: 64},
	"32V": {MinLon: 3, MinLat: 56, MaxLon: 12, MaxLat: 64},
	"31X": {MinLon: 0, MinLat: 72, MaxLon: 9, MaxLat: 84},
	"33X": {MinLon: 9, MinLat: 72, MaxLon: 21, MaxLat: 84},
	"35X": {MinLon: 21, MinLat: 72, MaxLon: 33, MaxLat: 84},
	"37X": {MinLon: 33, MinLat: 72, MaxLon: 42, MaxLat: 84},
}

var missing = service.NewStringSet("32X", "34X", "36X")

// Key is a canonical grid-zone designator (zero-padded zone + upper-case band, e.g. "07R")
type Key string

// ParseKey returns the canonical form of the key ("7r" => "07R")
func ParseKey(s string) (Key, error) {
	m := keyPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return "", service.Errorf(service.ErrInvalidGridKey, "%q: expecting a zone (1-60) followed by a latitude band (C-X, without I and O)", s)
	}
	zone, _ := strconv.Atoi(m[1])
	if zone < 1 || zone > 60 {
		return "", service.Errorf(service.ErrInvalidGridKey, "%q: zone must be between 1 and 60", s)
	}
	k := Key(fmt.Sprintf("%02d%s", zone, m[2]))
	if missing.Exists(string(k)) {
		return "", service.Errorf(service.ErrInvalidGridKey, "%q: zone does not exist in band X", s)
	}
	return k, nil
}

// Zone returns the UTM zone of the key
func (k Key) Zone() int {
	z, _ := strconv.Atoi(string(k[:len(k)-1]))
	return z
}

// Band returns the latitude band of the key
func (k Key) Band() byte {
	return k[len(k)-1]
}

// South returns true if the band is in the southern hemisphere (C to M)
func (k Key) South() bool {
	return k.Band() <= 'M'
}

// Bounds returns the geographic bounds of the grid zone
func (k Key) Bounds() geometry.Bounds {
	if b, ok := exceptions[string(k)]; ok {
		return b
	}
	zone := k.Zone()
	i := strings.IndexByte(bands, k.Band())
	b := geometry.Bounds{
		MinLon: float64(-180 + (zone-1)*lonStep),
		MinLat: float64(minLat + i*latStep),
	}
	b.MaxLon = b.MinLon + lonStep
	b.MaxLat = b.MinLat + latStep
	if k.Band() == 'X' {
		b.MaxLat = 84
	}
	return b
}

func (k Key) String() string {
	return string(k)
}

// Table returns the complete lookup of the grid-zone designators
func Table() map[Key]geometry.Bounds {
	table := make(map[Key]geometry.Bounds, 60*len(bands))
	for zone := 1; zone <= 60; zone++ {
		for _, band := range bands {
			k := Key(fmt.Sprintf("%02d%c", zone, band))
			if missing.Exists(string(k)) {
				continue
			}
			table[k] = k.Bounds()
		}
	}
	return table
}

// Resolve returns the geographic region of the key, or of the bounds if key is empty.
// Key takes precedence over bounds. If both are empty, the region of DefaultBounds is returned.
func Resolve(bounds *geometry.Bounds, key string) (geometry.Region, error) {
	b, err := resolveBounds(bounds, key)
	if err != nil {
		return geometry.Region{}, err
	}
	return b.Region(), nil
}

func resolveBounds(bounds *geometry.Bounds, key string) (geometry.Bounds, error) {
	if key != "" {
		k, err := ParseKey(key)
		if err != nil {
			return geometry.Bounds{}, err
		}
		return k.Bounds(), nil
	}
	if bounds == nil {
		return DefaultBounds, nil
	}
	if err := bounds.Validate(); err != nil {
		return geometry.Bounds{}, err
	}
	return *bounds, nil
}

// ResolveWithCRS returns the geographic region (see Resolve) and the region reprojected to the crs
// If crs is empty, the working CRS is used (see WorkingCRS)
func ResolveWithCRS(bounds *geometry.Bounds, key, crs string) (geographic, projected geometry.Region, err error) {
	if geographic, err = Resolve(bounds, key); err != nil {
		return
	}
	if crs == "" {
		b, _ := geographic.Bounds()
		if crs, err = WorkingCRS(key, b); err != nil {
			return
		}
	}
	if projected, err = geographic.Reproject(crs); err != nil {
		err = service.Errorf(service.ErrInvalidBounds, "%w", err)
	}
	return
}

// UTMZone returns the UTM zone and hemisphere of the grid key
func UTMZone(key string) (zone int, south bool, err error) {
	k, err := ParseKey(key)
	if err != nil {
		return 0, false, err
	}
	return k.Zone(), k.South(), nil
}

// WorkingCRS returns the metric CRS used to build sample regions:
// the UTM zone of the key (EPSG:327zz for bands C to M, EPSG:326zz otherwise)
// or, without key, the UTM zone of the center of the bounds.
func WorkingCRS(key string, bounds geometry.Bounds) (string, error) {
	if key != "" {
		zone, south, err := UTMZone(key)
		if err != nil {
			return "", err
		}
		return geometry.UTMCode(zone, south), nil
	}
	lon, lat := bounds.Center()
	return geometry.UTMCode(geometry.UTMZoneOf(lon), lat < 0), nil
}
