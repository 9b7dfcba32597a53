package geometry

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/airbusgeo/geocube-sampler/service"
)

func TestUTMForward(t *testing.T) {
	tests := []struct {
		zone     int
		lon, lat float64
		x, y     float64
	}{
		{17, -81, 0, 500000, 0},
		{17, -80, 0, 611280.651, 0},
		{17, -81, 28, 500000, 3097202.371},
		{31, 3, 52, 500000, 5761038.213},
		{17, -84, 24, 194772.811, 2657478.709},
	}
	for _, tt := range tests {
		p, err := NewUTM(tt.zone, false)
		if err != nil {
			t.Fatal(err)
		}
		x, y, err := p.Forward(tt.lon, tt.lat)
		if err != nil {
			t.Errorf("zone %d (%v, %v): %v", tt.zone, tt.lon, tt.lat, err)
			continue
		}
		if math.Abs(x-tt.x) > 0.01 || math.Abs(y-tt.y) > 0.01 {
			t.Errorf("zone %d (%v, %v): expected (%.3f, %.3f) found (%.3f, %.3f)", tt.zone, tt.lon, tt.lat, tt.x, tt.y, x, y)
		}
	}
}

func TestUTMSouth(t *testing.T) {
	p, err := NewUTM(33, true)
	if err != nil {
		t.Fatal(err)
	}
	x, y, err := p.Forward(15, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(x-500000) > 1e-3 || math.Abs(y-10000000) > 1e-3 {
		t.Errorf("expected false origin, found (%v, %v)", x, y)
	}
	if _, y, err = p.Forward(15, -10); err != nil || y >= 10000000 || y <= 0 {
		t.Errorf("expected southern northing, found %v (%v)", y, err)
	}
}

func TestWebMercator(t *testing.T) {
	p, err := NewProjection(CRSWebMercator)
	if err != nil {
		t.Fatal(err)
	}
	x, y, err := p.Forward(180, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(x-20037508.343) > 0.01 || math.Abs(y) > 0.01 {
		t.Errorf("expected (20037508.343, 0) found (%.3f, %.3f)", x, y)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	for _, crs := range []string{"EPSG:32617", "EPSG:32733", "EPSG:3857", "4326"} {
		p, err := NewProjection(crs)
		if err != nil {
			t.Fatal(err)
		}
		lon0 := -81.0
		if strings.HasSuffix(crs, "33") {
			lon0 = 15
		}
		for _, d := range [][2]float64{{0, 0}, {-2.5, 10}, {2.9, -30}, {1, 60}} {
			lon, lat := lon0+d[0], d[1]
			x, y, err := p.Forward(lon, lat)
			if err != nil {
				t.Errorf("%s: %v", crs, err)
				continue
			}
			lon2, lat2, err := p.Inverse(x, y)
			if err != nil {
				t.Errorf("%s: %v", crs, err)
				continue
			}
			if math.Abs(lon-lon2) > 1e-6 || math.Abs(lat-lat2) > 1e-6 {
				t.Errorf("%s: expected (%v, %v) found (%v, %v)", crs, lon, lat, lon2, lat2)
			}
		}
	}
}

func TestNewProjection(t *testing.T) {
	for crs, code := range map[string]string{
		"epsg:32617": "EPSG:32617",
		"32760":      "EPSG:32760",
		" EPSG:4326": "EPSG:4326",
		"EPSG:3857":  "EPSG:3857",
	} {
		p, err := NewProjection(crs)
		if err != nil {
			t.Errorf("%s: %v", crs, err)
			continue
		}
		if p.Code() != code {
			t.Errorf("expected %s found %s", code, p.Code())
		}
	}
	for _, crs := range []string{"EPSG:32600", "EPSG:32661", "EPSG:2154", "UTM17", ""} {
		if _, err := NewProjection(crs); err == nil {
			t.Errorf("%s: expected an error", crs)
		}
	}
}

func TestUTMZoneOf(t *testing.T) {
	for lon, zone := range map[float64]int{-180: 1, -81: 17, -78.0001: 17, -78: 18, 0: 31, 179.99: 60, 180: 60} {
		if z := UTMZoneOf(lon); z != zone {
			t.Errorf("%v: expected %d found %d", lon, zone, z)
		}
	}
	if c := UTMCode(7, true); c != "EPSG:32707" {
		t.Errorf("expected EPSG:32707 found %s", c)
	}
}

func TestBoundsFromSlice(t *testing.T) {
	b, err := BoundsFromSlice([]float64{-84, 24, -78, 32})
	if err != nil {
		t.Fatal(err)
	}
	if b.MinLon != -84 || b.MinLat != 24 || b.MaxLon != -78 || b.MaxLat != 32 {
		t.Errorf("unexpected bounds %v", b)
	}
	if lon, lat := b.Center(); lon != -81 || lat != 28 {
		t.Errorf("expected center (-81, 28) found (%v, %v)", lon, lat)
	}

	for _, s := range [][]float64{
		{-84, 24, -78},
		{-78, 24, -84, 32},
		{-84, 32, -78, 24},
		{-84, 24, -84, 32},
		{-190, 24, -78, 32},
		{-84, 24, -78, 95},
		{math.NaN(), 24, -78, 32},
	} {
		if _, err := BoundsFromSlice(s); !errors.Is(err, service.ErrInvalidBounds) {
			t.Errorf("%v: expected ErrInvalidBounds, found %v", s, err)
		}
	}
}

func TestRegionReproject(t *testing.T) {
	b := Bounds{MinLon: -84, MinLat: 24, MaxLon: -78, MaxLat: 32}
	utm, err := b.Region().Reproject("EPSG:32617")
	if err != nil {
		t.Fatal(err)
	}
	if utm.CRS != "EPSG:32617" {
		t.Errorf("expected EPSG:32617 found %s", utm.CRS)
	}
	if len(utm.Ring) != 4*densifySteps+1 || utm.Ring[0] != utm.Ring[len(utm.Ring)-1] {
		t.Errorf("expected a closed densified ring, found %d points", len(utm.Ring))
	}
	e := utm.Extent()
	if math.Abs(e.MinY()-2657478.709) > 1 {
		t.Errorf("unexpected min northing %v", e.MinY())
	}

	back, err := utm.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	// Edges are straight in UTM, so the parallels bulge slightly once back in lon/lat
	if math.Abs(back.MinLon-b.MinLon) > 1e-3 || math.Abs(back.MaxLat-b.MaxLat) > 1e-3 ||
		math.Abs(back.MaxLon-b.MaxLon) > 1e-3 || math.Abs(back.MinLat-b.MinLat) > 1e-3 {
		t.Errorf("expected %v found %v", b, back)
	}

	same, err := utm.Reproject("32617")
	if err != nil || len(same.Ring) != len(utm.Ring) {
		t.Errorf("reprojection in the same crs must be the identity (%v)", err)
	}

	if _, err := utm.Reproject("EPSG:2154"); err == nil {
		t.Errorf("expected an error")
	}
}

func TestRegionValidate(t *testing.T) {
	if err := NewRectangle("EPSG:32617", 0, 0, 1000, 1000).Validate(); err != nil {
		t.Error(err)
	}
	for name, r := range map[string]Region{
		"empty":     NewRectangle(CRSGeographic, 1, 1, 1, 1),
		"crs":       NewRectangle("EPSG:2154", 0, 0, 1, 1),
		"range":     NewRectangle(CRSGeographic, 170, 0, 190, 1),
		"open ring": {CRS: CRSGeographic, Ring: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		"bowtie":    {CRS: CRSGeographic, Ring: [][2]float64{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}},
	} {
		if err := r.Validate(); !errors.Is(err, service.ErrInvalidBounds) {
			t.Errorf("%s: expected ErrInvalidBounds, found %v", name, err)
		}
	}
}

func TestRegionEncoding(t *testing.T) {
	r := NewRectangle(CRSGeographic, 0, 0, 1, 2)
	if wkt := r.WKT(); !strings.HasPrefix(wkt, "POLYGON") {
		t.Errorf("expected a polygon, found %s", wkt)
	}
	g, err := r.GeoJSON()
	if err != nil {
		t.Fatal(err)
	}
	bytes, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,2],[0,2],[0,0]]]}`
	if string(bytes) != expected {
		t.Errorf("Expect %s found %s", expected, string(bytes))
	}
}

func TestRegionIntersects(t *testing.T) {
	r := NewRectangle(CRSGeographic, -84, 24, -78, 32)
	for wkt, expected := range map[string]bool{
		"POLYGON ((-80 30, -70 30, -70 40, -80 40, -80 30))": true,
		"POLYGON ((0 0, 1 0, 1 1, 0 1, 0 0))":                false,
		"POINT (-81 28)":                                     true,
	} {
		found, err := r.Intersects(wkt)
		if err != nil {
			t.Errorf("%s: %v", wkt, err)
		} else if found != expected {
			t.Errorf("%s: expected %v found %v", wkt, expected, found)
		}
	}
	if _, err := r.Intersects("NOT A WKT"); err == nil {
		t.Errorf("expected an error")
	}
}
