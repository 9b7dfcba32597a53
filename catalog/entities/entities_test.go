package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/airbusgeo/geocube-sampler/common"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
)

func TestRequestID(t *testing.T) {
	id := RequestID(ModeMosaic, "17R", "42", 0)
	if id != RequestID(ModeMosaic, "17R", "42", 0) {
		t.Errorf("request id must be deterministic")
	}
	for _, other := range []string{
		RequestID(ModeMosaic, "17R", "43", 0),
		RequestID(ModeDirect, "17R", "42", 0),
		RequestID(ModeMosaic, "18R", "42", 0),
		RequestID(ModeMosaic, "17R", "42", 1),
	} {
		if other == id {
			t.Errorf("expected different request ids")
		}
	}
}

func TestExportJob(t *testing.T) {
	job := ExportJob{
		Index:  2,
		Name:   "l8_17R_00002",
		Region: geometry.NewRectangle("EPSG:32617", 0, 0, 10, 10),
		Filter: FilterSpec{Sensor: common.SensorL8, Format: common.FormatPNG, End: time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	if job.Mode() != ModeDirect {
		t.Errorf("expected direct mode")
	}
	if job.FileName() != "l8_17R_00002.png" {
		t.Errorf("expected l8_17R_00002.png found %s", job.FileName())
	}
	if !job.Filter.EndExclusive().Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected exclusive end %v", job.Filter.EndExclusive())
	}

	job.Mosaic = &MosaicRequest{Index: 2, Lon: -81, Lat: 28, Region: job.Region}
	if job.Mode() != ModeMosaic {
		t.Errorf("expected mosaic mode")
	}

	b, err := json.Marshal(job)
	if err != nil {
		t.Fatal(err)
	}
	var job2 ExportJob
	if err := json.Unmarshal(b, &job2); err != nil {
		t.Fatal(err)
	}
	if job2.Filter.Format != common.FormatPNG || job2.Mosaic == nil || job2.Region.CRS != "EPSG:32617" {
		t.Errorf("unexpected job %+v", job2)
	}
}
