package earthengine

import (
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
)

// Expression is a serialized computation graph (the "values" are the nodes, "result" is the output node)
type Expression struct {
	Result string                 `json:"result"`
	Values map[string]interface{} `json:"values"`
}

type node map[string]interface{}

func newExpression(v node) Expression {
	return Expression{Result: "0", Values: map[string]interface{}{"0": v}}
}

func constant(v interface{}) node {
	return node{"constantValue": v}
}

func invoke(function string, args map[string]interface{}) node {
	return node{"functionInvocationValue": map[string]interface{}{
		"functionName": function,
		"arguments":    args,
	}}
}

func array(values ...node) node {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return node{"arrayValue": map[string]interface{}{"values": vs}}
}

// polygon returns a planar polygon in the crs of the region
func polygon(r geometry.Region) node {
	return invoke("GeometryConstructors.Polygon", map[string]interface{}{
		"coordinates": constant([][][2]float64{r.Ring}),
		"crs":         invoke("Projection", map[string]interface{}{"crs": constant(geometry.NormalizeCRS(r.CRS))}),
		"geodesic":    constant(false),
	})
}

// visual scales the reflectances to bytes
func visual(img node, multiplier float64) node {
	img = invoke("Image.multiply", map[string]interface{}{
		"image1": img,
		"image2": invoke("Image.constant", map[string]interface{}{"value": constant(multiplier)}),
	})
	return invoke("Image.toByte", map[string]interface{}{"value": img})
}

func sel(img node, bands []string) node {
	return invoke("Image.select", map[string]interface{}{
		"input":         img,
		"bandSelectors": constant(bands),
	})
}

func clip(img node, geom node) node {
	return invoke("Image.clip", map[string]interface{}{"input": img, "geometry": geom})
}

// sceneExpression returns the visual image of the scene of a direct job, clipped to its footprint
func sceneExpression(job entities.ExportJob) Expression {
	img := invoke("Image.load", map[string]interface{}{"id": constant(job.Scene.ID)})
	img = sel(img, job.Filter.Bands)
	img = visual(img, job.Filter.Sensor.VisualMultiplier())
	img = clip(img, invoke("Image.geometry", map[string]interface{}{"feature": img}))
	return newExpression(img)
}

func dateFilter(start, end time.Time) node {
	return invoke("Filter.dateRangeContains", map[string]interface{}{
		"leftValue": invoke("DateRange", map[string]interface{}{
			"start": constant(start.Format(time.RFC3339)),
			"end":   constant(end.Format(time.RFC3339)),
		}),
		"rightField": constant("system:time_start"),
	})
}

// mosaicExpression returns the mosaic of the images of the sample region, in a random order
// (keyed by the composite seed), scaled to bytes and clipped to the sample region
func mosaicExpression(job entities.ExportJob) Expression {
	f := job.Filter
	rect := polygon(job.Region)
	filter := invoke("Filter.and", map[string]interface{}{"filters": array(
		dateFilter(f.Start, f.EndExclusive()),
		invoke("Filter.intersects", map[string]interface{}{
			"leftField":  constant(".all"),
			"rightValue": rect,
		}),
		invoke("Filter.greaterThanOrEquals", map[string]interface{}{
			"leftField":  constant(f.Sensor.CloudProperty()),
			"rightValue": constant(f.CloudCoverMin),
		}),
		invoke("Filter.lessThan", map[string]interface{}{
			"leftField":  constant(f.Sensor.CloudProperty()),
			"rightValue": constant(f.CloudCoverMax),
		}),
	)})
	col := invoke("ImageCollection.load", map[string]interface{}{"id": constant(f.Sensor.Collection())})
	col = invoke("Collection.filter", map[string]interface{}{"collection": col, "filter": filter})
	col = invoke("Collection.randomColumn", map[string]interface{}{
		"collection": col,
		"columnName": constant("random"),
		"seed":       constant(job.CompositeSeed),
	})
	col = invoke("Collection.limit", map[string]interface{}{
		"collection": col,
		"key":        constant("random"),
	})
	img := invoke("ImageCollection.mosaic", map[string]interface{}{"collection": col})
	img = sel(img, f.Bands)
	img = visual(img, f.Sensor.VisualMultiplier())
	return newExpression(clip(img, rect))
}
