package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/common"
	"github.com/airbusgeo/geocube-sampler/interface/imagery"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/go-spatial/geom/encoding/wkt"
)

type listImagesResponse struct {
	Images        []image `json:"images"`
	NextPageToken string  `json:"nextPageToken"`
}

type image struct {
	Name       string                 `json:"name"`
	ID         string                 `json:"id"`
	StartTime  time.Time              `json:"startTime"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

func cloudFilter(q imagery.Query) string {
	return fmt.Sprintf("%s >= %g AND %s < %g", q.CloudProperty, q.CloudCoverMin, q.CloudProperty, q.CloudCoverMax)
}

// QueryCatalog implements imagery.Service
func (c *Client) QueryCatalog(ctx context.Context, q imagery.Query) ([]entities.Scene, error) {
	g, err := q.Region.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("QueryCatalog.%w", err)
	}
	region, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("QueryCatalog.Marshal: %w", err)
	}

	params := url.Values{}
	params.Set("startTime", q.Start.UTC().Format(time.RFC3339))
	params.Set("endTime", q.End.UTC().Format(time.RFC3339))
	params.Set("region", string(region))
	params.Set("filter", cloudFilter(q))
	params.Set("pageSize", fmt.Sprint(c.pageSize))
	baseURL := c.projectURL(PublicProject, "assets/"+q.Collection+":listImages")

	var images []image
	for pageToken := ""; ; {
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		newReq, err := service.NewJSONRequest(ctx, "GET", baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("QueryCatalog.%w", err)
		}
		var resp listImagesResponse
		if err := service.GetJSONRetryReq(c.client, newReq, c.retries, &resp); err != nil {
			return nil, fmt.Errorf("QueryCatalog(%s).%w", q.Collection, err)
		}
		images = append(images, resp.Images...)
		if pageToken = resp.NextPageToken; pageToken == "" {
			break
		}
	}
	log.Logger(ctx).Sugar().Debugf("QueryCatalog(%s): %d images found", q.Collection, len(images))

	scenes := make([]entities.Scene, len(images))
	for i, im := range images {
		scenes[i] = newScene(im, q.CloudProperty)
	}
	sort.SliceStable(scenes, func(i, j int) bool { return scenes[i].Date.Before(scenes[j].Date) })
	if q.Limit > 0 && len(scenes) > q.Limit {
		scenes = scenes[:q.Limit]
	}
	return scenes, nil
}

func newScene(im image, cloudProperty string) entities.Scene {
	id := im.ID
	if id == "" {
		if _, after, found := strings.Cut(im.Name, "/assets/"); found {
			id = after
		} else {
			id = im.Name
		}
	}
	scene := entities.Scene{
		ID:         id,
		Date:       im.StartTime,
		Properties: map[string]string{},
	}
	if scene.Date.IsZero() {
		// Some assets have no startTime: the date is encoded in the id
		if date, err := common.GetDateFromSceneID(id); err == nil {
			scene.Date = date
		}
	}
	if im.Geometry != nil && im.Geometry.Geometry != nil {
		scene.GeometryWKT = wkt.MustEncode(im.Geometry.Geometry)
	}
	for k, v := range im.Properties {
		switch v.(type) {
		case string, float64, bool:
			scene.Properties[k] = fmt.Sprintf("%v", v)
		}
	}
	if cc, ok := im.Properties[cloudProperty].(float64); ok {
		scene.CloudCover = cc
	}
	return scene
}
