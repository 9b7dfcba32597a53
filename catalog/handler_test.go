package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog"
	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/interface/imagery"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		Geometry   json.RawMessage        `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
}

var _ = Describe("Handler", func() {
	var (
		svc    *MokeService
		router *mux.Router
	)

	BeforeEach(func() {
		svc = &MokeService{Scenes: func(i int, q imagery.Query) ([]entities.Scene, error) {
			return []entities.Scene{scene("LC08_017040_20220115", time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), "")}, nil
		}}
		router = mux.NewRouter()
		s := &catalog.Server{Planner: &catalog.Planner{Service: svc}, Defaults: catalog.DefaultConfig()}
		s.AddHandler(router)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/plan", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should return the manifest of a mosaic plan", func() {
		w := post(`{"grid_key":"17R","custom_mosaics":true,"seed":42,"maxims":4}`)
		Expect(w.Code).To(Equal(200))
		Expect(w.Header().Get("X-Plan-Seed")).To(Equal("42"))
		var fc featureCollection
		Expect(json.Unmarshal(w.Body.Bytes(), &fc)).To(Succeed())
		Expect(fc.Type).To(Equal("FeatureCollection"))
		Expect(fc.Features).To(HaveLen(4))
		Expect(fc.Features[3].Properties["name"]).To(Equal("l8_17R_00003.tif"))
		Expect(svc.Queries()).To(HaveLen(4))
	})

	It("should use the defaults", func() {
		w := post(`{}`)
		Expect(w.Code).To(Equal(200))
		var fc featureCollection
		Expect(json.Unmarshal(w.Body.Bytes(), &fc)).To(Succeed())
		Expect(fc.Features).To(HaveLen(1))
		Expect(fc.Features[0].Properties["name"]).To(Equal("l8_aoi_20220115_00000.tif"))
	})

	It("should accept the plan as a form field", func() {
		form := url.Values{"plan": {`{"bounds":[-82,26,-80,28],"region":"florida","format":"png"}`}}
		req := httptest.NewRequest("POST", "/plan", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(200))
		Expect(w.Body.String()).To(ContainSubstring("l8_florida_20220115_00000.png"))
	})

	It("should accept a json body with parameters in the content type", func() {
		for _, contentType := range []string{"application/json; charset=utf-8", "Application/JSON"} {
			req := httptest.NewRequest("POST", "/plan", strings.NewReader(`{"bounds":[-82,26,-80,28],"region":"florida"}`))
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(200), contentType)
			Expect(w.Body.String()).To(ContainSubstring("l8_florida_20220115_00000.tif"))
		}
	})

	It("should reject invalid requests before any query", func() {
		for _, body := range []string{
			`{"cloud_cover_min":50,"cloud_cover_max":30}`,
			`{"grid_key":"32X"}`,
			`{"bounds":[-78,24,-84,32]}`,
			`{"custom_mosaics":true,"horizontal_buffer":-1}`,
			`not json`,
			``,
		} {
			w := post(body)
			Expect(w.Code).To(Equal(http.StatusBadRequest), body)
		}
		Expect(svc.Queries()).To(BeEmpty())
	})

	It("should return the region of a grid key", func() {
		req := httptest.NewRequest("GET", "/grid/7r", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(200))
		var g struct {
			Type        string         `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &g)).To(Succeed())
		Expect(g.Type).To(Equal("Polygon"))
		Expect(g.Coordinates[0]).To(ContainElement([2]float64{-144, 24}))

		req = httptest.NewRequest("GET", "/grid/7I", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(400))
	})
})
