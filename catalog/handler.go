package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/airbusgeo/geocube-sampler/grid"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"github.com/gorilla/mux"
)

const planJSONField = "plan"

// Server serves the plan previews. Nothing is dispatched.
type Server struct {
	Planner  *Planner
	Defaults Defaults
}

func (s *Server) AddHandler(r *mux.Router) {
	r.HandleFunc("/plan", s.PlanHandler).Methods("POST")
	r.HandleFunc("/grid/{key}", s.GridHandler).Methods("GET")
}

func readField(req *http.Request, field string) ([]byte, error) {
	if req.FormValue(field) != "" {
		return []byte(req.FormValue(field)), nil
	}
	file, _, err := req.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	io.Copy(&buf, file)
	return buf.Bytes(), nil
}

// loadPlanRequest reads the request from the body (application/json) or from the "plan" form field
func (s *Server) loadPlanRequest(req *http.Request) (PlanRequest, error) {
	planReq := s.Defaults.NewPlanRequest()
	var data []byte
	var err error
	if mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type")); mediaType == "application/json" {
		data, err = io.ReadAll(req.Body)
	} else {
		data, err = readField(req, planJSONField)
	}
	if err != nil {
		return planReq, service.MakeFatal(fmt.Errorf("loadPlanRequest: %w", err))
	}
	if len(data) == 0 {
		return planReq, service.MakeFatal(fmt.Errorf("loadPlanRequest: missing required field: '%s' (application/json)", planJSONField))
	}
	if err := json.Unmarshal(data, &planReq); err != nil {
		return planReq, service.MakeFatal(fmt.Errorf("loadPlanRequest: %w\nJSON:\n%s", err, data))
	}
	return planReq, nil
}

func (s *Server) plan(req *http.Request) (*Plan, error) {
	planReq, err := s.loadPlanRequest(req)
	if err != nil {
		return nil, err
	}
	area, filter, mosaic, err := planReq.Resolve()
	if err != nil {
		return nil, service.MakeFatal(err)
	}
	return s.Planner.Plan(req.Context(), area, filter, mosaic)
}

// PlanHandler returns the GeoJSON manifest of the plan of the request
func (s *Server) PlanHandler(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	plan, err := s.plan(req)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("PlanHandler: %v", err)
		switch {
		case service.Fatal(err):
			w.WriteHeader(400)
		case errors.Is(err, service.ErrAuthenticationRequired):
			w.WriteHeader(401)
		default:
			w.WriteHeader(500)
		}
		fmt.Fprintf(w, "%v", err)
		return
	}

	body, err := plan.MarshalManifest()
	if err != nil {
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Plan-Seed", fmt.Sprint(plan.Seed))
	w.Write(body)
}

// GridHandler returns the GeoJSON region of a grid-zone designator
func (s *Server) GridHandler(w http.ResponseWriter, req *http.Request) {
	key, err := grid.ParseKey(mux.Vars(req)["key"])
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}
	g, err := key.Bounds().Region().GeoJSON()
	if err != nil {
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	json.NewEncoder(w).Encode(g)
}
