package server

import (
	"fmt"
	"math"
	"net/http"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Hit          bool           `json:"hit"`
	MaterialType string         `json:"materialType"`
	Point        [3]float64     `json:"point"`
	Normal       [3]float64     `json:"normal"`
	Distance     float64        `json:"distance"`
	FrontFace    bool           `json:"frontFace"`
	Emission     [3]float64     `json:"emission"`
	HasEval      bool           `json:"hasEval"`
	Background   [3]float64     `json:"background"`
	Properties   map[string]any `json:"properties"`
}

// extractMaterialInfo extracts material information with type assertions
func extractMaterialInfo(mat material.Material) (string, map[string]any) {
	properties := make(map[string]any)

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = toArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = toArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Emissive:
		properties["emission"] = toArray(m.Emission)
		properties["color"] = hexColor(m.Emission)
		return "emissive", properties

	case nil:
		return "none", properties

	default:
		return fmt.Sprintf("%T", mat), properties
	}
}

// inspectPixel traces the center of pixel (x, y) through the camera and
// describes the first surface it hits
func inspectPixel(sceneObj *scene.Scene, width, height, x, y int) InspectResponse {
	// Film rows run top to bottom, camera t runs bottom to top
	u := (float64(x) + 0.5) / float64(width)
	v := 1 - (float64(y)+0.5)/float64(height)
	ray := sceneObj.Camera.GetRay(u, v, core.Vec2{}, 0)

	sd, ok := sceneObj.Intersect(ray, 0.001, math.Inf(1))
	if !ok {
		return InspectResponse{
			Background: toArray(sceneObj.BackgroundColor(ray)),
			Properties: map[string]any{},
		}
	}

	materialType, properties := extractMaterialInfo(sd.Material)
	return InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		Point:        toArray(sd.P),
		Normal:       toArray(sd.N),
		Distance:     sd.T,
		FrontFace:    sd.Flag&integrator.SDBackfacing == 0,
		Emission:     toArray(sd.Emission),
		HasEval:      sd.Flag&integrator.SDBsdfHasEval != 0,
		Properties:   properties,
	}
}

// handleInspect describes what the camera sees through one pixel
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	sceneName := values.Get("scene")
	if sceneName == "" {
		sceneName = "cornell"
	}

	width, err := parseIntParam(values, "width", 400, 1, 2000)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	height, err := parseIntParam(values, "height", 400, 1, 2000)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	x, err := parseIntParam(values, "x", width/2, 0, width-1)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	y, err := parseIntParam(values, "y", height/2, 0, height-1)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sceneObj, err := scene.New(sceneName, width, height)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, inspectPixel(sceneObj, width, height, x, y))
}

func toArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// hexColor formats a color as #rrggbb, clamping each channel to [0, 1]
func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}
