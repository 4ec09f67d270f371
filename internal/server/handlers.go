package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/Faultbox/trinity-viewer/internal/assets"
	"github.com/Faultbox/trinity-viewer/internal/engine/animation"
	"github.com/Faultbox/trinity-viewer/internal/engine/model"
	"github.com/Faultbox/trinity-viewer/internal/engine/skeleton"
	"github.com/Faultbox/trinity-viewer/pkg/math"
)

type modelSummary struct {
	Path      string           `json:"path"`
	Meshes    []meshSummary    `json:"meshes"`
	Materials []model.Material `json:"materials"`
	Bones     int              `json:"bones"`
	Variants  []string         `json:"variants,omitempty"`
}

type meshSummary struct {
	Name            string        `json:"name"`
	MeshName        string        `json:"meshName"`
	VertexCount     int           `json:"vertexCount"`
	IndexCount      int           `json:"indexCount"`
	Groups          []model.Group `json:"groups"`
	Bounds          model.Bounds  `json:"bounds"`
	ComputedNormals bool          `json:"computedNormals,omitempty"`
}

type geometryResponse struct {
	Name         string        `json:"name"`
	MeshName     string        `json:"meshName"`
	VertexCount  int           `json:"vertexCount"`
	Positions    []float32     `json:"positions"`
	Normals      []float32     `json:"normals,omitempty"`
	Tangents     []float32     `json:"tangents,omitempty"`
	Binormals    []float32     `json:"binormals,omitempty"`
	UV0          []float32     `json:"uv0,omitempty"`
	UV1          []float32     `json:"uv1,omitempty"`
	Colors       []float32     `json:"colors,omitempty"`
	BlendIndices []float32     `json:"blendIndices,omitempty"`
	BlendWeights []float32     `json:"blendWeights,omitempty"`
	Indices      []uint32      `json:"indices"`
	Groups       []model.Group `json:"groups"`
	Bounds       model.Bounds  `json:"bounds"`
}

type boneJSON struct {
	Name        string     `json:"name"`
	Rig         int32      `json:"rig"`
	Parent      int        `json:"parent"`
	Type        string     `json:"type"`
	Translation [3]float32 `json:"translation"`
	Rotation    [4]float32 `json:"rotation"` // x, y, z, w
	Scale       [3]float32 `json:"scale"`
	Local       math.Mat4  `json:"local"`
	World       math.Mat4  `json:"world"`
	InverseBind math.Mat4  `json:"inverseBind"`
}

type poseResponse struct {
	Clip       string          `json:"clip"`
	Frame      float32         `json:"frame"`
	FrameCount uint32          `json:"frameCount"`
	FrameRate  float32         `json:"frameRate"`
	Loop       bool            `json:"loop"`
	State      string          `json:"state"`
	Bones      []boneJSON      `json:"bones,omitempty"`
	Skin       []math.Mat4     `json:"skin,omitempty"`
	Visibility map[string]bool `json:"visibility"`
	Unmatched  []string        `json:"unmatched,omitempty"` // Channels naming no bone
}

func bonesJSON(s *skeleton.Skeleton) []boneJSON {
	if s == nil {
		return nil
	}
	out := make([]boneJSON, s.Len())
	for i := range s.Bones {
		b := &s.Bones[i]
		out[i] = boneJSON{
			Name:        b.Name,
			Rig:         b.Rig,
			Parent:      b.Parent,
			Type:        b.Type.String(),
			Translation: b.Translation.Array(),
			Rotation:    [4]float32{b.Rotation.X, b.Rotation.Y, b.Rotation.Z, b.Rotation.W},
			Scale:       b.Scale.Array(),
			Local:       b.Local,
			World:       b.World,
			InverseBind: b.InverseBind,
		}
	}
	return out
}

// poseJSON snapshots a player. Visibility is always a non-nil map.
func poseJSON(p *animation.Player) poseResponse {
	c := p.Clip()
	resp := poseResponse{
		Clip:       c.Name,
		Frame:      p.Frame(),
		FrameCount: c.FrameCount,
		FrameRate:  c.FrameRate,
		Loop:       c.Loop,
		State:      p.State().String(),
		Visibility: p.Visibility(),
	}
	if resp.Visibility == nil {
		resp.Visibility = map[string]bool{}
	}
	if skel := p.Skeleton(); skel != nil {
		resp.Bones = bonesJSON(skel)
		resp.Skin = skel.SkinMatrices()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, errors.Wrap(err, "encoding response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, assets.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeErrorStatus(w, status, err)
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.listModels()
	if err != nil {
		writeError(w, err)
		return
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": names})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.loadModel(mux.Vars(r)["path"])
	if err != nil {
		writeError(w, err)
		return
	}

	resp := modelSummary{Path: m.Path, Materials: m.Materials}
	for _, g := range m.Meshes {
		resp.Meshes = append(resp.Meshes, meshSummary{
			Name:            g.Name,
			MeshName:        g.MeshName,
			VertexCount:     g.VertexCount,
			IndexCount:      g.Indices.Len(),
			Groups:          g.Groups,
			Bounds:          g.Bounds,
			ComputedNormals: g.ComputedNormals,
		})
	}
	if m.Skeleton != nil {
		resp.Bones = m.Skeleton.Len()
	}
	if m.Variants != nil {
		for _, v := range m.Variants.Variants {
			resp.Variants = append(resp.Variants, v.Name)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, err := s.loadModel(vars["path"])
	if err != nil {
		writeError(w, err)
		return
	}
	g := m.Mesh(vars["mesh"])
	if g == nil {
		writeErrorStatus(w, http.StatusNotFound, errors.Errorf("model %s has no mesh %q", m.Path, vars["mesh"]))
		return
	}
	writeJSON(w, http.StatusOK, geometryResponse{
		Name:         g.Name,
		MeshName:     g.MeshName,
		VertexCount:  g.VertexCount,
		Positions:    g.Positions,
		Normals:      g.Normals,
		Tangents:     g.Tangents,
		Binormals:    g.Binormals,
		UV0:          g.UV0,
		UV1:          g.UV1,
		Colors:       g.Colors,
		BlendIndices: g.BlendIndices,
		BlendWeights: g.BlendWeights,
		Indices:      g.Indices.Uint32(),
		Groups:       g.Groups,
		Bounds:       g.Bounds,
	})
}

func (s *Server) handleSkeleton(w http.ResponseWriter, r *http.Request) {
	m, err := s.loadModel(mux.Vars(r)["path"])
	if err != nil {
		writeError(w, err)
		return
	}
	if m.Skeleton == nil {
		writeErrorStatus(w, http.StatusNotFound, errors.Errorf("model %s has no skeleton", m.Path))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bones": bonesJSON(m.Skeleton),
		"roots": m.Skeleton.Roots,
	})
}

// handleClip samples a clip at ?frame=N (default 0) on a copy of the
// model's skeleton.
func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, err := s.loadModel(vars["path"])
	if err != nil {
		writeError(w, err)
		return
	}

	var frame float64
	if f := r.URL.Query().Get("frame"); f != "" {
		if frame, err = strconv.ParseFloat(f, 32); err != nil {
			writeErrorStatus(w, http.StatusBadRequest, errors.Errorf("invalid frame %q", f))
			return
		}
	}

	clip, err := s.clip(m, vars["clip"])
	if err != nil {
		writeError(w, err)
		return
	}

	var skel *skeleton.Skeleton
	if m.Skeleton != nil {
		skel = m.Skeleton.Clone()
	}
	p := animation.NewPlayer(clip, skel)
	p.Seek(float32(frame))

	resp := poseJSON(p)
	resp.Unmatched = clip.UnmatchedBones(skel)
	writeJSON(w, http.StatusOK, resp)
}
