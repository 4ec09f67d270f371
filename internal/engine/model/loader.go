package model

import (
	"path"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/assets"
	"github.com/Faultbox/trinity-viewer/internal/engine/animation"
	"github.com/Faultbox/trinity-viewer/internal/engine/skeleton"
	"github.com/Faultbox/trinity-viewer/internal/logger"
	"github.com/Faultbox/trinity-viewer/pkg/formats"
)

// Loader reads models and clips from an asset source. File names inside a
// model file are relative to the model's directory.
type Loader struct {
	src assets.Source
	log *zap.Logger

	// DefaultFrameRate is used for clips whose files declare no frame rate.
	DefaultFrameRate float32
}

// NewLoader creates a loader reading from src.
func NewLoader(src assets.Source) *Loader {
	return &Loader{
		src:              src,
		log:              logger.Named("loader"),
		DefaultFrameRate: animation.DefaultFrameRate,
	}
}

// Load reads a model file and everything it references. Mesh files are
// required; the skeleton, materials and variants are best effort.
func (l *Loader) Load(name string) (*Model, error) {
	data, err := l.src.Read(name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model %s", name)
	}
	mf, err := formats.ParseModel(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing model %s", name)
	}

	dir := path.Dir(name)
	m := &Model{Path: name}

	for _, meshFile := range mf.Meshes {
		meshes, err := l.loadMeshes(path.Join(dir, meshFile))
		if err != nil {
			return nil, errors.Wrapf(err, "model %s", name)
		}
		m.Meshes = append(m.Meshes, meshes...)
	}

	if mf.Skeleton != "" {
		m.Skeleton, err = l.loadSkeleton(path.Join(dir, mf.Skeleton))
		if err != nil {
			l.log.Warn("skeleton unavailable, model will not be skinned",
				zap.String("model", name), zap.Error(err))
		}
	}

	m.Materials = l.loadMaterials(dir, mf.Materials)

	if mf.Variants != "" {
		if data, err := l.src.Read(path.Join(dir, mf.Variants)); err != nil {
			l.log.Warn("material variants unavailable", zap.String("model", name), zap.Error(err))
		} else if m.Variants, err = formats.ParseMaterialMapping(data); err != nil {
			l.log.Warn("material variants unreadable", zap.String("model", name), zap.Error(err))
		}
	}

	m.resolveGroups()

	for _, g := range m.Meshes {
		if err := g.Validate(); err != nil {
			l.log.Warn("geometry failed validation", zap.String("model", name), zap.Error(err))
		}
	}

	l.log.Debug("loaded model",
		zap.String("model", name),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("materials", len(m.Materials)))
	return m, nil
}

// loadMeshes reads a shape file and its buffer file and assembles every shape.
func (l *Loader) loadMeshes(shapePath string) ([]*Geometry, error) {
	data, err := l.src.Read(shapePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mesh %s", shapePath)
	}
	sf, err := formats.ParseMeshShape(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing mesh %s", shapePath)
	}

	bufPath := bufferPath(shapePath, sf.BufferFile)
	data, err = l.src.Read(bufPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mesh buffer %s", bufPath)
	}
	bf, err := formats.ParseMeshBuffer(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing mesh buffer %s", bufPath)
	}

	meshes := make([]*Geometry, 0, len(sf.Shapes))
	for i, shape := range sf.Shapes {
		buf, err := bf.Buffer(i)
		if err != nil {
			return nil, errors.Wrapf(err, "shape %q", shape.Name)
		}
		vd, indices, err := DecodeShape(shape, buf)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, Assemble(shape, vd, indices))
	}
	return meshes, nil
}

// bufferPath returns the buffer file of a shape file: the declared name
// relative to the shape file, or the shape file with a .trmbf extension.
func bufferPath(shapePath, declared string) string {
	if declared != "" {
		return path.Join(path.Dir(shapePath), declared)
	}
	return strings.TrimSuffix(shapePath, path.Ext(shapePath)) + formats.ExtMeshBuffer
}

func (l *Loader) loadSkeleton(name string) (*skeleton.Skeleton, error) {
	data, err := l.src.Read(name)
	if err != nil {
		return nil, err
	}
	sf, err := formats.ParseSkeleton(data)
	if err != nil {
		return nil, err
	}
	return skeleton.Build(sf.Nodes)
}

// loadMaterials reads material files, skipping unreadable ones. The result
// is never empty: the default material stands in for a missing set.
func (l *Loader) loadMaterials(dir string, files []string) []Material {
	var out []Material
	for _, f := range files {
		p := path.Join(dir, f)
		data, err := l.src.Read(p)
		if err != nil {
			l.log.Warn("material file unavailable", zap.String("file", p), zap.Error(err))
			continue
		}
		mf, err := formats.ParseMaterial(data)
		if err != nil {
			l.log.Warn("material file unreadable", zap.String("file", p), zap.Error(err))
			continue
		}
		for _, mat := range mf.Materials {
			out = append(out, materialFrom(mat))
		}
	}
	if len(out) == 0 {
		l.log.Warn("no materials, using default", zap.String("dir", dir))
		out = []Material{DefaultMaterial}
	}
	return out
}

// resolveGroups points every group at its material by name. Unknown names
// get the default material, appended once when needed.
func (m *Model) resolveGroups() {
	byName := make(map[string]int, len(m.Materials))
	for i, mat := range m.Materials {
		if _, ok := byName[mat.Name]; !ok {
			byName[mat.Name] = i
		}
	}
	fallback, ok := byName[DefaultMaterial.Name]
	if !ok {
		fallback = -1
	}
	for _, g := range m.Meshes {
		for i := range g.Groups {
			if idx, ok := byName[g.Groups[i].MaterialName]; ok {
				g.Groups[i].MaterialIndex = idx
				continue
			}
			if fallback < 0 {
				m.Materials = append(m.Materials, DefaultMaterial)
				fallback = len(m.Materials) - 1
				byName[DefaultMaterial.Name] = fallback
			}
			g.Groups[i].MaterialIndex = fallback
		}
	}
}

// LoadVariant replaces the model's materials with the files of a named
// variant and re-resolves every group.
func (l *Loader) LoadVariant(m *Model, variant string) error {
	if m.Variants == nil {
		return errors.Errorf("model %s has no material variants", m.Path)
	}
	v := m.Variants.Variant(variant)
	if v == nil {
		return errors.Errorf("model %s has no variant %q", m.Path, variant)
	}
	m.Materials = l.loadMaterials(path.Dir(m.Path), v.Materials)
	m.Variant = variant
	m.resolveGroups()
	return nil
}

// LoadClip reads a clip from <name>.tranm and <name>.tracm. name may carry
// either extension or none. Either file may be missing, but not both.
func (l *Loader) LoadClip(name string) (*animation.Clip, error) {
	base := name
	if ext := strings.ToLower(path.Ext(name)); ext == formats.ExtAnimation || ext == formats.ExtVisibility {
		base = strings.TrimSuffix(name, path.Ext(name))
	}

	var anim *formats.AnimationFile
	data, err := l.src.Read(base + formats.ExtAnimation)
	switch {
	case err == nil:
		if anim, err = formats.ParseAnimation(data); err != nil {
			return nil, errors.Wrapf(err, "parsing clip %s", base)
		}
	case !errors.Is(err, assets.ErrNotFound):
		return nil, errors.Wrapf(err, "reading clip %s", base)
	}

	var vis *formats.VisibilityFile
	data, err = l.src.Read(base + formats.ExtVisibility)
	switch {
	case err == nil:
		if vis, err = formats.ParseVisibility(data); err != nil {
			return nil, errors.Wrapf(err, "parsing visibility %s", base)
		}
	case !errors.Is(err, assets.ErrNotFound):
		return nil, errors.Wrapf(err, "reading visibility %s", base)
	}

	if anim == nil && vis == nil {
		return nil, errors.Wrapf(assets.ErrNotFound, "clip %s", base)
	}
	clip, err := animation.NewClip(path.Base(base), anim, vis)
	if err != nil {
		return nil, err
	}
	if clip.FrameRate <= 0 {
		clip.FrameRate = l.DefaultFrameRate
	}
	return clip, nil
}
