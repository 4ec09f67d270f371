package model

import "github.com/Faultbox/trinity-viewer/pkg/math"

func vec3At(data []float32, i int) math.Vec3 {
	return math.Vec3{X: data[i*3], Y: data[i*3+1], Z: data[i*3+2]}
}

func addVec3At(data []float32, i int, v math.Vec3) {
	data[i*3] += v.X
	data[i*3+1] += v.Y
	data[i*3+2] += v.Z
}

// computeNormals returns area-weighted vertex normals for an indexed
// triangle list. Triangles referencing missing vertices are skipped;
// vertices used by no triangle get a zero normal.
func computeNormals(positions []float32, indices []uint32, vertexCount int) []float32 {
	normals := make([]float32, vertexCount*3)
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := int(indices[t]), int(indices[t+1]), int(indices[t+2])
		if a >= vertexCount || b >= vertexCount || c >= vertexCount {
			continue
		}
		p0 := vec3At(positions, a)
		// Cross product length is twice the triangle area.
		n := vec3At(positions, b).Sub(p0).Cross(vec3At(positions, c).Sub(p0))
		addVec3At(normals, a, n)
		addVec3At(normals, b, n)
		addVec3At(normals, c, n)
	}
	for i := 0; i < vertexCount; i++ {
		n := vec3At(normals, i).Normalize()
		normals[i*3], normals[i*3+1], normals[i*3+2] = n.X, n.Y, n.Z
	}
	return normals
}

func computeBounds(positions []float32) Bounds {
	if len(positions) < 3 {
		return Bounds{}
	}
	b := Bounds{
		Min: [3]float32{positions[0], positions[1], positions[2]},
		Max: [3]float32{positions[0], positions[1], positions[2]},
	}
	for i := 3; i+2 < len(positions); i += 3 {
		updateBounds(&b, [3]float32{positions[i], positions[i+1], positions[i+2]})
	}
	return b
}

func updateBounds(b *Bounds, p [3]float32) {
	for k := 0; k < 3; k++ {
		if p[k] < b.Min[k] {
			b.Min[k] = p[k]
		}
		if p[k] > b.Max[k] {
			b.Max[k] = p[k]
		}
	}
}
