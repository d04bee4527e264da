package scene

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// PrimitiveName is the mesh name given to primitive i of a glTF mesh.
func PrimitiveName(meshName string, i int) string {
	if meshName == "" {
		meshName = "mesh"
	}
	return fmt.Sprintf("%s-primitive-%d", meshName, i)
}

// LoadGLTF opens a .glb or .gltf file and builds a scene from its default
// scene. Broken images and primitives are logged and skipped.
func LoadGLTF(path string, logger *slog.Logger) (*Scene, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	logger = logger.With("model", path)

	sc := NewScene()
	textures := loadGLTFTextures(doc, filepath.Dir(path), logger)
	for _, t := range textures {
		if t != nil {
			sc.Textures = append(sc.Textures, t)
		}
	}
	materials := loadGLTFMaterials(doc, textures)

	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := loadGLTFPrimitive(doc, PrimitiveName(gm.Name, pi), prim)
			if err != nil {
				logger.Warn("skipping primitive", "mesh", mi, "primitive", pi, "err", err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(materials) {
				m.Material = materials[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)

		if m := gn.MatrixOrDefault(); m != identityMatrix {
			var local mgl32.Mat4
			for j := range m {
				local[j] = float32(m[j])
			}
			n.Transform.Override = &local
		} else {
			t := gn.TranslationOrDefault()
			r := gn.RotationOrDefault()
			s := gn.ScaleOrDefault()
			n.Transform.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
			n.Transform.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
			n.Transform.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
		}

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			if len(prims) == 1 {
				n.Mesh = prims[0]
			} else {
				for _, p := range prims {
					child := NewNode(p.Name)
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	hasParent := make([]bool, len(nodes))
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(nodes) {
				nodes[i].AddChild(nodes[c])
				hasParent[c] = true
			}
		}
	}

	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, root := range doc.Scenes[*doc.Scene].Nodes {
			if root < len(nodes) {
				sc.AddNode(nodes[root])
			}
		}
	} else {
		for i, n := range nodes {
			if !hasParent[i] {
				sc.AddNode(n)
			}
		}
	}

	return sc, nil
}

func loadGLTFTextures(doc *gltf.Document, dir string, logger *slog.Logger) []*Texture {
	out := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source < 0 || *gt.Source >= len(doc.Images) {
			continue
		}
		img := doc.Images[*gt.Source]
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("gltf_img_%d", *gt.Source)
		}

		var (
			tex *Texture
			err error
		)
		switch {
		case img.BufferView != nil:
			if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
				err = fmt.Errorf("buffer view %d out of range (%d)", *img.BufferView, len(doc.BufferViews))
				break
			}
			var raw []byte
			raw, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
			if err == nil {
				tex, err = decodeTextureBytes(name, raw)
			}
		case img.IsEmbeddedResource():
			var raw []byte
			raw, err = img.MarshalData()
			if err == nil {
				tex, err = decodeTextureBytes(name, raw)
			}
		case img.URI != "":
			tex, err = LoadTexture(filepath.Join(dir, img.URI))
		}
		if err != nil {
			logger.Warn("skipping image", "image", *gt.Source, "err", err)
			continue
		}
		out[i] = tex
	}
	return out
}

func loadGLTFMaterials(doc *gltf.Document, textures []*Texture) []*Material {
	texture := func(idx int) *Texture {
		if idx >= 0 && idx < len(textures) {
			return textures[idx]
		}
		return nil
	}

	out := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		mat.DoubleSided = gm.DoubleSided

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.BaseColor = Color{float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3])}
			mat.Metallic = float32(pbr.MetallicFactorOrDefault())
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				mat.BaseColorTexture = texture(pbr.BaseColorTexture.Index)
			}
			if pbr.MetallicRoughnessTexture != nil {
				mat.MetallicRoughnessTexture = texture(pbr.MetallicRoughnessTexture.Index)
			}
		}
		if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
			mat.NormalTexture = texture(*nt.Index)
			mat.NormalScale = float32(nt.ScaleOrDefault())
		}
		if ot := gm.OcclusionTexture; ot != nil && ot.Index != nil {
			mat.OcclusionTexture = texture(*ot.Index)
			mat.OcclusionStrength = float32(ot.StrengthOrDefault())
		}
		if gm.EmissiveTexture != nil {
			mat.EmissiveTexture = texture(gm.EmissiveTexture.Index)
		}
		ef := gm.EmissiveFactor
		mat.Emissive = Color{float32(ef[0]), float32(ef[1]), float32(ef[2]), 1}

		out[i] = mat
	}
	return out
}

// accessor returns doc.Accessors[idx], or an error when the file points
// past the end of the accessor list.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d out of range (%d)", idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

func loadGLTFPrimitive(doc *gltf.Document, name string, prim *gltf.Primitive) (*Mesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("unsupported primitive mode %v", prim.Mode)
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = accessor(doc, idx); err == nil {
			normals, err = modeler.ReadNormal(doc, acr, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = accessor(doc, idx); err == nil {
			uvs, err = modeler.ReadTextureCoord(doc, acr, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}

	verts := make([]Vertex, len(positions))
	for i, p := range positions {
		v := Vertex{
			Position: mgl32.Vec3(p),
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    ColorWhite,
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2(uvs[i])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		if acr, err = accessor(doc, *prim.Indices); err == nil {
			indices, err = modeler.ReadIndices(doc, acr, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		for _, i := range indices {
			if int(i) >= len(verts) {
				return nil, fmt.Errorf("indices: vertex %d out of range (%d)", i, len(verts))
			}
		}
	}

	return NewMesh(name, verts, indices), nil
}
