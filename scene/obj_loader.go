package scene

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// LoadModel picks a loader by file extension: .obj is read as Wavefront,
// anything else as glTF.
func LoadModel(path string, logger *slog.Logger) (*Scene, error) {
	if strings.EqualFold(filepath.Ext(path), ".obj") {
		return LoadOBJ(path, logger)
	}
	return LoadGLTF(path, logger)
}

// LoadOBJ reads a Wavefront .obj file. Each o/g group becomes one node with
// one mesh. Materials from mtllib are mapped onto the metallic-roughness
// model; a missing .mtl is logged and the default material used.
func LoadOBJ(path string, logger *slog.Logger) (*Scene, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("obj open %q: %w", path, err)
	}
	defer f.Close()

	logger = logger.With("model", path)
	p := &objParser{
		dir:       filepath.Dir(path),
		logger:    logger,
		materials: make(map[string]*Material),
	}
	meshes, err := p.parse(f)
	if err != nil {
		return nil, fmt.Errorf("obj %q: %w", path, err)
	}

	sc := NewScene()
	for _, mat := range p.materials {
		sc.Textures = append(sc.Textures, mat.Textures()...)
	}
	for _, m := range meshes {
		node := NewNode(m.Name)
		node.Mesh = m
		sc.AddNode(node)
	}
	return sc, nil
}

type objParser struct {
	dir       string
	logger    *slog.Logger
	materials map[string]*Material

	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2

	current  *Mesh
	material string
	seen     map[string]uint32 // "v/vt/vn" → vertex index in current
	meshes   []*Mesh
}

func (p *objParser) parse(r io.Reader) ([]*Mesh, error) {
	p.begin("default")

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v mgl32.Vec3
			v, err = parseVec3(fields[1:])
			p.positions = append(p.positions, v)
		case "vn":
			var v mgl32.Vec3
			v, err = parseVec3(fields[1:])
			p.normals = append(p.normals, v)
		case "vt":
			var v mgl32.Vec2
			v, err = parseVec2(fields[1:])
			p.uvs = append(p.uvs, mgl32.Vec2{v[0], 1 - v[1]})
		case "f":
			err = p.face(fields[1:])
		case "o", "g":
			name := "unnamed"
			if len(fields) > 1 {
				name = fields[1]
			}
			p.begin(name)
		case "usemtl":
			if len(fields) > 1 {
				p.material = fields[1]
				p.current.Material = p.lookupMaterial(p.material)
			}
		case "mtllib":
			for _, name := range fields[1:] {
				p.loadMTL(filepath.Join(p.dir, name))
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.flush()

	if len(p.meshes) == 0 {
		return nil, fmt.Errorf("no faces")
	}
	return p.meshes, nil
}

// begin starts a new group, keeping the active material.
func (p *objParser) begin(name string) {
	p.flush()
	p.current = NewMesh(name, nil, nil)
	p.current.Material = p.lookupMaterial(p.material)
	p.seen = make(map[string]uint32)
}

func (p *objParser) flush() {
	if p.current != nil && len(p.current.Indices) > 0 {
		p.meshes = append(p.meshes, p.current)
	}
	p.current = nil
}

// face adds a polygon as a triangle fan.
func (p *objParser) face(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("face with %d vertices", len(refs))
	}
	idx := make([]uint32, 0, len(refs))
	for _, ref := range refs {
		if i, ok := p.seen[ref]; ok {
			idx = append(idx, i)
			continue
		}
		v, err := p.vertex(ref)
		if err != nil {
			return err
		}
		i := uint32(len(p.current.Vertices))
		p.current.Vertices = append(p.current.Vertices, v)
		p.seen[ref] = i
		idx = append(idx, i)
	}
	for i := 2; i < len(idx); i++ {
		p.current.Indices = append(p.current.Indices, idx[0], idx[i-1], idx[i])
	}
	return nil
}

// vertex resolves "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices count
// back from the latest element.
func (p *objParser) vertex(ref string) (Vertex, error) {
	v := Vertex{Color: ColorWhite}
	parts := strings.Split(ref, "/")

	i, err := objIndex(parts[0], len(p.positions))
	if err != nil {
		return v, fmt.Errorf("position %q: %w", ref, err)
	}
	v.Position = p.positions[i]

	if len(parts) > 1 && parts[1] != "" {
		i, err := objIndex(parts[1], len(p.uvs))
		if err != nil {
			return v, fmt.Errorf("uv %q: %w", ref, err)
		}
		v.UV = p.uvs[i]
	}
	if len(parts) > 2 && parts[2] != "" {
		i, err := objIndex(parts[2], len(p.normals))
		if err != nil {
			return v, fmt.Errorf("normal %q: %w", ref, err)
		}
		v.Normal = p.normals[i]
	}
	return v, nil
}

func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i += n + 1
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("index %d out of range 1..%d", i, n)
	}
	return i - 1, nil
}

func (p *objParser) lookupMaterial(name string) *Material {
	if m, ok := p.materials[name]; ok {
		return m
	}
	return nil
}

// loadMTL merges the materials of an .mtl file. Kd becomes the base colour,
// Ns (0..1000) is inverted into roughness, d/Tr into alpha and Ke into
// emission. OBJ surfaces are treated as dielectric.
func (p *objParser) loadMTL(path string) {
	f, err := os.Open(path)
	if err != nil {
		p.logger.Warn("skipping material library", "path", path, "err", err)
		return
	}
	defer f.Close()

	var current *Material
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" && len(fields) > 1 {
			current = DefaultMaterial()
			current.Name = fields[1]
			current.Metallic = 0
			p.materials[current.Name] = current
			continue
		}
		if current == nil {
			continue
		}

		switch fields[0] {
		case "Kd":
			if c, err := parseVec3(fields[1:]); err == nil {
				current.BaseColor = Color{c[0], c[1], c[2], current.BaseColor.A}
			}
		case "Ke":
			if c, err := parseVec3(fields[1:]); err == nil {
				current.Emissive = Color{c[0], c[1], c[2], 1}
			}
		case "Ns":
			if ns, err := parseFloats(fields[1:], 1); err == nil {
				current.Roughness = mgl32.Clamp(1-ns[0]/1000, 0, 1)
			}
		case "d", "Tr":
			if d, err := parseFloats(fields[1:], 1); err == nil {
				if fields[0] == "Tr" {
					d[0] = 1 - d[0]
				}
				current.BaseColor.A = d[0]
			}
		case "map_Kd":
			if len(fields) > 1 {
				tex, err := LoadTexture(filepath.Join(filepath.Dir(path), fields[len(fields)-1]))
				if err != nil {
					p.logger.Warn("skipping texture", "material", current.Name, "err", err)
					continue
				}
				current.BaseColorTexture = tex
			}
		}
	}
	if err := scanner.Err(); err != nil {
		p.logger.Warn("material library truncated", "path", path, "err", err)
	}
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	v, err := parseFloats(fields, 3)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}

func parseVec2(fields []string) (mgl32.Vec2, error) {
	v, err := parseFloats(fields, 2)
	if err != nil {
		return mgl32.Vec2{}, err
	}
	return mgl32.Vec2{v[0], v[1]}, nil
}
