package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const testOBJ = `# two groups sharing positions
mtllib ship.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 1
vn 0 0 1

o hull
usemtl paint
f 1/1/1 2/1/1 3/2/1 4/2/1

g fin
usemtl missing
f -4//1 -3//1 -2//1
`

const testMTL = `newmtl paint
Kd 0.5 0.25 1
Ns 250
d 0.5
Ke 0 0 0.2
`

func writeOBJ(t *testing.T, obj, mtl string) string {
	t.Helper()
	dir := t.TempDir()
	if mtl != "" {
		if err := os.WriteFile(filepath.Join(dir, "ship.mtl"), []byte(mtl), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "ship.obj")
	if err := os.WriteFile(path, []byte(obj), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOBJ(t *testing.T) {
	sc, err := LoadOBJ(writeOBJ(t, testOBJ, testMTL), discardLogger())
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}

	drawables := sc.Drawables()
	if len(drawables) != 2 {
		t.Fatalf("expected 2 drawables, got %d", len(drawables))
	}

	hull := drawables[0].Mesh
	if hull.Name != "hull" || len(hull.Vertices) != 4 || len(hull.Indices) != 6 {
		t.Errorf("hull: got %q with %d vertices, %d indices", hull.Name, len(hull.Vertices), len(hull.Indices))
	}
	if hull.Vertices[2].UV != (mgl32.Vec2{1, 0}) {
		t.Errorf("uv: expected v flipped to {1 0}, got %v", hull.Vertices[2].UV)
	}
	if hull.Vertices[0].Normal != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("normal: got %v", hull.Vertices[0].Normal)
	}

	mat := hull.Material
	if mat == nil || mat.Name != "paint" {
		t.Fatalf("hull material: got %+v", mat)
	}
	if mat.BaseColor != (Color{0.5, 0.25, 1, 0.5}) {
		t.Errorf("base colour: got %v", mat.BaseColor)
	}
	if mat.Metallic != 0 || mat.Roughness != 0.75 {
		t.Errorf("metallic/roughness: got %v/%v", mat.Metallic, mat.Roughness)
	}
	if mat.Emissive.B != 0.2 {
		t.Errorf("emissive: got %v", mat.Emissive)
	}

	fin := drawables[1].Mesh
	if fin.Name != "fin" || len(fin.Indices) != 3 {
		t.Errorf("fin: got %q with %d indices", fin.Name, len(fin.Indices))
	}
	if fin.Material != nil {
		t.Errorf("fin: expected no material for an unknown name, got %v", fin.Material.Name)
	}
	if fin.Vertices[0].Position != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("negative index: got %v", fin.Vertices[0].Position)
	}
}

func TestLoadOBJMissingMaterialLibrary(t *testing.T) {
	sc, err := LoadOBJ(writeOBJ(t, testOBJ, ""), discardLogger())
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if m := sc.Drawables()[0].Mesh.Material; m != nil {
		t.Errorf("expected no material, got %v", m.Name)
	}
}

func TestLoadOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  string
		want string
	}{
		{"empty", "v 0 0 0\n", "no faces"},
		{"bad index", "v 0 0 0\nv 1 0 0\nf 1 2 3\n", "line 3"},
		{"short vertex", "v 0 0\n", "line 1"},
		{"degenerate face", "v 0 0 0\nv 1 0 0\nf 1 2\n", "face with 2 vertices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOBJ(writeOBJ(t, tt.obj, ""), discardLogger())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadModelDispatchesOnExtension(t *testing.T) {
	sc, err := LoadModel(writeOBJ(t, testOBJ, testMTL), discardLogger())
	if err != nil {
		t.Fatalf("LoadModel obj: %v", err)
	}
	if len(sc.Drawables()) != 2 {
		t.Errorf("obj: expected 2 drawables, got %d", len(sc.Drawables()))
	}

	sc, err = LoadModel(writeTestModel(t), discardLogger())
	if err != nil {
		t.Fatalf("LoadModel glb: %v", err)
	}
	if len(sc.Drawables()) == 0 {
		t.Error("glb: expected drawables")
	}
}
