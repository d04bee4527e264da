package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeTestModel(t *testing.T) string {
	t.Helper()

	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})
	doc.Meshes = []*gltf.Mesh{
		{
			Name: "Hull",
			Primitives: []*gltf.Primitive{{
				Indices:    gltf.Index(indices),
				Attributes: map[string]int{gltf.POSITION: positions},
			}},
		},
		{
			Name: "Cube.021_0",
			Primitives: []*gltf.Primitive{
				{Indices: gltf.Index(indices), Attributes: map[string]int{gltf.POSITION: positions}},
				{Attributes: map[string]int{gltf.POSITION: positions}},
			},
		},
	}
	doc.Nodes = []*gltf.Node{
		{Name: "Ship", Mesh: gltf.Index(0), Translation: [3]float64{1, 2, 3}, Children: []int{1}},
		{Name: "Engine", Mesh: gltf.Index(1), Translation: [3]float64{0, 0, 5}},
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "ship.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	return path
}

func TestLoadGLTF(t *testing.T) {
	sc, err := LoadGLTF(writeTestModel(t), discardLogger())
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}

	ship := sc.Root.Find("Ship")
	if ship == nil || ship.Mesh == nil {
		t.Fatal("expected node Ship with a mesh")
	}
	if ship.Mesh.Name != "Hull-primitive-0" {
		t.Errorf("mesh name: expected Hull-primitive-0, got %q", ship.Mesh.Name)
	}
	if ship.Mesh.IndexCount() != 6 || len(ship.Mesh.Vertices) != 4 {
		t.Errorf("mesh: expected 4 vertices and 6 indices, got %d and %d", len(ship.Mesh.Vertices), ship.Mesh.IndexCount())
	}

	drawables := sc.Drawables()
	if len(drawables) != 3 {
		t.Fatalf("Drawables: expected 3, got %d", len(drawables))
	}
	// Engine primitives inherit the ship translation.
	last := drawables[2]
	if last.Mesh.Name != "Cube.021_0-primitive-1" {
		t.Errorf("last drawable: expected Cube.021_0-primitive-1, got %q", last.Mesh.Name)
	}
	origin := last.World.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	if !origin.ApproxEqualThreshold(mgl32.Vec3{1, 2, 8}, 1e-5) {
		t.Errorf("world origin: expected (1,2,8), got %v", origin)
	}
	if last.Mesh.IndexCount() != 4 {
		t.Errorf("unindexed primitive: expected vertex count 4, got %d", last.Mesh.IndexCount())
	}
}

func TestLoadGLTFMissingFile(t *testing.T) {
	if _, err := LoadGLTF(filepath.Join(t.TempDir(), "missing.gltf"), discardLogger()); err == nil {
		t.Error("LoadGLTF: expected error for missing file")
	}
}

func TestLoadGLTFSkipsBrokenReferences(t *testing.T) {
	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	farIndices := modeler.WriteIndices(doc, []uint16{0, 1, 9})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Hull",
		Primitives: []*gltf.Primitive{
			{Attributes: map[string]int{gltf.POSITION: 7}},
			{Attributes: map[string]int{gltf.POSITION: positions, gltf.NORMAL: 12}},
			{Attributes: map[string]int{gltf.POSITION: positions, gltf.TEXCOORD_0: -1}},
			{Attributes: map[string]int{gltf.POSITION: positions}, Indices: gltf.Index(40)},
			{Attributes: map[string]int{gltf.POSITION: positions}, Indices: gltf.Index(farIndices)},
			{Attributes: map[string]int{gltf.POSITION: positions}, Mode: gltf.PrimitiveLineStrip},
			{Attributes: map[string]int{gltf.POSITION: positions}, Indices: gltf.Index(indices)},
		},
	}}
	doc.Images = []*gltf.Image{{Name: "hull", BufferView: gltf.Index(30), MimeType: "image/png"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}, {Source: gltf.Index(5)}}
	doc.Nodes = []*gltf.Node{{Name: "Ship", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "broken.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}

	sc, err := LoadGLTF(path, discardLogger())
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if len(sc.Textures) != 0 {
		t.Errorf("Textures: expected broken images to be skipped, got %d", len(sc.Textures))
	}
	drawables := sc.Drawables()
	if len(drawables) != 1 {
		t.Fatalf("Drawables: expected only the valid primitive, got %d", len(drawables))
	}
	if got := drawables[0].Mesh.Name; got != "Hull-primitive-6" {
		t.Errorf("surviving primitive: expected Hull-primitive-6, got %q", got)
	}
}

func TestLoaderPublishesScene(t *testing.T) {
	l := NewLoader(discardLogger())
	if l.Scene() != nil {
		t.Fatal("Scene: expected nil before Start")
	}
	l.Start(writeTestModel(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if l.Scene() == nil {
		t.Error("Scene: expected loaded scene")
	}
}

func TestLoaderFailureLeavesSceneNil(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader(discardLogger())
	l.Load = func(string, *slog.Logger) (*Scene, error) { return nil, boom }
	l.Start("ignored")

	if err := l.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Wait: expected boom, got %v", err)
	}
	if l.Scene() != nil {
		t.Error("Scene: expected nil after failure")
	}
	if !errors.Is(l.Err(), boom) {
		t.Errorf("Err: expected boom, got %v", l.Err())
	}
}

func TestLoaderRecoversFromPanic(t *testing.T) {
	l := NewLoader(discardLogger())
	l.Load = func(string, *slog.Logger) (*Scene, error) {
		var nodes []*Node
		return nil, fmt.Errorf("unreachable %v", nodes[3])
	}
	l.Start("broken.glb")

	if err := l.Wait(context.Background()); err == nil || !strings.Contains(err.Error(), "panic") {
		t.Fatalf("Wait: expected a panic error, got %v", err)
	}
	if l.Scene() != nil {
		t.Error("Scene: expected nil after a panic")
	}
}

func TestLoaderDoesNotTouchPublishedScene(t *testing.T) {
	l := NewLoader(discardLogger())
	l.Load = func(string, *slog.Logger) (*Scene, error) {
		sc := NewScene()
		parent := sc.Root
		for i := 0; i < 200; i++ {
			n := NewNode(fmt.Sprintf("node_%d", i))
			n.Mesh = CreateCube(1)
			n.SetPosition(mgl32.Vec3{0, 0, float32(i)})
			parent.AddChild(n)
			parent = n
		}
		return sc, nil
	}
	l.Start("chain")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for {
		if sc := l.Scene(); sc != nil {
			if n := len(sc.Drawables()); n != 200 {
				t.Fatalf("Drawables: expected 200, got %d", n)
			}
		}
		select {
		case <-l.done:
			if err := l.Wait(ctx); err != nil {
				t.Fatalf("Wait: %v", err)
			}
			if len(l.Scene().Drawables()) != 200 {
				t.Fatal("Drawables: expected 200 after load")
			}
			return
		case <-ctx.Done():
			t.Fatal("timed out waiting for the loader")
		default:
		}
	}
}

func TestNodeWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	parent.SetPosition(mgl32.Vec3{1, 0, 0})
	parent.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))
	child.SetPosition(mgl32.Vec3{0, 0, -2})

	p := child.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	if !p.ApproxEqualThreshold(mgl32.Vec3{-1, 0, 0}, 1e-5) {
		t.Errorf("WorldMatrix: expected (-1,0,0), got %v", p)
	}

	override := mgl32.Translate3D(5, 5, 5)
	parent.Transform.Override = &override
	parent.MarkWorldMatrixDirty()
	p = child.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	if !p.ApproxEqualThreshold(mgl32.Vec3{5, 5, 3}, 1e-5) {
		t.Errorf("WorldMatrix with override: expected (5,5,3), got %v", p)
	}
}

func TestHiddenNodesAreNotDrawn(t *testing.T) {
	sc := NewScene()
	n := NewNode("cube")
	n.Mesh = CreateCube(1)
	sc.AddNode(n)
	if len(sc.Drawables()) != 1 {
		t.Fatal("Drawables: expected the cube")
	}
	n.Visible = false
	if len(sc.Drawables()) != 0 {
		t.Error("Drawables: expected hidden node to be skipped")
	}
}

func TestPrimitivesAreClosed(t *testing.T) {
	for _, m := range []*Mesh{CreateCube(2), CreatePyramid(1, 1)} {
		var centre mgl32.Vec3
		for _, v := range m.Vertices {
			centre = centre.Add(v.Position)
		}
		centre = centre.Mul(1 / float32(len(m.Vertices)))

		for i := 0; i < len(m.Indices); i += 3 {
			a := m.Vertices[m.Indices[i]].Position
			b := m.Vertices[m.Indices[i+1]].Position
			c := m.Vertices[m.Indices[i+2]].Position
			n := b.Sub(a).Cross(c.Sub(a))
			if n.Dot(a.Sub(centre)) <= 0 {
				t.Errorf("%s: triangle %d winds inward", m.Name, i/3)
			}
		}
	}
}

func TestLoadTexture(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{0, 0, 255, 255})

	path := filepath.Join(t.TempDir(), "lut.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if tex.Width != 2 || tex.Height != 1 || len(tex.Pixels) != 8 {
		t.Fatalf("LoadTexture: expected 2x1 RGBA, got %dx%d with %d bytes", tex.Width, tex.Height, len(tex.Pixels))
	}
	if tex.Pixels[0] != 255 || tex.Pixels[6] != 255 {
		t.Errorf("LoadTexture: unexpected pixels %v", tex.Pixels)
	}
}
