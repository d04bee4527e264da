package renderer

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"spaceflight/input"
	"spaceflight/rig"
	"spaceflight/scene"
	"spaceflight/skybox"
)

// recorder is shared by the fake device and the fake face target so tests
// can check the interleaving of regeneration and drawing.
type recorder struct {
	ops []string
}

func (r *recorder) add(op string) { r.ops = append(r.ops, op) }

func (r *recorder) count(op string) int {
	n := 0
	for _, o := range r.ops {
		if o == op {
			n++
		}
	}
	return n
}

type meshDraw struct {
	pipeline Pipeline
	call     DrawCall
}

type fakeDevice struct {
	rec      *recorder
	lighting Lighting
	draws    []meshDraw
	debug    int
	env      Environment
}

func (d *fakeDevice) BeginFrame(width, height int)                       { d.rec.add("frame") }
func (d *fakeDevice) BeginShadowPass()                                   { d.rec.add("shadow-begin") }
func (d *fakeDevice) DrawShadow(mesh *scene.Mesh, lightSpace mgl32.Mat4) { d.rec.add("shadow") }
func (d *fakeDevice) EndShadowPass()                                     { d.rec.add("shadow-end") }

func (d *fakeDevice) BeginMainPass(l Lighting) {
	d.rec.add("main-begin")
	d.lighting = l
}

func (d *fakeDevice) DrawMesh(p Pipeline, call DrawCall) {
	d.rec.add("mesh")
	d.draws = append(d.draws, meshDraw{p, call})
}

func (d *fakeDevice) DrawDebug(mesh *scene.Mesh, mvp mgl32.Mat4) {
	d.rec.add("debug")
	d.debug++
}

func (d *fakeDevice) DrawSkybox(view, projection mgl32.Mat4, env Environment) {
	d.rec.add("skybox")
	d.env = env
}

type fakeTarget struct {
	rec *recorder
	err error
}

func (t *fakeTarget) RenderFace(cube skybox.Cubemap, face skybox.Face, position mgl32.Vec3) error {
	if t.err != nil {
		return t.err
	}
	t.rec.add("face")
	return nil
}

type fakeScenes struct{ sc *scene.Scene }

func (f fakeScenes) Scene() *scene.Scene { return f.sc }

const (
	keyCameraLight = 76
	keyDebug       = 80
	keyFreeCamera  = 86
)

type harness struct {
	o      *Orchestrator
	dev    *fakeDevice
	target *fakeTarget
	rec    *recorder
}

func newHarness(t *testing.T, sc *scene.Scene, opts Options) *harness {
	t.Helper()
	rec := &recorder{}
	dev := &fakeDevice{rec: rec}
	target := &fakeTarget{rec: rec}
	state := input.NewState(input.Bindings{
		input.ToggleCameraLight:  keyCameraLight,
		input.ToggleDebugObjects: keyDebug,
		input.ToggleFreeCamera:   keyFreeCamera,
	})
	parts := Parts{
		Device: dev,
		Rig:    rig.New(rig.Relative, mgl32.Vec3{0, 0, -15}),
		Input:  state,
		Mapper: input.NewMapper(input.DefaultParams()),
		Sky:    skybox.NewPipeline(target, 1, 2, opts.BaseThreshold, skybox.Progressive),
		Scenes: fakeScenes{sc},
	}
	return &harness{
		o:      NewOrchestrator(parts, opts, slog.New(slog.DiscardHandler)),
		dev:    dev,
		target: target,
		rec:    rec,
	}
}

func testScene(names ...string) *scene.Scene {
	sc := scene.NewScene()
	for _, name := range names {
		node := scene.NewNode(name + "-node")
		node.Mesh = scene.CreateCube(1)
		node.Mesh.Name = name
		sc.AddNode(node)
	}
	return sc
}

func frame(tick float64) FrameInfo {
	return FrameInfo{Tick: tick, Width: 800, Height: 600}
}

func TestRenderOrder(t *testing.T) {
	h := newHarness(t, testScene("a", "b"), DefaultOptions())
	h.o.Render(frame(0))

	want := strings.Repeat("face ", 2*skybox.FaceCount) +
		"frame shadow-begin shadow shadow shadow-end main-begin mesh mesh skybox"
	if got := strings.Join(h.rec.ops, " "); got != want {
		t.Errorf("Render order:\n got %s\nwant %s", got, want)
	}
}

func TestRenderWithoutSceneSkipsScenePasses(t *testing.T) {
	h := newHarness(t, nil, DefaultOptions())
	h.o.Render(frame(0))
	h.rec.ops = nil
	h.o.Render(frame(1))

	if got := strings.Join(h.rec.ops, " "); got != "frame skybox" {
		t.Errorf("Render without scene: got %q", got)
	}
	if h.o.Stats().Meshes != 0 {
		t.Errorf("Stats.Meshes: expected 0, got %d", h.o.Stats().Meshes)
	}
}

func TestSkyboxFailureSkipsSkyDraw(t *testing.T) {
	h := newHarness(t, testScene("a"), DefaultOptions())
	h.target.err = skybox.ErrIncompleteTarget
	h.o.Render(frame(0))

	if h.rec.count("skybox") != 0 {
		t.Error("skybox drawn after a failed regeneration")
	}
	if h.rec.count("mesh") != 1 {
		t.Errorf("scene pass: expected 1 mesh draw, got %d", h.rec.count("mesh"))
	}
	if h.o.Stats().SkyDrawn {
		t.Error("Stats.SkyDrawn set after a failed regeneration")
	}

	// The next frame retries and recovers.
	h.target.err = nil
	h.o.Render(frame(1))
	if h.rec.count("skybox") != 1 {
		t.Errorf("skybox after recovery: expected 1 draw, got %d", h.rec.count("skybox"))
	}
}

func TestPipelineSelectionByReceiver(t *testing.T) {
	opts := DefaultOptions()
	opts.Receivers = []string{"hull", "wing-node"}
	h := newHarness(t, testScene("hull", "wing", "cockpit"), opts)
	h.o.Render(frame(0))

	want := map[string]Pipeline{
		"hull":    PipelinePBRShadowed,
		"wing":    PipelinePBRShadowed,
		"cockpit": PipelinePBR,
	}
	if len(h.dev.draws) != len(want) {
		t.Fatalf("expected %d draws, got %d", len(want), len(h.dev.draws))
	}
	for _, d := range h.dev.draws {
		if d.pipeline != want[d.call.Mesh.Name] {
			t.Errorf("mesh %q: expected %v, got %v", d.call.Mesh.Name, want[d.call.Mesh.Name], d.pipeline)
		}
	}
	if s := h.o.Stats(); s.Shadowed != 2 || s.Meshes != 3 {
		t.Errorf("Stats: expected 3 meshes, 2 shadowed, got %+v", s)
	}
}

func TestEmptyReceiversShadowEverything(t *testing.T) {
	h := newHarness(t, testScene("a", "b"), DefaultOptions())
	h.o.Render(frame(0))
	for _, d := range h.dev.draws {
		if d.pipeline != PipelinePBRShadowed {
			t.Errorf("mesh %q: expected %v, got %v", d.call.Mesh.Name, PipelinePBRShadowed, d.pipeline)
		}
	}
}

func TestMainPassMatrices(t *testing.T) {
	h := newHarness(t, testScene("a"), DefaultOptions())
	h.o.Rig.Ship.Translate(mgl32.Vec3{3, 0, 0})
	h.o.Render(frame(0))

	r := h.o.Rig
	view := rig.ComposeChaseView(r.Camera, &r.Ship.Frame, r.ShipDelta)
	model := r.Ship.World
	wantMVP := h.o.Projection(800, 600).Mul4(view).Mul4(model)

	got := h.dev.draws[0].call
	if !got.Model.ApproxEqualThreshold(model, 1e-5) {
		t.Errorf("Model: expected %v, got %v", model, got.Model)
	}
	if !got.MVP.ApproxEqualThreshold(wantMVP, 1e-4) {
		t.Errorf("MVP: expected %v, got %v", wantMVP, got.MVP)
	}
}

func TestEngineLightFollowsShipAndThrust(t *testing.T) {
	h := newHarness(t, testScene("a"), DefaultOptions())
	h.o.Rig.Ship.Thrust = 0.5
	h.o.Render(frame(0))

	lights := h.dev.lighting.PointLights
	if len(lights) != 1 {
		t.Fatalf("expected 1 light, got %d", len(lights))
	}
	if lights[0].Intensity != 0.5 {
		t.Errorf("engine intensity: expected 0.5, got %v", lights[0].Intensity)
	}
	want := mgl32.Vec3{0, 0.28, 6.7}
	if !lights[0].Position.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("engine position: expected %v, got %v", want, lights[0].Position)
	}
}

func TestCameraLightToggle(t *testing.T) {
	h := newHarness(t, testScene("a"), DefaultOptions())
	h.o.Input.KeyDown(keyCameraLight)
	h.o.Input.KeyUp(keyCameraLight)
	h.o.Render(frame(0))

	lights := h.dev.lighting.PointLights
	if len(lights) != 2 {
		t.Fatalf("expected 2 lights, got %d", len(lights))
	}
	if lights[1].Color != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("camera light colour: expected red, got %v", lights[1].Color)
	}
	if lights[1].Position != h.dev.lighting.ViewPosition {
		t.Errorf("camera light position: expected %v, got %v", h.dev.lighting.ViewPosition, lights[1].Position)
	}
}

func TestDebugMarkers(t *testing.T) {
	h := newHarness(t, nil, DefaultOptions())
	h.o.Render(frame(0))
	if h.dev.debug != 0 {
		t.Fatalf("markers drawn while hidden: %d", h.dev.debug)
	}

	h.o.Input.KeyUp(keyDebug)
	h.o.Render(frame(1))
	if h.dev.debug != 6 {
		t.Errorf("expected 6 marker draws, got %d", h.dev.debug)
	}
}

func TestThresholdGrowsWithSpeed(t *testing.T) {
	h := newHarness(t, nil, DefaultOptions())
	h.o.Render(frame(0))
	if h.o.Sky.Threshold() != 10 {
		t.Errorf("threshold at rest: expected 10, got %v", h.o.Sky.Threshold())
	}

	h.o.Rig.Ship.Velocity = mgl32.Vec3{0, 0, -0.5}
	h.o.Render(frame(0))
	if got := h.o.Sky.Threshold(); got < 24.99 || got > 25.01 {
		t.Errorf("threshold at 0.5: expected 25, got %v", got)
	}
}

func TestFreeCameraTransitionHasNoJump(t *testing.T) {
	h := newHarness(t, nil, DefaultOptions())
	h.o.Render(frame(0))
	before := h.o.Rig.Camera.Position

	h.o.Input.KeyUp(keyFreeCamera)
	h.o.Render(frame(0))
	after := h.o.Rig.Camera.Position

	if !before.ApproxEqualThreshold(after, 1e-4) {
		t.Errorf("camera jumped on toggle: %v → %v", before, after)
	}
	if h.o.Input.Triggers.BackToFreeCamera {
		t.Error("transition flag not consumed")
	}
}

func TestElapsedTicks(t *testing.T) {
	o := &Orchestrator{}
	if dt := o.elapsed(10); dt != 0 {
		t.Errorf("first frame: expected 0, got %v", dt)
	}
	if dt := o.elapsed(13); dt != 3 {
		t.Errorf("second frame: expected 3, got %v", dt)
	}
	if dt := o.elapsed(12); dt != 0 {
		t.Errorf("backwards tick: expected 0, got %v", dt)
	}
}

func TestElapsedTicksAfterLongSession(t *testing.T) {
	o := &Orchestrator{}
	start := float64(1 << 26)
	o.elapsed(start)
	if dt := o.elapsed(start + 0.25); dt != 0.25 {
		t.Errorf("quarter tick at %v: expected 0.25, got %v", start, dt)
	}
	if dt := o.elapsed(start + 1.75); dt != 1.5 {
		t.Errorf("tick and a half: expected 1.5, got %v", dt)
	}
}

func TestPipelineString(t *testing.T) {
	if PipelinePBR.String() != "pbr" || PipelinePBRShadowed.String() != "pbr-shadowed" {
		t.Errorf("unexpected names %q %q", PipelinePBR, PipelinePBRShadowed)
	}
}
