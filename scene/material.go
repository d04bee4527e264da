package scene

// Material is a glTF metallic-roughness surface.
type Material struct {
	Name string

	BaseColor Color
	Metallic  float32
	Roughness float32
	Emissive  Color

	// Optional textures; each multiplies its factor above. Upload them with
	// the backend before the first draw.
	BaseColorTexture         *Texture
	MetallicRoughnessTexture *Texture
	NormalTexture            *Texture
	OcclusionTexture         *Texture
	EmissiveTexture          *Texture

	// NormalScale and OcclusionStrength follow the glTF definitions.
	NormalScale       float32
	OcclusionStrength float32

	DoubleSided bool
}

// DefaultMaterial is the glTF default: white, fully metallic, fully rough.
func DefaultMaterial() *Material {
	return &Material{
		Name:              "Default",
		BaseColor:         ColorWhite,
		Metallic:          1,
		Roughness:         1,
		Emissive:          ColorBlack,
		NormalScale:       1,
		OcclusionStrength: 1,
	}
}

// Textures returns the non-nil textures of m.
func (m *Material) Textures() []*Texture {
	var out []*Texture
	for _, t := range []*Texture{
		m.BaseColorTexture,
		m.MetallicRoughnessTexture,
		m.NormalTexture,
		m.OcclusionTexture,
		m.EmissiveTexture,
	} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
