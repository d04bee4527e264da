package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
)

// Texture holds RGBA8 pixels, rows top to bottom.
type Texture struct {
	Name   string
	Width  int
	Height int
	Pixels []byte

	// GLID is set by the OpenGL backend after upload.
	GLID uint32
}

// LoadTexture reads a PNG or JPEG file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	tex, err := DecodeTexture(path, f)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", path, err)
	}
	return tex, nil
}

// DecodeTexture decodes an encoded image into RGBA8.
func DecodeTexture(name string, r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &Texture{
		Name:   name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}, nil
}

func decodeTextureBytes(name string, data []byte) (*Texture, error) {
	return DecodeTexture(name, bytes.NewReader(data))
}

// NewSolidTexture creates a 1x1 texture of one colour.
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: []byte{r, g, b, a},
	}
}
