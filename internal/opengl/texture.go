package opengl

import (
	"errors"
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"spaceflight/scene"
)

// UploadTexture uploads tex as a mipmapped RGBA8 2D texture and records its
// GLID. The GL context must be current.
func UploadTexture(tex *scene.Texture) error {
	if tex == nil {
		return errors.New("nil texture")
	}
	if len(tex.Pixels) < tex.Width*tex.Height*4 || tex.Width == 0 || tex.Height == 0 {
		return fmt.Errorf("texture %q has no pixel data", tex.Name)
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(tex.Width), int32(tex.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(tex.Pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	tex.GLID = id
	return nil
}

// DeleteTexture frees an uploaded texture and zeroes its GLID.
func DeleteTexture(tex *scene.Texture) {
	if tex == nil || tex.GLID == 0 {
		return
	}
	gl.DeleteTextures(1, &tex.GLID)
	tex.GLID = 0
}

// bindTexture binds tex to unit and reports whether it was usable.
// Textures are uploaded on first use; a failed upload is not retried.
func (d *Device) bindTexture(unit uint32, tex *scene.Texture) bool {
	if tex == nil {
		return false
	}
	if tex.GLID == 0 {
		if d.failed[tex] {
			return false
		}
		if err := UploadTexture(tex); err != nil {
			d.failed[tex] = true
			d.logger.Warn("texture upload failed", "texture", tex.Name, "err", err)
			return false
		}
		d.textures = append(d.textures, tex)
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
	return true
}
