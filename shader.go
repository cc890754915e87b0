package lodtree

import "github.com/hajimehoshi/ebiten/v2"

// photoShaderSrc draws a photo clipped to a rounded rectangle in destination
// space, with optional desaturation. A circle is a rounded rectangle whose
// radius is half its size. Ebitengine uses premultiplied alpha; the shader
// un-premultiplies before the colour transform and re-premultiplies after.
const photoShaderSrc = `//kage:unit pixels
package main

var Saturation float
var ClipCenter vec2
var ClipHalf vec2
var ClipRadius float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	rgb := vec3(0)
	if c.a > 0 {
		rgb = c.rgb / c.a
	}
	lum := dot(rgb, vec3(0.299, 0.587, 0.114))
	rgb = mix(vec3(lum), rgb, Saturation)

	q := abs(dst.xy-ClipCenter) - ClipHalf + vec2(ClipRadius)
	d := length(max(q, vec2(0))) + min(max(q.x, q.y), 0) - ClipRadius
	cover := clamp(0.5-d, 0, 1)

	a := c.a * cover
	return vec4(rgb*a, a) * color
}
`

var photoShader *ebiten.Shader

func ensurePhotoShader() *ebiten.Shader {
	if photoShader == nil {
		s, err := ebiten.NewShader([]byte(photoShaderSrc))
		if err != nil {
			panic("lodtree: failed to compile photo shader: " + err.Error())
		}
		photoShader = s
	}
	return photoShader
}

// photoUniforms builds the uniform map for one photo draw. clip is in
// destination pixels.
func photoUniforms(saturation float64, clip Rect, radius float64) map[string]any {
	c := clip.Center()
	return map[string]any{
		"Saturation": float32(clamp01(saturation)),
		"ClipCenter": []float32{float32(c.X), float32(c.Y)},
		"ClipHalf":   []float32{float32(clip.Width / 2), float32(clip.Height / 2)},
		"ClipRadius": float32(min(radius, clip.Width/2, clip.Height/2)),
	}
}
