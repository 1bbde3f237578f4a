package logo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Minimal Lottie reader for frame-0 export. Covers the payload shapes the
// upstream actually serves: solid layers and shape layers whose transforms,
// paths, and fills are static. Animated properties are skipped.

type lottieAnimation struct {
	Width  float64       `json:"w"`
	Height float64       `json:"h"`
	Layers []lottieLayer `json:"layers"`
}

const (
	layerSolid = 1
	layerShape = 4
)

type lottieLayer struct {
	Type        int             `json:"ty"`
	SolidColor  string          `json:"sc"`
	SolidWidth  float64         `json:"sw"`
	SolidHeight float64         `json:"sh"`
	Transform   lottieTransform `json:"ks"`
	Shapes      []lottieItem    `json:"shapes"`
}

type lottieTransform struct {
	Position lottieProperty `json:"p"`
	Anchor   lottieProperty `json:"a"`
	Scale    lottieProperty `json:"s"`
}

// lottieProperty is a possibly animated value. Only static values (a == 0,
// scalar or coordinate list) are used; animated keyframes make ok false.
type lottieProperty struct {
	Animated int             `json:"a"`
	Value    json.RawMessage `json:"k"`
}

func (p lottieProperty) floats() ([]float64, bool) {
	if p.Animated != 0 || len(p.Value) == 0 {
		return nil, false
	}
	var vals []float64
	if err := json.Unmarshal(p.Value, &vals); err == nil {
		return vals, true
	}
	var single float64
	if err := json.Unmarshal(p.Value, &single); err == nil {
		return []float64{single}, true
	}
	return nil, false
}

// lottieItem is one entry in a shape layer: a group, path, rectangle,
// ellipse, or fill.
type lottieItem struct {
	Type      string         `json:"ty"`
	Items     []lottieItem   `json:"it"`
	Path      lottiePathProp `json:"ks"`
	Position  lottieProperty `json:"p"`
	Size      lottieProperty `json:"s"`
	Color     lottieProperty `json:"c"`
	Roundness lottieProperty `json:"r"`
}

type lottiePathProp struct {
	Animated int             `json:"a"`
	Value    json.RawMessage `json:"k"`
}

type lottiePath struct {
	Closed   bool        `json:"c"`
	Vertices [][]float64 `json:"v"`
	InTan    [][]float64 `json:"i"`
	OutTan   [][]float64 `json:"o"`
}

// exportLottieFrame renders frame 0 of a Lottie document as a standalone SVG.
func exportLottieFrame(data []byte) ([]byte, error) {
	var anim lottieAnimation
	if err := json.Unmarshal(data, &anim); err != nil {
		return nil, fmt.Errorf("parse lottie document: %w", err)
	}
	if anim.Width <= 0 || anim.Height <= 0 {
		return nil, fmt.Errorf("lottie document without canvas size")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		anim.Width, anim.Height, anim.Width, anim.Height)
	b.WriteByte('\n')

	// Lottie stacks layers[0] on top; SVG paints later elements on top.
	for i := len(anim.Layers) - 1; i >= 0; i-- {
		renderLayer(&b, anim.Layers[i])
	}

	b.WriteString("</svg>\n")
	return []byte(b.String()), nil
}

func renderLayer(b *strings.Builder, layer lottieLayer) {
	switch layer.Type {
	case layerSolid:
		if layer.SolidColor == "" {
			return
		}
		fmt.Fprintf(b, `<rect width="%g" height="%g" fill="%s"/>`,
			layer.SolidWidth, layer.SolidHeight, layer.SolidColor)
		b.WriteByte('\n')

	case layerShape:
		transform, ok := svgTransform(layer.Transform)
		if !ok {
			return
		}
		if transform != "" {
			fmt.Fprintf(b, `<g transform="%s">`, transform)
			b.WriteByte('\n')
		}
		renderItems(b, layer.Shapes)
		if transform != "" {
			b.WriteString("</g>\n")
		}
	}
}

// svgTransform builds the SVG transform for a static layer transform.
// Animated transforms yield ok false and the layer is skipped.
func svgTransform(t lottieTransform) (string, bool) {
	pos, okP := t.Position.floats()
	anchor, okA := t.Anchor.floats()
	scale, okS := t.Scale.floats()
	if !okP || !okA || !okS {
		// Missing properties default to identity; animated ones do not.
		if t.Position.Animated != 0 || t.Anchor.Animated != 0 || t.Scale.Animated != 0 {
			return "", false
		}
	}

	var parts []string
	if len(pos) >= 2 || len(anchor) >= 2 {
		var px, py, ax, ay float64
		if len(pos) >= 2 {
			px, py = pos[0], pos[1]
		}
		if len(anchor) >= 2 {
			ax, ay = anchor[0], anchor[1]
		}
		if px != ax || py != ay {
			parts = append(parts, fmt.Sprintf("translate(%g %g)", px-ax, py-ay))
		}
	}
	if len(scale) >= 2 && (scale[0] != 100 || scale[1] != 100) {
		parts = append(parts, fmt.Sprintf("scale(%g %g)", scale[0]/100, scale[1]/100))
	}
	return strings.Join(parts, " "), true
}

func renderItems(b *strings.Builder, items []lottieItem) {
	// A fill applies to the geometry items alongside it in the same group.
	fill := groupFill(items)

	for _, item := range items {
		switch item.Type {
		case "gr":
			renderItems(b, item.Items)

		case "sh":
			d, ok := pathData(item.Path)
			if !ok {
				continue
			}
			fmt.Fprintf(b, `<path d="%s" fill="%s"/>`, d, fill)
			b.WriteByte('\n')

		case "rc":
			pos, okP := item.Position.floats()
			size, okS := item.Size.floats()
			if !okP || !okS || len(pos) < 2 || len(size) < 2 {
				continue
			}
			rx := 0.0
			if r, ok := item.Roundness.floats(); ok && len(r) > 0 {
				rx = r[0]
			}
			// Lottie rectangles are positioned by center.
			fmt.Fprintf(b, `<rect x="%g" y="%g" width="%g" height="%g" rx="%g" fill="%s"/>`,
				pos[0]-size[0]/2, pos[1]-size[1]/2, size[0], size[1], rx, fill)
			b.WriteByte('\n')

		case "el":
			pos, okP := item.Position.floats()
			size, okS := item.Size.floats()
			if !okP || !okS || len(pos) < 2 || len(size) < 2 {
				continue
			}
			fmt.Fprintf(b, `<ellipse cx="%g" cy="%g" rx="%g" ry="%g" fill="%s"/>`,
				pos[0], pos[1], size[0]/2, size[1]/2, fill)
			b.WriteByte('\n')
		}
	}
}

// groupFill finds the first static fill in a group, defaulting to black.
func groupFill(items []lottieItem) string {
	for _, item := range items {
		if item.Type != "fl" {
			continue
		}
		if c, ok := item.Color.floats(); ok && len(c) >= 3 {
			return fmt.Sprintf("#%02x%02x%02x",
				channel(c[0]), channel(c[1]), channel(c[2]))
		}
	}
	return "#000000"
}

func channel(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(v*255 + 0.5)
}

// pathData converts a static bezier path to an SVG path string.
func pathData(p lottiePathProp) (string, bool) {
	if p.Animated != 0 || len(p.Value) == 0 {
		return "", false
	}
	var path lottiePath
	if err := json.Unmarshal(p.Value, &path); err != nil {
		return "", false
	}
	n := len(path.Vertices)
	if n == 0 || len(path.InTan) != n || len(path.OutTan) != n {
		return "", false
	}
	for i := 0; i < n; i++ {
		if len(path.Vertices[i]) < 2 || len(path.InTan[i]) < 2 || len(path.OutTan[i]) < 2 {
			return "", false
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "M%g %g", path.Vertices[0][0], path.Vertices[0][1])
	for i := 1; i < n; i++ {
		writeCurve(&b, path.Vertices[i-1], path.OutTan[i-1], path.Vertices[i], path.InTan[i])
	}
	if path.Closed {
		writeCurve(&b, path.Vertices[n-1], path.OutTan[n-1], path.Vertices[0], path.InTan[0])
		b.WriteString("Z")
	}
	return b.String(), true
}

// writeCurve emits one cubic segment; tangents are relative to the vertices.
func writeCurve(b *strings.Builder, from, outTan, to, inTan []float64) {
	fmt.Fprintf(b, "C%g %g %g %g %g %g",
		from[0]+outTan[0], from[1]+outTan[1],
		to[0]+inTan[0], to[1]+inTan[1],
		to[0], to[1])
}
