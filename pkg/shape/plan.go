package shape

import (
	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/figforge/pkg/design"
)

// plan accumulates every write a construction or modification will make,
// so that the node is touched once, in a fixed order. Nil fields are left
// alone.
type plan struct {
	paths      []design.VectorPath
	characters *string

	resize *[2]float64

	x, y          *float64
	width, height *float64

	fills        []design.Paint
	strokes      []design.Paint
	strokeWeight *float64
	cornerRadius *float64

	opacity  *float64
	rotation *float64
}

// applyCommon is the property applicator: it records x, y, width, height,
// fill, stroke, stroke weight and corner radius from c. Generic fill is
// skipped when the node carries an image paint.
func (p *plan) applyCommon(c Common, skipFill bool) {
	p.applyPlacement(c)
	p.applyPaint(c, skipFill)
}

func (p *plan) applyPlacement(c Common) {
	if c.X != nil {
		p.x = c.X
	}
	if c.Y != nil {
		p.y = c.Y
	}
	if c.Width != nil {
		p.width = c.Width
	}
	if c.Height != nil {
		p.height = c.Height
	}
}

func (p *plan) applyPaint(c Common, skipFill bool) {
	if c.Fill != nil && !skipFill {
		p.fills = []design.Paint{*c.Fill}
	}
	if c.Stroke != nil {
		p.strokes = []design.Paint{*c.Stroke}
	}
	if c.StrokeWeight != nil {
		p.strokeWeight = c.StrokeWeight
	}
	if c.CornerRadius != nil {
		p.cornerRadius = c.CornerRadius
	}
}

// resizeFrom records a resize call when both dimensions are given.
func (p *plan) resizeFrom(c Common) {
	if c.Width != nil && c.Height != nil {
		p.resize = &[2]float64{*c.Width, *c.Height}
	}
}

// placeBox pins x, y, width and height to a bounding box.
func (p *plan) placeBox(bb sdf.Box2) {
	size := bb.Size()
	p.x, p.y = ptr(bb.Min.X), ptr(bb.Min.Y)
	p.width, p.height = ptr(size.X), ptr(size.Y)
}

// apply writes the plan to n. Kind-specific content goes first, then the
// resize call, then direct size assignment (which therefore wins over
// the resize), then paints and the remaining scalars. Writes the node's
// capabilities do not support are dropped.
func (p *plan) apply(n design.SceneNode) {
	if p.paths != nil {
		if v, ok := n.(design.Vector); ok {
			v.SetVectorPaths(p.paths)
		}
	}
	if p.characters != nil {
		if t, ok := n.(design.Text); ok {
			t.SetCharacters(*p.characters)
		}
	}
	if p.resize != nil {
		if r, ok := n.(design.Resizable); ok {
			r.Resize(p.resize[0], p.resize[1])
		}
	}

	if p.x != nil {
		n.SetX(*p.x)
	}
	if p.y != nil {
		n.SetY(*p.y)
	}
	if p.width != nil {
		n.SetWidth(*p.width)
	}
	if p.height != nil {
		n.SetHeight(*p.height)
	}

	if g, ok := n.(design.Geometry); ok {
		if p.fills != nil {
			g.SetFills(p.fills)
		}
		if p.strokes != nil {
			g.SetStrokes(p.strokes)
		}
		if p.strokeWeight != nil {
			g.SetStrokeWeight(*p.strokeWeight)
		}
	}
	if p.cornerRadius != nil {
		if cr, ok := n.(design.CornerRounded); ok {
			cr.SetCornerRadius(*p.cornerRadius)
		}
	}
	if p.opacity != nil {
		if b, ok := n.(design.Blend); ok {
			b.SetOpacity(*p.opacity)
		}
	}
	if p.rotation != nil {
		if r, ok := n.(design.Rotatable); ok {
			r.SetRotation(*p.rotation)
		}
	}
}

func ptr[T any](v T) *T { return &v }
