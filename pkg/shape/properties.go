package shape

import (
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/figforge/pkg/design"
)

// ShapeKind names a constructible shape.
type ShapeKind string

const (
	KindRectangle ShapeKind = "rectangle"
	KindEllipse   ShapeKind = "ellipse"
	KindText      ShapeKind = "text"
	KindLine      ShapeKind = "line"
	KindPolygon   ShapeKind = "polygon"
	KindStar      ShapeKind = "star"
	KindVector    ShapeKind = "vector"
	KindImage     ShapeKind = "image"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []ShapeKind{
	KindRectangle, KindEllipse, KindText, KindLine,
	KindPolygon, KindStar, KindVector, KindImage,
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) vec() v2.Vec { return v2.Vec{X: p.X, Y: p.Y} }

// Fill is a solid fill or stroke request.
type Fill struct {
	Type  design.PaintType `json:"type"`
	Color design.Color     `json:"color"`
}

// Paint returns the solid paint for f. Only solid paints are accepted as
// generic fills, so the type tag is normalized.
func (f Fill) Paint() design.Paint {
	return design.Solid(f.Color)
}

// LineProperties are the line sub-properties.
type LineProperties struct {
	Start        Point    `json:"start"`
	End          Point    `json:"end"`
	StrokeWeight *float64 `json:"strokeWeight,omitempty"`
}

// PolygonProperties describe a polygon either by explicit points or by
// sides and radius.
type PolygonProperties struct {
	Points   []Point `json:"points,omitempty"`
	Sides    int     `json:"sides,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
	Rotation float64 `json:"rotation,omitempty"` // degrees
	CenterX  float64 `json:"centerX,omitempty"`
	CenterY  float64 `json:"centerY,omitempty"`
}

// StarProperties describe a star polygon centered on the shape's x/y.
type StarProperties struct {
	Points      int     `json:"points"`
	InnerRadius float64 `json:"innerRadius"`
	OuterRadius float64 `json:"outerRadius"`
}

// VectorProperties carry externally supplied path data.
type VectorProperties struct {
	Path string `json:"path"`
}

// ImageProperties describe an image paint on a carrier rectangle.
type ImageProperties struct {
	Source       string             `json:"source,omitempty"`
	ScaleMode    design.ScaleMode   `json:"scaleMode,omitempty"`
	Rotation     *float64           `json:"rotation,omitempty"`
	Opacity      *float64           `json:"opacity,omitempty"`
	CropSettings *design.CropInsets `json:"cropSettings,omitempty"`
}

// Properties is the optional-field bag accepted by Create and Modify.
type Properties struct {
	X            *float64 `json:"x,omitempty"`
	Y            *float64 `json:"y,omitempty"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	Fill         *Fill    `json:"fill,omitempty"`
	Stroke       *Fill    `json:"stroke,omitempty"`
	StrokeWeight *float64 `json:"strokeWeight,omitempty"`
	CornerRadius *float64 `json:"cornerRadius,omitempty"`
	Text         *string  `json:"text,omitempty"`

	Line    *LineProperties    `json:"line,omitempty"`
	Polygon *PolygonProperties `json:"polygon,omitempty"`
	Star    *StarProperties    `json:"star,omitempty"`
	Vector  *VectorProperties  `json:"vector,omitempty"`
	Image   *ImageProperties   `json:"image,omitempty"`
}

// Common holds the optional properties shared by every kind.
type Common struct {
	X, Y          *float64
	Width, Height *float64
	Fill          *design.Paint
	Stroke        *design.Paint
	StrokeWeight  *float64
	CornerRadius  *float64
}

func commonOf(p Properties) Common {
	c := Common{
		X:            p.X,
		Y:            p.Y,
		Width:        p.Width,
		Height:       p.Height,
		StrokeWeight: p.StrokeWeight,
		CornerRadius: p.CornerRadius,
	}
	if p.Fill != nil {
		paint := p.Fill.Paint()
		c.Fill = &paint
	}
	if p.Stroke != nil {
		paint := p.Stroke.Paint()
		c.Stroke = &paint
	}
	return c
}
