package shape

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/samber/lo"

	"github.com/chazu/figforge/pkg/design"
	"github.com/chazu/figforge/pkg/geom"
)

// Spec is a fully validated shape request. Each variant carries exactly
// the sub-properties its kind requires; the shared optional properties
// live in Common.
type Spec interface {
	Kind() ShapeKind
	common() Common
}

// Rectangle is a rectangle request.
type Rectangle struct{ Common }

// Ellipse is an ellipse request.
type Ellipse struct{ Common }

// Text is a text request.
type Text struct {
	Common
	Characters *string
}

// Line is an open two-point path.
type Line struct {
	Common
	Start, End   Point
	StrokeWeight *float64
}

// Polygon is a closed path through either explicit vertices or a regular
// polygon's vertices.
type Polygon struct {
	Common
	Points  []Point         // explicit vertices, at least 3
	Regular *RegularPolygon // used when Points is empty
}

// RegularPolygon parameterizes an evenly spaced polygon.
type RegularPolygon struct {
	Sides    int
	Radius   float64
	Rotation float64 // degrees
	Center   Point
}

// Star is a closed star polygon centered on Common.X/Common.Y.
type Star struct {
	Common
	Points      int
	InnerRadius float64
	OuterRadius float64
}

// Vector uses caller-supplied path data verbatim.
type Vector struct {
	Common
	Path string
}

// Image is an image paint on a carrier rectangle.
type Image struct {
	Common
	Source    string
	ScaleMode design.ScaleMode
	Rotation  *float64
	Opacity   *float64
	Crop      *design.CropInsets
}

func (Rectangle) Kind() ShapeKind { return KindRectangle }
func (Ellipse) Kind() ShapeKind   { return KindEllipse }
func (Text) Kind() ShapeKind      { return KindText }
func (Line) Kind() ShapeKind      { return KindLine }
func (Polygon) Kind() ShapeKind   { return KindPolygon }
func (Star) Kind() ShapeKind      { return KindStar }
func (Vector) Kind() ShapeKind    { return KindVector }
func (Image) Kind() ShapeKind     { return KindImage }

func (c Common) common() Common { return c }

// vertices resolves the polygon's vertex list.
func (p Polygon) vertices() []v2.Vec {
	if len(p.Points) > 0 {
		return lo.Map(p.Points, func(pt Point, _ int) v2.Vec { return pt.vec() })
	}
	r := p.Regular
	return geom.RegularPolygon(r.Center.vec(), r.Radius, r.Sides, r.Rotation)
}

// vertices returns the star's vertices about its declared position.
func (s Star) vertices() []v2.Vec {
	var center v2.Vec
	if s.X != nil {
		center.X = *s.X
	}
	if s.Y != nil {
		center.Y = *s.Y
	}
	return geom.Star(center, s.InnerRadius, s.OuterRadius, s.Points)
}

// MaxVertices bounds the vertex count of a generated polygon or star.
const MaxVertices = 10000

// ParseSpec validates props for kind and returns the matching variant.
// All required-property checks happen here.
func ParseSpec(kind ShapeKind, props Properties) (Spec, error) {
	c := commonOf(props)

	switch kind {
	case KindRectangle:
		return Rectangle{c}, nil

	case KindEllipse:
		return Ellipse{c}, nil

	case KindText:
		return Text{Common: c, Characters: props.Text}, nil

	case KindLine:
		if props.Line == nil {
			return nil, errMissing(kind, "line", "Line properties are required")
		}
		l := props.Line
		return Line{Common: c, Start: l.Start, End: l.End, StrokeWeight: l.StrokeWeight}, nil

	case KindPolygon:
		if props.Polygon == nil {
			return nil, errMissing(kind, "polygon", "Polygon properties are required")
		}
		pp := props.Polygon
		switch {
		case len(pp.Points) >= 3:
			return Polygon{Common: c, Points: pp.Points}, nil
		case pp.Sides > MaxVertices:
			return nil, errMissing(kind, "polygon.sides", fmt.Sprintf("Polygon sides must not exceed %d", MaxVertices))
		case pp.Sides >= 3 && pp.Radius > 0:
			return Polygon{Common: c, Regular: &RegularPolygon{
				Sides:    pp.Sides,
				Radius:   pp.Radius,
				Rotation: pp.Rotation,
				Center:   Point{X: pp.CenterX, Y: pp.CenterY},
			}}, nil
		}
		return nil, errMissing(kind, "polygon.points", "Polygon requires either points or sides and radius")

	case KindStar:
		if props.Star == nil {
			return nil, errMissing(kind, "star", "Star properties are required")
		}
		sp := props.Star
		if sp.Points < 2 {
			return nil, errMissing(kind, "star.points", "Star requires at least 2 points")
		}
		if sp.Points > MaxVertices/2 {
			return nil, errMissing(kind, "star.points", fmt.Sprintf("Star points must not exceed %d", MaxVertices/2))
		}
		if sp.InnerRadius < 0 || sp.OuterRadius < 0 {
			return nil, errMissing(kind, "star.innerRadius", "Star radii must be non-negative")
		}
		return Star{Common: c, Points: sp.Points, InnerRadius: sp.InnerRadius, OuterRadius: sp.OuterRadius}, nil

	case KindVector:
		if props.Vector == nil {
			return nil, errMissing(kind, "vector", "Vector properties are required")
		}
		if props.Vector.Path == "" {
			return nil, errMissing(kind, "vector.path", "Vector path is required")
		}
		return Vector{Common: c, Path: props.Vector.Path}, nil

	case KindImage:
		if props.Image == nil {
			return nil, errMissing(kind, "image", "Image properties are required")
		}
		ip := props.Image
		if ip.Source == "" {
			return nil, errMissing(kind, "image.source", "Image source is required")
		}
		mode := ip.ScaleMode
		if mode == "" {
			mode = design.ScaleFill
		}
		return Image{
			Common:    c,
			Source:    ip.Source,
			ScaleMode: mode,
			Rotation:  ip.Rotation,
			Opacity:   ip.Opacity,
			Crop:      ip.CropSettings,
		}, nil
	}

	return nil, errUnsupported(kind)
}
