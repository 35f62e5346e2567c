package script

import (
	"context"
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/figforge/pkg/design"
	"github.com/chazu/figforge/pkg/shape"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpColor wraps a design.Color built by `rgb`.
type sexpColor struct {
	c design.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgb %g %g %g)", c.c.R, c.c.G, c.c.B)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpPoint wraps a shape.Point built by `pt`.
type sexpPoint struct {
	p shape.Point
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pt %g %g)", p.p.X, p.p.Y)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpNode is a handle on a node created or read by a script.
type sexpNode struct {
	sum shape.Summary
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q %s)", n.sum.ID, n.sum.Type)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

func toColor(s zygo.Sexp) (design.Color, error) {
	if c, ok := s.(*sexpColor); ok {
		return c.c, nil
	}
	return design.Color{}, fmt.Errorf("expected color, got %T (%s)", s, s.SexpString(nil))
}

func toPoint(s zygo.Sexp) (shape.Point, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.p, nil
	}
	return shape.Point{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
}

// toNodeID accepts a node handle or a plain id string.
func toNodeID(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpNode:
		return v.sum.ID, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected node or id, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Property parsing
// ---------------------------------------------------------------------------

// commonProps reads the keyword arguments every shape accepts:
// :x :y :width :height :fill :stroke :stroke-weight :corner-radius :text.
func commonProps(pa kwArgs) (shape.Properties, error) {
	var props shape.Properties
	var err error

	for key, dst := range map[string]**float64{
		"x":             &props.X,
		"y":             &props.Y,
		"width":         &props.Width,
		"height":        &props.Height,
		"stroke-weight": &props.StrokeWeight,
		"corner-radius": &props.CornerRadius,
	} {
		if *dst, err = pa.float(key); err != nil {
			return props, err
		}
	}
	for key, dst := range map[string]**shape.Fill{
		"fill":   &props.Fill,
		"stroke": &props.Stroke,
	} {
		v, ok := pa.kw[key]
		if !ok {
			continue
		}
		c, err := toColor(v)
		if err != nil {
			return props, fmt.Errorf("%s: %w", key, err)
		}
		*dst = &shape.Fill{Type: design.PaintSolid, Color: c}
	}
	if v, ok := pa.kw["text"]; ok {
		s, err := toString(v)
		if err != nil {
			return props, fmt.Errorf("text: %w", err)
		}
		props.Text = &s
	}
	if v, ok := pa.kw["path"]; ok {
		s, err := toString(v)
		if err != nil {
			return props, fmt.Errorf("path: %w", err)
		}
		props.Vector = &shape.VectorProperties{Path: s}
	}
	return props, nil
}

// imageProps reads :source :scale-mode :opacity :rotation and the
// :crop-top/-left/-bottom/-right edges. It returns nil when none is given.
func imageProps(pa kwArgs) (*shape.ImageProperties, error) {
	var ip shape.ImageProperties
	var crop design.CropInsets
	seen := false

	if v, ok := pa.kw["source"]; ok {
		s, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		ip.Source, seen = s, true
	}
	if v, ok := pa.kw["scale-mode"]; ok {
		s, err := toKeywordString(v)
		if err != nil {
			return nil, fmt.Errorf("scale-mode: %w", err)
		}
		mode := design.ScaleMode(strings.ToUpper(s))
		if !mode.Valid() {
			return nil, fmt.Errorf("invalid scale-mode %q, expected fill, fit, crop or tile", s)
		}
		ip.ScaleMode, seen = mode, true
	}

	var err error
	for key, dst := range map[string]**float64{
		"opacity":     &ip.Opacity,
		"rotation":    &ip.Rotation,
		"crop-top":    &crop.Top,
		"crop-left":   &crop.Left,
		"crop-bottom": &crop.Bottom,
		"crop-right":  &crop.Right,
	} {
		if *dst, err = pa.float(key); err != nil {
			return nil, err
		}
		if *dst != nil {
			seen = true
		}
	}
	if !crop.IsZero() {
		ip.CropSettings = &crop
	}
	if !seen {
		return nil, nil
	}
	return &ip, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// run is the per-evaluation state the builtins share.
type run struct {
	ctx      context.Context
	shapes   Shapes
	onChange func(Change)
	result   *Result
}

func (r *run) record(op Op, sum shape.Summary) {
	c := Change{Op: op, Summary: sum}
	r.result.Changes = append(r.result.Changes, c)
	if r.onChange != nil {
		r.onChange(c)
	}
}

func (r *run) create(kind shape.ShapeKind, props shape.Properties) (zygo.Sexp, error) {
	if err := r.ctx.Err(); err != nil {
		return zygo.SexpNull, err
	}
	sum, err := r.shapes.Create(r.ctx, kind, props)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
	}
	r.record(OpCreated, sum)
	return &sexpNode{sum: sum}, nil
}

// builtin is the signature zygomys expects from registered functions.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// shapeBuiltin registers a creation builtin whose kind-specific keyword
// arguments are read by extra.
func (r *run) shapeBuiltin(kind shape.ShapeKind, extra func(pa kwArgs, props *shape.Properties) error) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		props, err := commonProps(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		if extra != nil {
			if err := extra(pa, &props); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
		}
		return r.create(kind, props)
	}
}

// registerBuiltins installs the drawing builtins into env. They act on
// r.shapes and record each change in r.result.
//
// Source must be preprocessed with preprocessSource() first so that
// :keyword tokens arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, r *run) {

	// (rgb 1 0.5 0)
	env.AddFunction("rgb", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("rgb requires exactly 3 arguments, got %d", len(args))
		}
		var ch [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgb: channel %d: %w", i, err)
			}
			if f < 0 || f > 1 {
				return zygo.SexpNull, fmt.Errorf("rgb: channel %d out of range [0, 1]: %g", i, f)
			}
			ch[i] = f
		}
		return &sexpColor{c: design.Color{R: ch[0], G: ch[1], B: ch[2]}}, nil
	})

	// (pt 10 20)
	env.AddFunction("pt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("pt requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: y: %w", err)
		}
		return &sexpPoint{p: shape.Point{X: x, Y: y}}, nil
	})

	// (rectangle :x 0 :y 0 :width 100 :height 50 :fill (rgb 1 0 0) :corner-radius 4)
	env.AddFunction("rectangle", r.shapeBuiltin(shape.KindRectangle, nil))

	// (ellipse :width 40 :height 40)
	env.AddFunction("ellipse", r.shapeBuiltin(shape.KindEllipse, nil))

	// (text "Hello" :x 10) or (text :text "Hello")
	env.AddFunction("text", r.shapeBuiltin(shape.KindText, func(pa kwArgs, props *shape.Properties) error {
		if len(pa.positional) > 0 {
			s, err := toString(pa.positional[0])
			if err != nil {
				return fmt.Errorf("characters: %w", err)
			}
			props.Text = &s
		}
		return nil
	}))

	// (line :start (pt 0 0) :end (pt 100 100) :stroke-weight 2)
	env.AddFunction("line", r.shapeBuiltin(shape.KindLine, func(pa kwArgs, props *shape.Properties) error {
		sv, sok := pa.kw["start"]
		ev, eok := pa.kw["end"]
		if !sok && !eok {
			return nil
		}
		lp := &shape.LineProperties{StrokeWeight: props.StrokeWeight}
		props.StrokeWeight = nil
		var err error
		if sok {
			if lp.Start, err = toPoint(sv); err != nil {
				return fmt.Errorf("start: %w", err)
			}
		}
		if eok {
			if lp.End, err = toPoint(ev); err != nil {
				return fmt.Errorf("end: %w", err)
			}
		}
		props.Line = lp
		return nil
	}))

	// (polygon :sides 6 :radius 40 :rotation 30 :center (pt 50 50))
	// (polygon :points (list (pt 0 0) (pt 10 0) (pt 5 8)))
	env.AddFunction("polygon", r.shapeBuiltin(shape.KindPolygon, func(pa kwArgs, props *shape.Properties) error {
		pp := &shape.PolygonProperties{}
		if v, ok := pa.kw["points"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return fmt.Errorf("points: %w", err)
			}
			for i, item := range items {
				p, err := toPoint(item)
				if err != nil {
					return fmt.Errorf("points[%d]: %w", i, err)
				}
				pp.Points = append(pp.Points, p)
			}
		}
		if v, ok := pa.kw["sides"]; ok {
			n, err := toInt(v)
			if err != nil {
				return fmt.Errorf("sides: %w", err)
			}
			pp.Sides = n
		}
		for key, dst := range map[string]*float64{"radius": &pp.Radius, "rotation": &pp.Rotation} {
			f, err := pa.float(key)
			if err != nil {
				return err
			}
			if f != nil {
				*dst = *f
			}
		}
		if v, ok := pa.kw["center"]; ok {
			c, err := toPoint(v)
			if err != nil {
				return fmt.Errorf("center: %w", err)
			}
			pp.CenterX, pp.CenterY = c.X, c.Y
		}
		props.Polygon = pp
		return nil
	}))

	// (star :x 100 :y 100 :points 5 :inner-radius 20 :outer-radius 50)
	env.AddFunction("star", r.shapeBuiltin(shape.KindStar, func(pa kwArgs, props *shape.Properties) error {
		v, ok := pa.kw["points"]
		if !ok {
			return nil
		}
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("points: %w", err)
		}
		sp := &shape.StarProperties{Points: n}
		for key, dst := range map[string]*float64{"inner-radius": &sp.InnerRadius, "outer-radius": &sp.OuterRadius} {
			f, err := pa.float(key)
			if err != nil {
				return err
			}
			if f != nil {
				*dst = *f
			}
		}
		props.Star = sp
		return nil
	}))

	// (vector :path "M 0 0 L 10 10 Z")
	env.AddFunction("vector", r.shapeBuiltin(shape.KindVector, nil))

	// (image :source "https://..." :scale-mode :crop :crop-top 10 :width 200 :height 100)
	env.AddFunction("image", r.shapeBuiltin(shape.KindImage, func(pa kwArgs, props *shape.Properties) error {
		ip, err := imageProps(pa)
		if err != nil {
			return err
		}
		props.Image = ip
		return nil
	}))

	// (modify r :x 10 :fill (rgb 0 0 1) :opacity 0.5)
	env.AddFunction("modify", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("modify requires a node as first argument")
		}
		id, err := toNodeID(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("modify: %w", err)
		}
		props, err := commonProps(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("modify: %w", err)
		}
		if props.Image, err = imageProps(pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("modify: %w", err)
		}

		if err := r.ctx.Err(); err != nil {
			return zygo.SexpNull, err
		}
		if err := r.shapes.Modify(r.ctx, id, props); err != nil {
			return zygo.SexpNull, fmt.Errorf("modify: %w", err)
		}
		sum, err := r.shapes.Read(r.ctx, id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("modify: %w", err)
		}
		r.record(OpModified, sum)
		return &sexpNode{sum: sum}, nil
	})

	// (node "1:2")
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("node requires exactly 1 argument, got %d", len(args))
		}
		id, err := toNodeID(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: %w", err)
		}
		sum, err := r.shapes.Read(r.ctx, id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: %w", err)
		}
		return &sexpNode{sum: sum}, nil
	})

	// (node-x n), (node-y n), (node-width n), (node-height n)
	for _, field := range []string{"x", "y", "width", "height"} {
		env.AddFunction("node_"+field, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 1 argument, got %d", name, len(args))
			}
			n, ok := args[0].(*sexpNode)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: expected node, got %T (%s)", name, args[0], args[0].SexpString(nil))
			}
			var v float64
			switch field {
			case "x":
				v = n.sum.X
			case "y":
				v = n.sum.Y
			case "width":
				v = n.sum.Width
			case "height":
				v = n.sum.Height
			}
			return &zygo.SexpFloat{Val: v}, nil
		})
	}
}
