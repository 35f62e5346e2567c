// Package shape turns declarative shape descriptions into design nodes.
// It validates a property bag into a typed Spec, computes geometry and
// path data, loads image bytes, and applies the result to a node created
// through a design.API. The engine keeps no state between calls.
package shape

import (
	"context"
	"fmt"
	"math"

	"github.com/labstack/gommon/log"

	"github.com/chazu/figforge/pkg/design"
	"github.com/chazu/figforge/pkg/geom"
	"github.com/chazu/figforge/pkg/logging"
	"github.com/chazu/figforge/pkg/pathdata"
)

// ImageLoader resolves an image source into raw bytes.
type ImageLoader interface {
	Load(ctx context.Context, source string) ([]byte, error)
}

// Summary is a read view of a node's identity and geometry.
type Summary struct {
	ID        string           `json:"id"`
	Type      design.NodeType  `json:"type"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
	ScaleMode design.ScaleMode `json:"scaleMode,omitempty"`
}

// Summarize reads the current field values of n. ScaleMode is set only
// for nodes carrying an image paint.
func Summarize(n design.SceneNode) Summary {
	sum := Summary{
		ID:     n.ID(),
		Type:   n.Type(),
		X:      n.X(),
		Y:      n.Y(),
		Width:  n.Width(),
		Height: n.Height(),
	}
	if g, ok := n.(design.Geometry); ok {
		if paint, ok := design.ImagePaintOf(g.Fills()); ok {
			sum.ScaleMode = paint.ScaleMode
		}
	}
	return sum
}

// Engine creates, modifies and reads nodes. It is safe for concurrent
// use as long as the design.API is.
type Engine struct {
	api    design.API
	images ImageLoader
	log    *log.Logger
}

// New returns an Engine. A nil logger discards output.
func New(api design.API, images ImageLoader, logger *log.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{api: api, images: images, log: logger}
}

// Create validates props for kind, builds the node and returns its summary.
func (e *Engine) Create(ctx context.Context, kind ShapeKind, props Properties) (Summary, error) {
	spec, err := ParseSpec(kind, props)
	if err != nil {
		e.log.Warnf("create %s: %v", kind, err)
		return Summary{}, err
	}
	return e.Build(ctx, spec)
}

// Build constructs the node described by spec.
func (e *Engine) Build(ctx context.Context, spec Spec) (Summary, error) {
	var (
		n   design.SceneNode
		p   plan
		err error
	)

	switch s := spec.(type) {
	case Rectangle:
		n, err = e.api.CreateRectangle(ctx)
		p.resizeFrom(s.Common)
		p.applyCommon(s.Common, false)

	case Ellipse:
		n, err = e.api.CreateEllipse(ctx)
		p.resizeFrom(s.Common)
		p.applyCommon(s.Common, false)

	case Text:
		n, err = e.api.CreateText(ctx)
		p.characters = s.Characters
		p.applyCommon(s.Common, false)

	case Line:
		n, err = e.api.CreateVector(ctx)
		p.paths = []design.VectorPath{pathdata.Line(s.Start.vec(), s.End.vec())}
		p.x = ptr(math.Min(s.Start.X, s.End.X))
		p.y = ptr(math.Min(s.Start.Y, s.End.Y))
		p.width = ptr(math.Abs(s.End.X - s.Start.X))
		p.height = ptr(math.Abs(s.End.Y - s.Start.Y))
		p.strokeWeight = s.StrokeWeight
		p.applyPaint(s.Common, false)

	case Polygon:
		n, err = e.api.CreateVector(ctx)
		pts := s.vertices()
		p.paths = []design.VectorPath{pathdata.Synthesize(pts, true)}
		p.placeBox(geom.Bounds(pts))
		p.applyPaint(s.Common, false)

	case Star:
		n, err = e.api.CreateVector(ctx)
		pts := s.vertices()
		p.paths = []design.VectorPath{pathdata.Synthesize(pts, true)}
		p.placeBox(geom.Bounds(pts))
		p.applyPaint(s.Common, false)

	case Vector:
		n, err = e.api.CreateVector(ctx)
		p.paths = []design.VectorPath{pathdata.Verbatim(s.Path)}
		p.applyCommon(s.Common, false)

	case Image:
		var paint design.Paint
		paint, err = e.imagePaint(ctx, s)
		if err != nil {
			e.log.Warnf("create image: %v", err)
			return Summary{}, err
		}
		n, err = e.api.CreateRectangle(ctx)
		p.resizeFrom(s.Common)
		p.applyCommon(s.Common, true)
		p.fills = []design.Paint{paint}
		p.opacity = s.Opacity
		p.rotation = s.Rotation

	default:
		return Summary{}, errUnsupported(spec.Kind())
	}
	if err != nil {
		return Summary{}, fmt.Errorf("create %s: %w", spec.Kind(), err)
	}

	p.apply(n)

	sum := Summarize(n)
	e.log.Debugf("created %s %s at (%g, %g) size %gx%g", spec.Kind(), sum.ID, sum.X, sum.Y, sum.Width, sum.Height)
	return sum, nil
}

// imagePaint loads and registers the image bytes and returns the paint.
func (e *Engine) imagePaint(ctx context.Context, s Image) (design.Paint, error) {
	data, err := e.images.Load(ctx, s.Source)
	if err != nil {
		return design.Paint{}, errImageLoad(err)
	}
	hash, err := e.api.CreateImage(ctx, data)
	if err != nil {
		return design.Paint{}, errImageLoad(err)
	}
	paint := design.Paint{Type: design.PaintImage, ScaleMode: s.ScaleMode, ImageHash: hash}
	if s.ScaleMode == design.ScaleCrop && s.Crop != nil && !s.Crop.IsZero() {
		crop := design.CropInsets{}.Merge(*s.Crop)
		paint.Crop = &crop
	}
	return paint, nil
}
