package shape

import (
	"context"
	"fmt"

	"github.com/chazu/figforge/pkg/design"
	"github.com/chazu/figforge/pkg/pathdata"
)

// Read returns the current summary of the node with the given id.
func (e *Engine) Read(ctx context.Context, id string) (Summary, error) {
	n, err := e.lookup(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(n), nil
}

// Modify applies a partial property update to an existing node. Position
// and size are assigned directly. Generic fill is ignored on nodes that
// carry an image paint; image properties rebuild that paint instead.
func (e *Engine) Modify(ctx context.Context, id string, props Properties) error {
	n, err := e.lookup(ctx, id)
	if err != nil {
		e.log.Warnf("modify %s: %v", id, err)
		return err
	}

	var p plan
	c := commonOf(props)

	prev, hasImage := design.Paint{}, false
	if g, ok := n.(design.Geometry); ok {
		prev, hasImage = design.ImagePaintOf(g.Fills())
	}
	p.applyCommon(c, hasImage || props.Image != nil)

	if props.Text != nil {
		p.characters = props.Text
	}
	if props.Vector != nil && props.Vector.Path != "" {
		p.paths = []design.VectorPath{pathdata.Verbatim(props.Vector.Path)}
	}

	if img := props.Image; img != nil {
		paint, err := e.rebuildImage(ctx, id, prev, hasImage, img)
		if err != nil {
			e.log.Warnf("modify %s: %v", id, err)
			return err
		}
		p.fills = []design.Paint{paint}
		p.opacity = img.Opacity
		p.rotation = img.Rotation
	}

	p.apply(n)
	e.log.Debugf("modified %s", id)
	return nil
}

// rebuildImage derives the new image paint from the previous one and the
// update. The previous scale mode, hash and crop edges are kept unless
// the update replaces them. Crop edges only survive in CROP mode.
func (e *Engine) rebuildImage(ctx context.Context, id string, prev design.Paint, hasPrev bool, img *ImageProperties) (design.Paint, error) {
	paint := design.Paint{Type: design.PaintImage, ScaleMode: design.ScaleFill}
	if hasPrev {
		paint.ScaleMode = prev.ScaleMode
		paint.ImageHash = prev.ImageHash
		paint.Crop = prev.Crop
	}
	if img.ScaleMode != "" {
		paint.ScaleMode = img.ScaleMode
	}

	switch {
	case img.Source != "":
		data, err := e.images.Load(ctx, img.Source)
		if err != nil {
			return design.Paint{}, errImageUpdate(id, err)
		}
		hash, err := e.api.CreateImage(ctx, data)
		if err != nil {
			return design.Paint{}, errImageUpdate(id, err)
		}
		paint.ImageHash = hash
	case !hasPrev:
		return design.Paint{}, errMissing(KindImage, "image.source", "Image source is required")
	}

	if paint.ScaleMode != design.ScaleCrop {
		paint.Crop = nil
	} else if img.CropSettings != nil {
		var crop design.CropInsets
		if paint.Crop != nil {
			crop = *paint.Crop
		}
		crop = crop.Merge(*img.CropSettings)
		paint.Crop = &crop
	}
	return paint, nil
}

func (e *Engine) lookup(ctx context.Context, id string) (design.SceneNode, error) {
	n, ok, err := e.api.NodeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("look up node %s: %w", id, err)
	}
	if !ok || n == nil {
		return nil, errNotFound(id)
	}
	return n, nil
}
