package design

// PaintType distinguishes paint kinds.
type PaintType string

const (
	PaintSolid PaintType = "SOLID"
	PaintImage PaintType = "IMAGE"
)

// ScaleMode maps image pixels onto a node's bounding box.
type ScaleMode string

const (
	ScaleFill ScaleMode = "FILL"
	ScaleFit  ScaleMode = "FIT"
	ScaleCrop ScaleMode = "CROP"
	ScaleTile ScaleMode = "TILE"
)

// Valid reports whether m is one of the known scale modes.
func (m ScaleMode) Valid() bool {
	switch m {
	case ScaleFill, ScaleFit, ScaleCrop, ScaleTile:
		return true
	}
	return false
}

// Color is an RGB color with components in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// CropInsets holds per-edge crop offsets of an image paint. Nil edges
// were never set.
type CropInsets struct {
	Top    *float64 `json:"top,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Right  *float64 `json:"right,omitempty"`
}

// Merge returns a copy of c with every edge set in o overriding c.
func (c CropInsets) Merge(o CropInsets) CropInsets {
	if o.Top != nil {
		c.Top = o.Top
	}
	if o.Left != nil {
		c.Left = o.Left
	}
	if o.Bottom != nil {
		c.Bottom = o.Bottom
	}
	if o.Right != nil {
		c.Right = o.Right
	}
	return c
}

// IsZero reports whether no edge is set.
func (c CropInsets) IsZero() bool {
	return c.Top == nil && c.Left == nil && c.Bottom == nil && c.Right == nil
}

// Paint is a fill or stroke entry.
type Paint struct {
	Type PaintType `json:"type"`

	// SOLID
	Color *Color `json:"color,omitempty"`

	// IMAGE
	ScaleMode ScaleMode   `json:"scaleMode,omitempty"`
	ImageHash ImageHash   `json:"imageHash,omitempty"`
	Crop      *CropInsets `json:"crop,omitempty"`
}

// Solid returns a solid paint of the given color.
func Solid(c Color) Paint {
	return Paint{Type: PaintSolid, Color: &c}
}

// ImagePaintOf returns the first image paint in fills, if any.
func ImagePaintOf(fills []Paint) (Paint, bool) {
	for _, p := range fills {
		if p.Type == PaintImage {
			return p, true
		}
	}
	return Paint{}, false
}

// WindingRule is the fill-parity convention of a vector path.
type WindingRule string

const (
	WindingNonZero WindingRule = "NONZERO"
	WindingEvenOdd WindingRule = "EVENODD"
)

// VectorPath is a single path-data entry of a vector node.
type VectorPath struct {
	WindingRule WindingRule `json:"windingRule"`
	Data        string      `json:"data"`
}
