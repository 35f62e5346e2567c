// Package design defines the abstract design-node API that figforge
// drives. Backends (the in-process memory document, or a remote design
// tool) provide node construction and lookup behind this interface. The
// node handles are owned by the backend; callers only read and write the
// fields each capability exposes.
package design

import "context"

// NodeType is the backend's type tag for a node.
type NodeType string

const (
	TypeRectangle NodeType = "RECTANGLE"
	TypeEllipse   NodeType = "ELLIPSE"
	TypeText      NodeType = "TEXT"
	TypeVector    NodeType = "VECTOR"
)

// ImageHash is the opaque reference returned when image bytes are
// registered with the backend.
type ImageHash string

// SceneNode is the capability every node handle has: identity, position
// and size.
type SceneNode interface {
	ID() string
	Type() NodeType

	X() float64
	Y() float64
	Width() float64
	Height() float64

	SetX(x float64)
	SetY(y float64)
	// SetWidth and SetHeight assign the size fields directly, without
	// going through Resize.
	SetWidth(w float64)
	SetHeight(h float64)
}

// Resizable nodes accept an explicit resize call.
type Resizable interface {
	Resize(w, h float64)
}

// Geometry covers paint-bearing nodes.
type Geometry interface {
	Fills() []Paint
	SetFills(fills []Paint)
	Strokes() []Paint
	SetStrokes(strokes []Paint)
	StrokeWeight() float64
	SetStrokeWeight(w float64)
}

// Blend covers node opacity.
type Blend interface {
	Opacity() float64
	SetOpacity(o float64)
}

// Rotatable covers node rotation in degrees.
type Rotatable interface {
	Rotation() float64
	SetRotation(deg float64)
}

// CornerRounded nodes have a corner radius.
type CornerRounded interface {
	CornerRadius() float64
	SetCornerRadius(r float64)
}

// Rectangle is the node returned by CreateRectangle. It is also the
// carrier for image paints.
type Rectangle interface {
	SceneNode
	Resizable
	Geometry
	Blend
	Rotatable
	CornerRounded
}

// Ellipse is the node returned by CreateEllipse.
type Ellipse interface {
	SceneNode
	Resizable
	Geometry
	Blend
	Rotatable
}

// Text is the node returned by CreateText.
type Text interface {
	SceneNode
	Resizable
	Geometry
	Blend
	Rotatable
	Characters() string
	SetCharacters(s string)
}

// Vector is the node returned by CreateVector.
type Vector interface {
	SceneNode
	Resizable
	Geometry
	Blend
	Rotatable
	VectorPaths() []VectorPath
	SetVectorPaths(paths []VectorPath)
}

// API is the abstract design-node API.
// Implementations must be safe for concurrent use.
type API interface {
	// Primitives
	CreateRectangle(ctx context.Context) (Rectangle, error)
	CreateEllipse(ctx context.Context) (Ellipse, error)
	CreateText(ctx context.Context) (Text, error)
	CreateVector(ctx context.Context) (Vector, error)

	// CreateImage registers raw image bytes and returns a reference usable
	// in an image paint.
	CreateImage(ctx context.Context, data []byte) (ImageHash, error)

	// NodeByID resolves a node reference. ok is false when no node exists.
	NodeByID(ctx context.Context, id string) (node SceneNode, ok bool, err error)
}
