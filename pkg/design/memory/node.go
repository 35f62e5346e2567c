package memory

import (
	"sync"

	"github.com/chazu/figforge/pkg/design"
)

// Compile-time interface checks.
var (
	_ design.Rectangle = (*Rectangle)(nil)
	_ design.Ellipse   = (*Ellipse)(nil)
	_ design.Text      = (*Text)(nil)
	_ design.Vector    = (*Vector)(nil)
)

// node holds the fields shared by every kind. All access goes through mu.
type node struct {
	mu sync.RWMutex

	id  string
	typ design.NodeType

	x, y          float64
	width, height float64
	resizes       [][2]float64

	fills        []design.Paint
	strokes      []design.Paint
	strokeWeight float64
	opacity      float64
	rotation     float64
}

// init sets identity and the design tool's defaults: 100x100, opaque,
// 1pt stroke.
func (n *node) init(id string, typ design.NodeType) {
	n.id, n.typ = id, typ
	n.width, n.height = 100, 100
	n.opacity = 1
	n.strokeWeight = 1
}

func (n *node) ID() string            { return n.id }
func (n *node) Type() design.NodeType { return n.typ }

func (n *node) X() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.x
}

func (n *node) Y() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.y
}

func (n *node) Width() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.width
}

func (n *node) Height() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.height
}

func (n *node) SetX(x float64) {
	n.mu.Lock()
	n.x = x
	n.mu.Unlock()
}

func (n *node) SetY(y float64) {
	n.mu.Lock()
	n.y = y
	n.mu.Unlock()
}

func (n *node) SetWidth(w float64) {
	n.mu.Lock()
	n.width = w
	n.mu.Unlock()
}

func (n *node) SetHeight(h float64) {
	n.mu.Lock()
	n.height = h
	n.mu.Unlock()
}

// Resize sets both dimensions and records the call.
func (n *node) Resize(w, h float64) {
	n.mu.Lock()
	n.width, n.height = w, h
	n.resizes = append(n.resizes, [2]float64{w, h})
	n.mu.Unlock()
}

// ResizeCalls returns the arguments of every Resize call in order.
func (n *node) ResizeCalls() [][2]float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([][2]float64(nil), n.resizes...)
}

func (n *node) Fills() []design.Paint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]design.Paint(nil), n.fills...)
}

func (n *node) SetFills(fills []design.Paint) {
	n.mu.Lock()
	n.fills = append([]design.Paint(nil), fills...)
	n.mu.Unlock()
}

func (n *node) Strokes() []design.Paint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]design.Paint(nil), n.strokes...)
}

func (n *node) SetStrokes(strokes []design.Paint) {
	n.mu.Lock()
	n.strokes = append([]design.Paint(nil), strokes...)
	n.mu.Unlock()
}

func (n *node) StrokeWeight() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.strokeWeight
}

func (n *node) SetStrokeWeight(w float64) {
	n.mu.Lock()
	n.strokeWeight = w
	n.mu.Unlock()
}

func (n *node) Opacity() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.opacity
}

func (n *node) SetOpacity(o float64) {
	n.mu.Lock()
	n.opacity = o
	n.mu.Unlock()
}

func (n *node) Rotation() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rotation
}

func (n *node) SetRotation(deg float64) {
	n.mu.Lock()
	n.rotation = deg
	n.mu.Unlock()
}

// Rectangle is an in-memory rectangle node.
type Rectangle struct {
	node
	cornerRadius float64
}

func (r *Rectangle) CornerRadius() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cornerRadius
}

func (r *Rectangle) SetCornerRadius(v float64) {
	r.mu.Lock()
	r.cornerRadius = v
	r.mu.Unlock()
}

// Ellipse is an in-memory ellipse node.
type Ellipse struct {
	node
}

// Text is an in-memory text node.
type Text struct {
	node
	characters string
}

func (t *Text) Characters() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.characters
}

func (t *Text) SetCharacters(s string) {
	t.mu.Lock()
	t.characters = s
	t.mu.Unlock()
}

// Vector is an in-memory vector node.
type Vector struct {
	node
	paths []design.VectorPath
}

func (v *Vector) VectorPaths() []design.VectorPath {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]design.VectorPath(nil), v.paths...)
}

func (v *Vector) SetVectorPaths(paths []design.VectorPath) {
	v.mu.Lock()
	v.paths = append([]design.VectorPath(nil), paths...)
	v.mu.Unlock()
}
