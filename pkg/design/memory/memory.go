// Package memory implements design.API as an in-process document. It is
// the backend used by the CLI and server when no remote design tool is
// attached, and the one the tests run against.
package memory

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/samber/lo"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chazu/figforge/pkg/design"
)

// Compile-time interface check.
var _ design.API = (*Document)(nil)

// ImageInfo describes a registered image.
type ImageInfo struct {
	Hash   design.ImageHash `json:"hash"`
	Format string           `json:"format"`
	Width  int              `json:"width"`
	Height int              `json:"height"`
	Size   int              `json:"size"`
}

// Document is an in-memory page of nodes. It is safe for concurrent use.
type Document struct {
	mu     sync.RWMutex
	page   int
	next   int
	nodes  map[string]design.SceneNode
	order  []string
	images map[design.ImageHash]ImageInfo
	data   map[design.ImageHash][]byte
}

// New returns an empty document. Node ids take the form "<page>:<n>".
func New() *Document {
	return &Document{
		page:   1,
		nodes:  make(map[string]design.SceneNode),
		images: make(map[design.ImageHash]ImageInfo),
		data:   make(map[design.ImageHash][]byte),
	}
}

func (d *Document) add(n design.SceneNode) {
	d.nodes[n.ID()] = n
	d.order = append(d.order, n.ID())
}

// nextID must be called with mu held.
func (d *Document) nextID() string {
	d.next++
	return fmt.Sprintf("%d:%d", d.page, d.next)
}

// CreateRectangle creates a rectangle with default geometry.
func (d *Document) CreateRectangle(ctx context.Context) (design.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := &Rectangle{}
	r.init(d.nextID(), design.TypeRectangle)
	d.add(r)
	return r, nil
}

// CreateEllipse creates an ellipse with default geometry.
func (d *Document) CreateEllipse(ctx context.Context) (design.Ellipse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := &Ellipse{}
	e.init(d.nextID(), design.TypeEllipse)
	d.add(e)
	return e, nil
}

// CreateText creates an empty text node.
func (d *Document) CreateText(ctx context.Context) (design.Text, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &Text{}
	t.init(d.nextID(), design.TypeText)
	d.add(t)
	return t, nil
}

// CreateVector creates a vector node with no paths.
func (d *Document) CreateVector(ctx context.Context) (design.Vector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := &Vector{}
	v.init(d.nextID(), design.TypeVector)
	d.add(v)
	return v, nil
}

// CreateImage registers data and returns its hash, the hex SHA-1 of the
// bytes. Data that does not decode as a known image format is rejected.
// Registering the same bytes twice returns the same hash.
func (d *Document) CreateImage(ctx context.Context, data []byte) (design.ImageHash, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported image data: %w", err)
	}
	sum := sha1.Sum(data)
	hash := design.ImageHash(hex.EncodeToString(sum[:]))

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.images[hash]; !ok {
		d.images[hash] = ImageInfo{
			Hash:   hash,
			Format: format,
			Width:  cfg.Width,
			Height: cfg.Height,
			Size:   len(data),
		}
		d.data[hash] = append([]byte(nil), data...)
	}
	return hash, nil
}

// NodeByID looks up a node.
func (d *Document) NodeByID(ctx context.Context, id string) (design.SceneNode, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	return n, ok, nil
}

// Image returns the metadata of a registered image.
func (d *Document) Image(hash design.ImageHash) (ImageInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.images[hash]
	return info, ok
}

// ImageBytes returns a copy of the bytes registered under hash.
func (d *Document) ImageBytes(hash design.ImageHash) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.data[hash]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Nodes returns every node in creation order.
func (d *Document) Nodes() []design.SceneNode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Map(d.order, func(id string, _ int) design.SceneNode {
		return d.nodes[id]
	})
}

// NodeCount returns the number of nodes.
func (d *Document) NodeCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.nodes)
}
