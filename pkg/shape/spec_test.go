package shape

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/figforge/pkg/design"
)

func TestParseSpecMissing(t *testing.T) {
	tests := []struct {
		name     string
		kind     ShapeKind
		props    Properties
		property string
		msg      string
	}{
		{"line", KindLine, Properties{}, "line", "Line properties are required"},
		{"polygon", KindPolygon, Properties{}, "polygon", "Polygon properties are required"},
		{"polygon empty", KindPolygon, Properties{Polygon: &PolygonProperties{}},
			"polygon.points", "Polygon requires either points or sides and radius"},
		{"polygon two points", KindPolygon, Properties{Polygon: &PolygonProperties{Points: []Point{{0, 0}, {1, 1}}}},
			"polygon.points", "Polygon requires either points or sides and radius"},
		{"polygon no radius", KindPolygon, Properties{Polygon: &PolygonProperties{Sides: 5}},
			"polygon.points", "Polygon requires either points or sides and radius"},
		{"polygon too many sides", KindPolygon, Properties{Polygon: &PolygonProperties{Sides: MaxVertices + 1, Radius: 1}},
			"polygon.sides", "Polygon sides must not exceed 10000"},
		{"polygon huge sides", KindPolygon, Properties{Polygon: &PolygonProperties{Sides: math.MaxInt, Radius: 1}},
			"polygon.sides", "Polygon sides must not exceed 10000"},
		{"star", KindStar, Properties{}, "star", "Star properties are required"},
		{"star too many points", KindStar, Properties{Star: &StarProperties{Points: MaxVertices/2 + 1, OuterRadius: 4}},
			"star.points", "Star points must not exceed 5000"},
		{"star huge points", KindStar, Properties{Star: &StarProperties{Points: math.MaxInt, OuterRadius: 4}},
			"star.points", "Star points must not exceed 5000"},
		{"star one point", KindStar, Properties{Star: &StarProperties{Points: 1, OuterRadius: 4}},
			"star.points", "Star requires at least 2 points"},
		{"star negative", KindStar, Properties{Star: &StarProperties{Points: 5, InnerRadius: -1}},
			"star.innerRadius", "Star radii must be non-negative"},
		{"vector", KindVector, Properties{}, "vector", "Vector properties are required"},
		{"vector empty path", KindVector, Properties{Vector: &VectorProperties{}}, "vector.path", "Vector path is required"},
		{"image", KindImage, Properties{}, "image", "Image properties are required"},
		{"image no source", KindImage, Properties{Image: &ImageProperties{}}, "image.source", "Image source is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.kind, tt.props)
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("error = %v (%T), want *Error", err, err)
			}
			if e.Kind != MissingRequiredProperty {
				t.Errorf("Kind = %s, want missing_required_property", e.Kind)
			}
			if e.Shape != tt.kind || e.Property != tt.property {
				t.Errorf("Shape/Property = %s/%s, want %s/%s", e.Shape, e.Property, tt.kind, tt.property)
			}
			if e.Error() != tt.msg {
				t.Errorf("message = %q, want %q", e.Error(), tt.msg)
			}
		})
	}
}

func TestParseSpecVariants(t *testing.T) {
	tests := []struct {
		kind  ShapeKind
		props Properties
		want  Spec
	}{
		{KindRectangle, Properties{X: f(1)}, Rectangle{Common{X: f(1)}}},
		{KindEllipse, Properties{}, Ellipse{}},
		{KindText, Properties{Text: s("hi")}, Text{Characters: s("hi")}},
		{KindLine, Properties{Line: &LineProperties{End: Point{3, 4}}}, Line{End: Point{3, 4}}},
		{KindPolygon, Properties{Polygon: &PolygonProperties{Sides: 6, Radius: 2, CenterX: 1}},
			Polygon{Regular: &RegularPolygon{Sides: 6, Radius: 2, Center: Point{X: 1}}}},
		{KindStar, Properties{Star: &StarProperties{Points: 5, InnerRadius: 1, OuterRadius: 2}},
			Star{Points: 5, InnerRadius: 1, OuterRadius: 2}},
		{KindVector, Properties{Vector: &VectorProperties{Path: "M 0 0"}}, Vector{Path: "M 0 0"}},
		{KindImage, Properties{Image: &ImageProperties{Source: "data:,"}},
			Image{Source: "data:,", ScaleMode: design.ScaleFill}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := ParseSpec(tt.kind, tt.props)
			if err != nil {
				t.Fatalf("ParseSpec: %v", err)
			}
			if got.Kind() != tt.kind {
				t.Errorf("Kind() = %s", got.Kind())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("spec (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSpecFillNormalized(t *testing.T) {
	spec, err := ParseSpec(KindRectangle, Properties{
		Fill: &Fill{Type: design.PaintImage, Color: design.Color{G: 1}},
	})
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	got := spec.(Rectangle).Fill
	want := design.Solid(design.Color{G: 1})
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("fill (-want +got):\n%s", diff)
	}
}

func TestErrorKindString(t *testing.T) {
	for kind, want := range map[ErrorKind]string{
		UnsupportedShapeKind:    "unsupported_shape_kind",
		MissingRequiredProperty: "missing_required_property",
		ImageLoadFailure:        "image_load_failure",
		ImageUpdateFailure:      "image_update_failure",
		NodeNotFound:            "node_not_found",
		ErrorKind(42):           "ErrorKind(42)",
	} {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), got, want)
		}
	}
}
