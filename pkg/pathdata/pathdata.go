// Package pathdata turns vertex lists into vector path data.
package pathdata

import (
	"strconv"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/figforge/pkg/design"
)

// Synthesize emits "M x0 y0 L x1 y1 ..." for pts, followed by "Z" when
// closed. The winding rule is always non-zero.
func Synthesize(pts []v2.Vec, closed bool) design.VectorPath {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(num(p.X))
		b.WriteByte(' ')
		b.WriteString(num(p.Y))
	}
	if closed && len(pts) > 0 {
		b.WriteString(" Z")
	}
	return design.VectorPath{WindingRule: design.WindingNonZero, Data: b.String()}
}

// Line is the open two-point path from start to end.
func Line(start, end v2.Vec) design.VectorPath {
	return Synthesize([]v2.Vec{start, end}, false)
}

// Verbatim wraps externally supplied path data unchanged.
func Verbatim(data string) design.VectorPath {
	return design.VectorPath{WindingRule: design.WindingNonZero, Data: data}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
