package main

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Sources with no drawing calls produce no nodes and no errors.
// ---------------------------------------------------------------------------

func TestE2ENoDrawingSources(t *testing.T) {
	sources := map[string]string{
		"whitespace only":    "   \n\t\n  ",
		"comments only":      "; a comment\n;; another\n",
		"comments and space": "\n  ; indented comment\n\n",
		"arithmetic only":    "(+ 1 2)",
		"definitions only":   "(def w 10)\n(def h (* w 2))",
	}

	for name, source := range sources {
		t.Run(name, func(t *testing.T) {
			app := newTestApp(t)
			result := app.Evaluate(context.Background(), source)
			if len(result.Errors) != 0 {
				t.Errorf("unexpected errors: %v", result.Errors)
			}
			if len(result.Nodes) != 0 {
				t.Errorf("expected 0 nodes, got %d", len(result.Nodes))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Errors after successful calls keep the nodes already built.
// ---------------------------------------------------------------------------

func TestE2EPartialFailureKeepsNodes(t *testing.T) {
	app := newTestApp(t)
	source := `
(rectangle :width 10 :height 10)
(ellipse :width 5 :height 5)
(polygon :sides 2 :radius 4)
(rectangle :width 99)
`
	result := app.Evaluate(context.Background(), source)

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "Polygon") {
		t.Errorf("error = %q, want a polygon failure", result.Errors[0].Message)
	}
	if len(result.Nodes) != 2 {
		t.Errorf("expected the 2 nodes built before the failure, got %d", len(result.Nodes))
	}
	if got := app.doc.NodeCount(); got != 2 {
		t.Errorf("document holds %d nodes, want 2", got)
	}
}

func TestE2EUndefinedFunction(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(context.Background(), "(rectangle)\n(hexagon :x 1)")

	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an undefined function")
	}
	if len(result.Nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(result.Nodes))
	}
}

func TestE2EModifyUnknownNode(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(context.Background(), `(modify "7:7" :width 1)`)

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "Node not found: 7:7") {
		t.Errorf("errors = %v, want node not found", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// Property values computed by the script.
// ---------------------------------------------------------------------------

func TestE2EComputedDimensions(t *testing.T) {
	app := newTestApp(t)
	source := `
(def unit 8)
(def gutter (/ unit 2))
(rectangle :x gutter :y (* unit 3) :width (* unit 10) :height (+ unit gutter 0.5))
`
	result := app.Evaluate(context.Background(), source)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	got := result.Nodes[0]
	if got.X != 4 || got.Y != 24 || got.Width != 80 || got.Height != 12.5 {
		t.Errorf("node = %+v", got)
	}
}

func TestE2ELargeDimensions(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(context.Background(), `(ellipse :x -50000 :y 1e6 :width 100000 :height 250000.25)`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	got := result.Nodes[0]
	if got.X != -50000 || got.Y != 1e6 || got.Width != 100000 || got.Height != 250000.25 {
		t.Errorf("node = %+v", got)
	}
}

func TestE2ENodeIDsStableAcrossRuns(t *testing.T) {
	app := newTestApp(t)
	first := app.Evaluate(context.Background(), `(rectangle :width 10 :height 10)`)
	if len(first.Nodes) != 1 {
		t.Fatalf("first run: %+v", first)
	}
	id := first.Nodes[0].ID

	second := app.Evaluate(context.Background(), `(modify (node "`+id+`") :x 30)`)
	if len(second.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", second.Errors)
	}
	if second.Nodes[0].ID != id || second.Nodes[0].X != 30 {
		t.Errorf("second run = %+v", second.Nodes[0])
	}
	if first.RunID == second.RunID {
		t.Error("runs share a run id")
	}
}

// ---------------------------------------------------------------------------
// Rapid sequential evaluation: the engine recovers cleanly between runs.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Calls are sequential: zygomys keeps global state that is not safe
	// for concurrent sandbox creation.
	app := newTestApp(t)

	sources := []string{
		`(rectangle :width 100 :height 50)`,
		`(rectangle :width 100`,
		``,
		`(modify "0:0" :x 1)`,
		`(ellipse :width 200 :height 100)`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(star :points 5 :inner-radius 3 :outer-radius 9)`,
		`(undefined-func 1 2 3)`,
		`(text "last")`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			_ = app.Evaluate(context.Background(), source)
		}()
	}

	if got := app.doc.NodeCount(); got != 4 {
		t.Errorf("document holds %d nodes, want 4", got)
	}
}
