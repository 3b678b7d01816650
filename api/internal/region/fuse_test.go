package region

import (
	"reflect"
	"testing"
)

func tr(text string, x1, y1, x2, y2, conf float64, src string) TextRegion {
	return TextRegion{Text: text, Box: Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}, Confidence: conf, Source: src}
}

func TestFuseEmptyInput(t *testing.T) {
	got := Fuse()
	if got == nil || len(got) != 0 {
		t.Fatalf("Fuse() = %v, want empty non-nil slice", got)
	}
	got = Fuse(nil, []TextRegion{})
	if got == nil || len(got) != 0 {
		t.Fatalf("Fuse(nil, empty) = %v, want empty non-nil slice", got)
	}
}

func TestFuseSingleEngine(t *testing.T) {
	in := []TextRegion{
		tr("1、计算", 10, 10, 100, 40, 0.9, "tesseract"),
		tr("noise", 10, 50, 20, 60, 0.1, "tesseract"),
		tr("125 × 8 =", 10, 80, 150, 110, 0.8, "tesseract"),
	}
	got := Fuse(in)
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2 (low-confidence dropped)", len(got))
	}
	for _, r := range got {
		if r.Confidence < MinConfidence {
			t.Errorf("region %q below confidence floor", r.Text)
		}
	}
}

func TestFuseKeepsHighestConfidence(t *testing.T) {
	a := []TextRegion{tr("125 × 8 =", 10, 10, 150, 40, 0.7, "tesseract")}
	b := []TextRegion{tr("125×8=", 12, 11, 149, 39, 0.95, "gemini")}
	got := Fuse(a, b)
	if len(got) != 1 {
		t.Fatalf("got %d regions, want 1 merged", len(got))
	}
	if got[0].Source != "gemini" || got[0].Confidence != 0.95 {
		t.Errorf("kept %+v, want the higher-confidence gemini region", got[0])
	}
}

func TestFuseBelowThresholdKeepsBoth(t *testing.T) {
	// Overlap ratio must be strictly greater than the threshold to merge.
	a := []TextRegion{tr("left", 0, 0, 100, 100, 0.8, "a")}
	b := []TextRegion{tr("right", 90, 0, 190, 100, 0.9, "b")}
	if r := (Rect{0, 0, 100, 100}).OverlapRatio(Rect{90, 0, 190, 100}); r > OverlapThreshold {
		t.Fatalf("test setup: overlap ratio %v should be below threshold", r)
	}
	got := Fuse(a, b)
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2 distinct", len(got))
	}
}

func TestFuseChainedOverlapCollapses(t *testing.T) {
	// C overlaps the absorbed member B entirely but barely touches the
	// seed A. All three belong to one cluster; only the most confident
	// member may survive.
	a := []TextRegion{
		tr("A", 0, 0, 100, 10, 0.5, "a"),
		tr("C", 101, 0, 121, 10, 0.8, "a"),
	}
	b := []TextRegion{tr("B", 25, 0, 125, 10, 0.9, "b")}
	got := Fuse(a, b)
	if len(got) != 1 {
		t.Fatalf("got %d regions %v, want 1", len(got), got)
	}
	if got[0].Text != "B" {
		t.Errorf("kept %q, want the highest-confidence member B", got[0].Text)
	}
}

func TestFuseOutputPairwiseBelowThreshold(t *testing.T) {
	lists := [][]TextRegion{
		{
			tr("a1", 0, 0, 100, 10, 0.5, "a"),
			tr("a2", 101, 0, 121, 10, 0.8, "a"),
			tr("a3", 0, 30, 80, 40, 0.7, "a"),
		},
		{
			tr("b1", 25, 0, 125, 10, 0.9, "b"),
			tr("b2", 5, 31, 79, 39, 0.6, "b"),
			tr("b3", 300, 300, 400, 340, 0.8, "b"),
		},
	}
	got := Fuse(lists...)
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if r := got[i].Box.OverlapRatio(got[j].Box); r > OverlapThreshold {
				t.Errorf("output regions %q and %q overlap at ratio %v > %v",
					got[i].Text, got[j].Text, r, OverlapThreshold)
			}
		}
	}
}

func TestFuseIdempotent(t *testing.T) {
	a := []TextRegion{
		tr("1、", 10, 10, 40, 40, 0.9, "a"),
		tr("6 + 7 =", 50, 10, 150, 40, 0.8, "a"),
	}
	b := []TextRegion{
		tr("1.", 11, 12, 39, 41, 0.6, "b"),
		tr("6+7=", 52, 11, 148, 39, 0.85, "b"),
	}
	once := Fuse(a, b)
	twice := Fuse(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("fusing a fused list changed it:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want float64
	}{
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 30, 30}, 0},
		{"contained", Rect{0, 0, 100, 100}, Rect{10, 10, 20, 20}, 1},
		{"identical", Rect{0, 0, 10, 10}, Rect{0, 0, 10, 10}, 1},
		{"half", Rect{0, 0, 10, 10}, Rect{5, 0, 15, 10}, 0.5},
		{"degenerate", Rect{0, 0, 0, 0}, Rect{0, 0, 10, 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.OverlapRatio(tt.b); got != tt.want {
				t.Errorf("OverlapRatio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortReadingOrder(t *testing.T) {
	rs := []TextRegion{
		tr("right-top", 200, 12, 300, 40, 1, "a"),
		tr("second-line", 10, 80, 100, 110, 1, "a"),
		tr("left-top", 10, 10, 100, 40, 1, "a"),
	}
	SortReadingOrder(rs)
	want := []string{"left-top", "right-top", "second-line"}
	for i, w := range want {
		if rs[i].Text != w {
			t.Fatalf("position %d = %q, want %q", i, rs[i].Text, w)
		}
	}
}

func TestSortReadingOrderToleranceChain(t *testing.T) {
	// Y values 0/15/30 form a tolerance chain: 0 and 15 share a line, 15 and
	// 30 would too pairwise, but the line is anchored at its first region so
	// 30 starts a new one. The outcome must be stable, not comparator-luck.
	rs := []TextRegion{
		tr("y0", 50, 0, 90, 10, 1, "a"),
		tr("y15", 25, 15, 65, 25, 1, "a"),
		tr("y30", 0, 30, 40, 40, 1, "a"),
	}
	SortReadingOrder(rs)
	want := []string{"y15", "y0", "y30"}
	for i, w := range want {
		if rs[i].Text != w {
			t.Fatalf("position %d = %q, want %q (order %v)", i, rs[i].Text, w, rs)
		}
	}
}
