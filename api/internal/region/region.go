package region

import "sort"

// Rect is an axis-aligned box in image pixel coordinates, origin top-left.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (r Rect) Valid() bool { return r.X1 < r.X2 && r.Y1 < r.Y2 }

func (r Rect) Area() float64 {
	if !r.Valid() {
		return 0
	}
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

func (r Rect) Union(o Rect) Rect {
	if !r.Valid() {
		return o
	}
	if !o.Valid() {
		return r
	}
	out := r
	if o.X1 < out.X1 {
		out.X1 = o.X1
	}
	if o.Y1 < out.Y1 {
		out.Y1 = o.Y1
	}
	if o.X2 > out.X2 {
		out.X2 = o.X2
	}
	if o.Y2 > out.Y2 {
		out.Y2 = o.Y2
	}
	return out
}

// OverlapRatio returns intersection area divided by the smaller of the two
// areas. 0 when the boxes do not intersect or either box is degenerate.
func (r Rect) OverlapRatio(o Rect) float64 {
	ix1, iy1 := max2(r.X1, o.X1), max2(r.Y1, o.Y1)
	ix2, iy2 := min2(r.X2, o.X2), min2(r.Y2, o.Y2)
	if ix1 >= ix2 || iy1 >= iy2 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	smaller := r.Area()
	if oa := o.Area(); oa < smaller {
		smaller = oa
	}
	if smaller <= 0 {
		return 0
	}
	return inter / smaller
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// TextRegion is one recognized span of text. Adapters create it; fusion may
// discard it; nothing mutates it afterwards.
type TextRegion struct {
	Text       string  `json:"text"`
	Box        Rect    `json:"box"`
	Confidence float64 `json:"confidence"` // 0..1
	Source     string  `json:"source"`     // adapter name
}

// LineTolerance is the vertical slack (px) within which two regions are
// considered to sit on the same line.
const LineTolerance = 20.0

// SortReadingOrder orders regions top-to-bottom, left-to-right. Regions are
// first bucketed into lines (top edge within LineTolerance of the line's
// first region), then each line is ordered by X. Bucketing keeps the result
// well-defined on tolerance chains, where a pairwise "same line" comparator
// would not be transitive.
func SortReadingOrder(rs []TextRegion) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Box.Y1 < rs[j].Box.Y1
	})
	for start := 0; start < len(rs); {
		end := start + 1
		for end < len(rs) && rs[end].Box.Y1-rs[start].Box.Y1 < LineTolerance {
			end++
		}
		line := rs[start:end]
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].Box.X1 < line[j].Box.X1
		})
		start = end
	}
}
