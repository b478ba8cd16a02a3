package cardstack

type Card[T any] struct {
	Item  T     `json:"item"`
	Layer Layer `json:"layer"`
}

type Stack[T any] struct {
	Top       int       `json:"top"`
	Total     int       `json:"total"`
	Cards     []Card[T] `json:"cards"`
	Exhausted bool      `json:"exhausted"`
}

// Build 返回从 top 开始的可见卡片，最上层在前
func Build[T any](items []T, top int, opts Options) Stack[T] {
	indices := VisibleIndices(len(items), top, opts.VisibleCount, opts.InfiniteLoop)

	s := Stack[T]{
		Top:   top,
		Total: len(items),
		Cards: make([]Card[T], 0, len(indices)),
	}
	for layer, idx := range indices {
		s.Cards = append(s.Cards, Card[T]{Item: items[idx], Layer: Transform(layer, opts)})
	}
	s.Exhausted = len(s.Cards) == 0
	return s
}

// Advance 滑走一张后的新 top，无限模式下循环
func Advance(top, n int, infinite bool) int {
	next := top + 1
	if infinite && n > 0 {
		next %= n
	}
	return next
}
