package projection

import "sync/atomic"

// Generation tags listing reads so a slow response cannot overwrite the
// result of a newer one.
type Generation struct {
	n atomic.Uint64
}

func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

func (g *Generation) IsCurrent(tag uint64) bool {
	return g.n.Load() == tag
}
