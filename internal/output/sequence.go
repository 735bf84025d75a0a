package output

// Sequence is a lazy, pull-based stream of items. Next returns false once
// the sequence is exhausted; an exhausted sequence stays exhausted.
type Sequence interface {
	Next() (Item, bool)
}

// Func adapts a pull function to a Sequence.
type Func func() (Item, bool)

func (f Func) Next() (Item, bool) { return f() }

type itemSeq struct {
	items []Item
	pos   int
}

// Items returns a sequence over a fixed list of items.
func Items(items ...Item) Sequence {
	return &itemSeq{items: items}
}

func (s *itemSeq) Next() (Item, bool) {
	for s.pos < len(s.items) {
		item := s.items[s.pos]
		s.pos++
		if item != nil {
			return item, true
		}
	}
	return nil, false
}

type concatSeq struct {
	seqs []Sequence
}

// Concat chains sequences in order.
func Concat(seqs ...Sequence) Sequence {
	return &concatSeq{seqs: seqs}
}

func (s *concatSeq) Next() (Item, bool) {
	for len(s.seqs) > 0 {
		if s.seqs[0] != nil {
			if item, ok := s.seqs[0].Next(); ok {
				return item, true
			}
		}
		s.seqs = s.seqs[1:]
	}
	return nil, false
}

type deferSeq struct {
	build func() Sequence
	seq   Sequence
	done  bool
}

// Defer builds the underlying sequence on the first pull, so conditions and
// variable reads are evaluated at play time.
func Defer(build func() Sequence) Sequence {
	return &deferSeq{build: build}
}

func (s *deferSeq) Next() (Item, bool) {
	if s.done {
		return nil, false
	}
	if s.seq == nil {
		s.seq = s.build()
		if s.seq == nil {
			s.done = true
			return nil, false
		}
	}
	item, ok := s.seq.Next()
	if !ok {
		s.done = true
	}
	return item, ok
}

// Do runs fn when pulled and yields nothing.
func Do(fn func()) Sequence {
	ran := false
	return Func(func() (Item, bool) {
		if !ran {
			ran = true
			fn()
		}
		return nil, false
	})
}

// Empty returns an exhausted sequence.
func Empty() Sequence {
	return Func(func() (Item, bool) { return nil, false })
}

// Collect drains seq into a slice.
func Collect(seq Sequence) []Item {
	var out []Item
	for {
		item, ok := seq.Next()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}
