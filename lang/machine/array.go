package machine

import "fmt"

// arrayBuf is the shared, mutable, reference-counted backing buffer for
// every Array view into it, parameterised by (start, end) indices so
// that slices share the underlying buffer. refs tracks the number of
// live Array values pointing at this buffer so cat/push can enforce the
// sole-reference-holder invariant required before a destructive resize.
type arrayBuf struct {
	data []Value
	refs int
}

// Array is a view (start, end) over a shared arrayBuf.
type Array struct {
	buf        *arrayBuf
	start, end int
}

// NewArray constructs a fresh, sole-owned array from elems. Ownership of
// elems' slice backing is transferred to the array; callers must not
// retain it.
func NewArray(elems []Value) *Array {
	return &Array{buf: &arrayBuf{data: elems, refs: 1}, start: 0, end: len(elems)}
}

func (a *Array) String() string {
	s := "["
	for i := a.start; i < a.end; i++ {
		if i > a.start {
			s += ", "
		}
		s += a.buf.data[i].String()
	}
	return s + "]"
}

func (*Array) Type() string { return "array" }

// Len returns the number of elements in this view.
func (a *Array) Len() int { return a.end - a.start }

// Index returns the element at view-relative index i.
func (a *Array) Index(i int) Value {
	if i < 0 || i >= a.Len() {
		panic(fmt.Sprintf("array index %d out of range [0, %d)", i, a.Len()))
	}
	return a.buf.data[a.start+i]
}

// SetIndex assigns the element at view-relative index i. Like PutLocal
// overwriting a local slot, this drops whichever reference the
// overwritten element held and picks up one for v, since the buffer slot
// is itself a storage location the retain/release bookkeeping must track.
func (a *Array) SetIndex(i int, v Value) {
	if i < 0 || i >= a.Len() {
		panic(fmt.Sprintf("array index %d out of range [0, %d)", i, a.Len()))
	}
	releaseIfHolder(a.buf.data[a.start+i])
	a.buf.data[a.start+i] = v
	retainIfHolder(v)
}

// Slice returns a new view sharing this array's buffer, incrementing its
// reference count. Two views created by slice observe each other's
// writes within their overlapping range.
func (a *Array) Slice(lo, hi int) *Array {
	if lo < 0 || hi > a.Len() || lo > hi {
		panic(fmt.Sprintf("invalid slice [%d:%d] of array of length %d", lo, hi, a.Len()))
	}
	a.buf.refs++
	return &Array{buf: a.buf, start: a.start + lo, end: a.start + hi}
}

// soleRef reports whether this is the only live view of its buffer.
func (a *Array) soleRef() bool { return a.buf.refs == 1 }

// release drops this view's reference to its buffer, called when a value
// holding this array is overwritten or its frame is torn down.
func (a *Array) release() {
	if a.buf.refs > 0 {
		a.buf.refs--
	}
}

// retain records a new live reference to this array's buffer, called
// whenever a value holding it is duplicated into a second storage
// location (e.g. PutLocal leaving the value both in a0 and in the local
// slot).
func (a *Array) retain() { a.buf.refs++ }

// pushBack appends v to the end of the array's buffer in place. It is a
// fatal error unless this is the sole reference to the buffer, since
// growing in place would silently corrupt any other view.
func (a *Array) pushBack(v Value) {
	if !a.soleRef() {
		panic("cat: cannot grow an array with more than one live reference")
	}
	if a.end == len(a.buf.data) {
		a.buf.data = append(a.buf.data, v)
	} else {
		a.buf.data = append(a.buf.data[:a.end], v)
	}
	a.end++
}

// pushFront prepends v to the start of the array's buffer in place, same
// sole-reference requirement as pushBack.
func (a *Array) pushFront(v Value) {
	if !a.soleRef() {
		panic("cat: cannot grow an array with more than one live reference")
	}
	if a.start == 0 {
		data := make([]Value, len(a.buf.data)+1)
		data[0] = v
		copy(data[1:], a.buf.data)
		a.buf.data = data
		a.end++
	} else {
		a.start--
		a.buf.data[a.start] = v
	}
}

// retainIfHolder increments the refcount of v's array buffer if v holds
// an *Array value, a no-op otherwise. Called at every point a value is
// duplicated into a second storage location.
func retainIfHolder(v Value) {
	if a, ok := v.(*Array); ok {
		a.retain()
	}
}

// releaseIfHolder decrements the refcount of v's array buffer if v holds
// an *Array value, a no-op otherwise. Called whenever a stored value is
// overwritten or its storage location torn down.
func releaseIfHolder(v Value) {
	if a, ok := v.(*Array); ok {
		a.release()
	}
}
