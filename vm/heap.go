package vm

// heapEntry is one node of the heap's intrusive linked list: the
// header every live object carries (§3) plus the object payload
// itself. Go's garbage collector reclaims the memory once an entry
// becomes unreachable; refCount and the list linkage are kept purely
// as the observable bookkeeping §3's invariants describe (a
// reference-counted handle whose count reaches zero at its last pop),
// not as a manual allocator — Go offers no alloc/dealloc primitives
// to mirror a region/arena collector 1:1, and the spec permits any
// design with the same observable lifetime.
type heapEntry struct {
	obj      Object
	refCount int
	next     *heapEntry
}

// Heap is the VM's managed-object store: a singly-linked list where
// new allocations prepend, matching §3's "dropping the heap drops
// every listed object" contract (here: the list becomes unreachable
// and the GC reclaims its entries).
type Heap struct {
	head *heapEntry
	size int
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{}
}

// Alloc registers obj as a new heap object and returns the managed
// pointer (heapEntry) the stack will wrap it in.
func (h *Heap) Alloc(obj Object) *heapEntry {
	e := &heapEntry{obj: obj, next: h.head}
	h.head = e
	h.size++
	return e
}

// Size reports how many objects are currently listed on the heap.
func (h *Heap) Size() int {
	return h.size
}

func (e *heapEntry) incref() {
	e.refCount++
}

// decref releases one reference. It never removes e from the heap's
// list — the list's role is to enumerate every object the heap has
// ever allocated for this run, not to track current liveness; an
// object with refCount 0 is simply unreachable from the stack and is
// reclaimed by the Go runtime like any other value.
func (e *heapEntry) decref() {
	if e.refCount > 0 {
		e.refCount--
	}
}
