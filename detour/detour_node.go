package detour

import (
	"container/heap"

	"github.com/gorustyt/navquery/common"
)

const (
	DT_NODE_OPEN   = 0x01
	DT_NODE_CLOSED = 0x02
)

type DtNodeIndex uint32

const (
	DT_NODE_PARENT_BITS = 24
	DT_NULL_IDX         = DtNodeIndex(^uint32(0))
)

type DtNode struct {
	Pos   common.Vec3 ///< Position of the node.
	Cost  float32     ///< Cost up to the node.
	Total float32     ///< Cost up to the node plus the heuristic.
	Pidx  uint32      ///< Parent node index + 1, 0 means none.
	State uint32      ///< Entry side for off-mesh nodes. For polygons 0 when entered through a portal, otherwise the landing connection.
	Flags uint8       ///< Node flags. A combination of DT_NODE_OPEN, DT_NODE_CLOSED.
	Id    DtNodeRef   ///< Node ref the node corresponds to.

	seq    uint32 // discovery order, breaks ties in the open list
	idx    uint32 // position in the pool
	_index int    // position in the open list heap
}

func (node *DtNode) SetIndex(index int) {
	node._index = index
}

func (node *DtNode) GetIndex() int {
	return node._index
}

type NodeQueueIndex interface {
	SetIndex(index int)
	GetIndex() int
}

type NodeQueue[T NodeQueueIndex] interface {
	Peek() T    // top of the heap, not removed
	Poll() T    // pops the top of the heap
	Update(T)   // restores heap order after the element's key changed
	Offer(T)    // inserts an element
	Reset()
	Empty() bool
}

// Priority queue.
type nodeQueue[T NodeQueueIndex] struct {
	data []T
	less func(t1, t2 T) bool
}

func NewNodeQueue[T NodeQueueIndex](less func(t1, t2 T) bool) NodeQueue[T] {
	return &nodeQueue[T]{less: less}
}

func (q *nodeQueue[T]) Reset()     { q.data = q.data[:0] }
func (q *nodeQueue[T]) Peek() T    { return q.data[0] }
func (q *nodeQueue[T]) Poll() T    { return heap.Pop(q).(T) }
func (q *nodeQueue[T]) Update(v T) { heap.Fix(q, v.GetIndex()) }
func (q *nodeQueue[T]) Offer(v T)  { heap.Push(q, v) }
func (q *nodeQueue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *nodeQueue[T]) Push(x any) {
	v := x.(T)
	v.SetIndex(len(q.data))
	q.data = append(q.data, v)
}

func (q *nodeQueue[T]) Pop() any {
	n := len(q.data) - 1
	res := q.data[n]
	var zero T
	q.data[n] = zero
	q.data = q.data[:n]
	res.SetIndex(-1)
	return res
}

func (q *nodeQueue[T]) Len() int           { return len(q.data) }
func (q *nodeQueue[T]) Less(i, j int) bool { return q.less(q.data[i], q.data[j]) }
func (q *nodeQueue[T]) Swap(i, j int) {
	q.data[i], q.data[j] = q.data[j], q.data[i]
	q.data[i].SetIndex(i)
	q.data[j].SetIndex(j)
}

// nodeLess orders by total cost, then by discovery order.
func nodeLess(a, b *DtNode) bool {
	if a.Total != b.Total {
		return a.Total < b.Total
	}
	return a.seq < b.seq
}

func dtHashRef(a DtNodeRef, state uint32) uint32 {
	a += DtNodeRef(state) * 0x9e3779b97f4a7c15
	a += ^(a << 31)
	a ^= a >> 21
	a += a << 3
	a ^= a >> 11
	a += ^(a << 17)
	a ^= a >> 27
	return uint32(a)
}

// DtNodePool hands out search nodes keyed by (ref, state).
type DtNodePool struct {
	m_nodes     []DtNode
	m_first     []DtNodeIndex
	m_next      []DtNodeIndex
	m_maxNodes  int32
	m_hashSize  int32
	m_nodeCount int32
}

func NewDtNodePool(maxNodes, hashSize int32) *DtNodePool {
	common.AssertTrue(common.NextPow2(uint32(hashSize)) == uint32(hashSize), "hash size %d is not a power of two", hashSize)
	// Pidx stores index+1 so one value less is addressable.
	common.AssertTrue(maxNodes > 0 && maxNodes <= (1<<DT_NODE_PARENT_BITS)-1, "invalid node count %d", maxNodes)
	p := &DtNodePool{
		m_maxNodes: maxNodes,
		m_hashSize: hashSize,
		m_nodes:    make([]DtNode, maxNodes),
		m_next:     make([]DtNodeIndex, maxNodes),
		m_first:    make([]DtNodeIndex, hashSize),
	}
	p.Clear()
	return p
}

func (p *DtNodePool) Clear() {
	for i := range p.m_first {
		p.m_first[i] = DT_NULL_IDX
	}
	p.m_nodeCount = 0
}

func (p *DtNodePool) GetMaxNodes() int32  { return p.m_maxNodes }
func (p *DtNodePool) GetNodeCount() int32 { return p.m_nodeCount }

// GetNodeIdx returns index+1 of the node, or 0 for nil.
func (p *DtNodePool) GetNodeIdx(node *DtNode) uint32 {
	if node == nil {
		return 0
	}
	return node.idx + 1
}

// GetNodeAtIdx is the inverse of GetNodeIdx.
func (p *DtNodePool) GetNodeAtIdx(idx uint32) *DtNode {
	if idx == 0 {
		return nil
	}
	return &p.m_nodes[idx-1]
}

// FindNode returns the node for (id, state) if it was allocated since the last Clear.
func (p *DtNodePool) FindNode(id DtNodeRef, state uint32) *DtNode {
	bucket := dtHashRef(id, state) & uint32(p.m_hashSize-1)
	for i := p.m_first[bucket]; i != DT_NULL_IDX; i = p.m_next[i] {
		node := &p.m_nodes[i]
		if node.Id == id && node.State == state {
			return node
		}
	}
	return nil
}

// GetNode returns the node for (id, state), allocating it on first use.
// Returns nil when the pool is exhausted.
func (p *DtNodePool) GetNode(id DtNodeRef, state uint32) *DtNode {
	if node := p.FindNode(id, state); node != nil {
		return node
	}
	if p.m_nodeCount >= p.m_maxNodes {
		return nil
	}
	i := DtNodeIndex(p.m_nodeCount)
	p.m_nodeCount++

	// Init node
	node := &p.m_nodes[i]
	*node = DtNode{Id: id, State: state, idx: uint32(i), _index: -1}

	bucket := dtHashRef(id, state) & uint32(p.m_hashSize-1)
	p.m_next[i] = p.m_first[bucket]
	p.m_first[bucket] = i
	return node
}
