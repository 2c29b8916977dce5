package routing

import (
	"container/heap"

	"github.com/samirrijal/metropath/internal/core/domain"
)

// Path is an ordered node sequence from a start node to a goal node.
type Path struct {
	Nodes []NodeKey
	Cost  float64
}

// Solve runs Dijkstra from every line node of start to the first finalized
// node of end. ok is false when no such node is reachable.
//
// The frontier uses lazy deletion: a node is pushed again on every
// improvement and stale entries are dropped when popped.
func Solve(g *Graph, start, end domain.Station) (path Path, ok bool) {
	dist := make(map[NodeKey]float64)
	prev := make(map[NodeKey]NodeKey)
	pq := &frontier{}

	for _, lineID := range start.Lines {
		k := NodeKey{StationID: start.ID, LineID: lineID}
		if _, seen := dist[k]; seen {
			continue
		}
		dist[k] = 0
		pq.push(k, 0)
	}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(frontierItem)
		if cur.dist > dist[cur.node] {
			continue
		}

		if cur.node.StationID == end.ID {
			return Path{Nodes: reconstruct(prev, cur.node), Cost: cur.dist}, true
		}

		for _, arc := range g.Arcs(cur.node) {
			nd := cur.dist + arc.Cost
			if best, seen := dist[arc.To]; seen && nd >= best {
				continue
			}
			dist[arc.To] = nd
			prev[arc.To] = cur.node
			pq.push(arc.To, nd)
		}
	}

	return Path{}, false
}

func reconstruct(prev map[NodeKey]NodeKey, goal NodeKey) []NodeKey {
	var rev []NodeKey
	for k, ok := goal, true; ok; k, ok = prev[k] {
		rev = append(rev, k)
	}
	nodes := make([]NodeKey, len(rev))
	for i, k := range rev {
		nodes[len(rev)-1-i] = k
	}
	return nodes
}

type frontierItem struct {
	node NodeKey
	dist float64
	seq  int
}

// frontier is a binary min-heap ordered by distance, then insertion order.
type frontier struct {
	items []frontierItem
	next  int
}

func (f *frontier) push(k NodeKey, d float64) {
	heap.Push(f, frontierItem{node: k, dist: d, seq: f.next})
	f.next++
}

func (f frontier) Len() int { return len(f.items) }

func (f frontier) Less(i, j int) bool {
	if f.items[i].dist != f.items[j].dist {
		return f.items[i].dist < f.items[j].dist
	}
	return f.items[i].seq < f.items[j].seq
}

func (f frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x interface{}) {
	f.items = append(f.items, x.(frontierItem))
}

func (f *frontier) Pop() interface{} {
	old := f.items
	n := len(old)
	item := old[n-1]
	f.items = old[:n-1]
	return item
}
