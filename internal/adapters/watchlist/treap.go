package watchlist

import "hash/fnv"

// The treap orders students by probability DESC, then student id ASC, so an
// in-order walk yields the watchlist from most to least at risk. Node
// priorities are derived from the student id, which keeps the shape of the
// tree independent of insertion order.

type node struct {
	id          string
	probability float64
	prio        uint64
	left, right *node
}

func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// before reports whether (pa, a) ranks ahead of (pb, b).
func before(pa float64, a string, pb float64, b string) bool {
	if pa != pb {
		return pa > pb
	}
	return a < b
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

func insert(n *node, id string, p float64) *node {
	if n == nil {
		return &node{id: id, probability: p, prio: priority(id)}
	}
	if before(p, id, n.probability, n.id) {
		n.left = insert(n.left, id, p)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, p)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	return n
}

func remove(n *node, id string, p float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id && n.probability == p:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, p)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, p)
		}
	case before(p, id, n.probability, n.id):
		n.left = remove(n.left, id, p)
	default:
		n.right = remove(n.right, id, p)
	}
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, visit) && visit(n) && walk(n.right, visit)
}
