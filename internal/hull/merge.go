package hull

import (
	"math"
	"sort"
)

// mergeCoplanar joins adjacent coplanar triangles into polygons and fans
// each polygon from its lowest point index. Triangles outside any merged
// group are returned unchanged.
func mergeCoplanar(points []Point, faces []*face, eps float64) [][3]int {
	parent := make([]int, len(faces))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	shared := make(map[edge][]int, 3*len(faces)/2)
	for i, f := range faces {
		for k := 0; k < 3; k++ {
			a, b := f.v[k], f.v[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			shared[edge{a, b}] = append(shared[edge{a, b}], i)
		}
	}
	for _, fs := range shared {
		if len(fs) != 2 {
			continue
		}
		i, j := fs[0], fs[1]
		if coplanar(points, faces[i], faces[j], eps) {
			parent[find(i)] = find(j)
		}
	}

	groups := make(map[int][]int)
	var roots []int
	for i := range faces {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}

	out := make([][3]int, 0, len(faces))
	for _, r := range roots {
		members := groups[r]
		if len(members) == 1 {
			out = append(out, faces[members[0]].v)
			continue
		}
		out = append(out, fan(points, faces, members, eps)...)
	}
	return out
}

func coplanar(points []Point, f, g *face, eps float64) bool {
	if dot(f.normal, g.normal) <= 0 {
		return false
	}
	for _, i := range g.v {
		if math.Abs(f.distance(points[i])) > eps {
			return false
		}
	}
	for _, i := range f.v {
		if math.Abs(g.distance(points[i])) > eps {
			return false
		}
	}
	return true
}

// fan triangulates the polygon formed by the member faces.
func fan(points []Point, faces []*face, members []int, eps float64) [][3]int {
	normal := faces[members[0]].normal
	seen := make(map[int]bool)
	var idx []int
	for _, m := range members {
		for _, i := range faces[m].v {
			if !seen[i] {
				seen[i] = true
				idx = append(idx, i)
			}
		}
	}

	// Right-handed basis (u, v, normal): counter-clockwise in (u, v) is
	// counter-clockwise seen from outside the hull.
	ref := Point{1, 0, 0}
	if math.Abs(normal[0]) > 0.9 {
		ref = Point{0, 1, 0}
	}
	u := unit(cross(ref, normal))
	v := cross(normal, u)

	type p2 struct {
		x, y float64
		i    int
	}
	pts := make([]p2, len(idx))
	for k, i := range idx {
		pts[k] = p2{dot(points[i], u), dot(points[i], v), i}
	}
	sort.Slice(pts, func(a, b int) bool {
		if pts[a].x != pts[b].x {
			return pts[a].x < pts[b].x
		}
		if pts[a].y != pts[b].y {
			return pts[a].y < pts[b].y
		}
		return pts[a].i < pts[b].i
	})

	turn := func(o, a, b p2) bool {
		c := (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
		return c > eps*math.Hypot(b.x-o.x, b.y-o.y)
	}
	ring := make([]p2, 0, 2*len(pts))
	for _, p := range pts {
		for len(ring) >= 2 && !turn(ring[len(ring)-2], ring[len(ring)-1], p) {
			ring = ring[:len(ring)-1]
		}
		ring = append(ring, p)
	}
	lower := len(ring) + 1
	for k := len(pts) - 2; k >= 0; k-- {
		p := pts[k]
		for len(ring) >= lower && !turn(ring[len(ring)-2], ring[len(ring)-1], p) {
			ring = ring[:len(ring)-1]
		}
		ring = append(ring, p)
	}
	ring = ring[:len(ring)-1]

	start := 0
	for k := range ring {
		if ring[k].i < ring[start].i {
			start = k
		}
	}
	n := len(ring)
	out := make([][3]int, 0, n-2)
	for k := 1; k+1 < n; k++ {
		out = append(out, [3]int{
			ring[start].i,
			ring[(start+k)%n].i,
			ring[(start+k+1)%n].i,
		})
	}
	return out
}
