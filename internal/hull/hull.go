// Package hull computes convex hulls of 3-D point clouds.
//
// The hull is built incrementally. Adjacent triangles lying in one plane are
// merged into a polygonal facet and re-triangulated as a fan from the
// facet's lowest point index, so Simplices is deterministic for a given
// input order.
package hull

import (
	"errors"
	"math"
	"sort"
)

// ErrDegenerate is returned for fewer than four points or for point sets
// that are collinear or coplanar within tolerance.
var ErrDegenerate = errors.New("degenerate point set")

// Point is a position in 3-D space.
type Point [3]float64

// Hull is the convex hull of a point set.
type Hull struct {
	points    []Point
	simplices [][3]int
	vertices  []int
	volume    float64
}

type face struct {
	v      [3]int
	normal Point
	offset float64
	alive  bool
}

type edge struct{ a, b int }

// New computes the convex hull of points.
func New(points []Point) (*Hull, error) {
	if len(points) < 4 {
		return nil, ErrDegenerate
	}
	eps := tolerance(points)

	seed, err := initialSimplex(points, eps)
	if err != nil {
		return nil, err
	}
	var interior Point
	for _, i := range seed {
		interior = add(interior, points[i])
	}
	interior = scale(interior, 0.25)

	faces := make([]*face, 0, 16)
	newFace := func(a, b, c int) {
		f := makeFace(points, a, b, c)
		if f.distance(interior) > 0 {
			f = makeFace(points, a, c, b)
		}
		faces = append(faces, f)
	}
	s := seed
	newFace(s[0], s[1], s[2])
	newFace(s[0], s[1], s[3])
	newFace(s[0], s[2], s[3])
	newFace(s[1], s[2], s[3])

	used := map[int]bool{s[0]: true, s[1]: true, s[2]: true, s[3]: true}
	for p := range points {
		if used[p] {
			continue
		}
		var visible []*face
		for _, f := range faces {
			if f.alive && f.distance(points[p]) > eps {
				visible = append(visible, f)
			}
		}
		if len(visible) == 0 {
			continue
		}
		directed := make(map[edge]bool, 3*len(visible))
		for _, f := range visible {
			f.alive = false
			for k := 0; k < 3; k++ {
				directed[edge{f.v[k], f.v[(k+1)%3]}] = true
			}
		}
		for _, f := range visible {
			for k := 0; k < 3; k++ {
				e := edge{f.v[k], f.v[(k+1)%3]}
				if directed[edge{e.b, e.a}] {
					continue
				}
				newFace(e.a, e.b, p)
			}
		}
		faces = compact(faces)
	}

	h := &Hull{points: points}
	h.simplices = mergeCoplanar(points, faces, eps)
	h.vertices = vertexSet(h.simplices)
	for _, t := range h.simplices {
		a := sub(points[t[0]], interior)
		b := sub(points[t[1]], interior)
		c := sub(points[t[2]], interior)
		h.volume += math.Abs(dot(a, cross(b, c))) / 6
	}
	return h, nil
}

// Volume returns the enclosed volume.
func (h *Hull) Volume() float64 { return h.volume }

// Simplices returns the boundary triangles as indices into the input points.
func (h *Hull) Simplices() [][3]int {
	return append([][3]int(nil), h.simplices...)
}

// Vertices returns the sorted indices of the points on the hull boundary.
func (h *Hull) Vertices() []int {
	return append([]int(nil), h.vertices...)
}

// SimplexCentroid returns the mean of the coordinates referenced by the
// simplices, counting a point once per simplex it belongs to.
func (h *Hull) SimplexCentroid() Point {
	var c Point
	for _, t := range h.simplices {
		for _, i := range t {
			c = add(c, h.points[i])
		}
	}
	return scale(c, 1/float64(3*len(h.simplices)))
}

func tolerance(points []Point) float64 {
	maxAbs := 0.0
	for _, p := range points {
		for _, v := range p {
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}
	return 1e-10 * maxAbs
}

// initialSimplex picks four extreme, non-coplanar points.
func initialSimplex(points []Point, eps float64) ([4]int, error) {
	var s [4]int
	for i, p := range points {
		if p[0] < points[s[0]][0] {
			s[0] = i
		}
	}
	best := -1.0
	for i, p := range points {
		if d := norm(sub(p, points[s[0]])); d > best {
			best, s[1] = d, i
		}
	}
	if best <= eps {
		return s, ErrDegenerate
	}
	dir := sub(points[s[1]], points[s[0]])
	best = -1
	for i, p := range points {
		if d := norm(cross(dir, sub(p, points[s[0]]))) / norm(dir); d > best {
			best, s[2] = d, i
		}
	}
	if best <= eps {
		return s, ErrDegenerate
	}
	n := unit(cross(dir, sub(points[s[2]], points[s[0]])))
	best = -1
	for i, p := range points {
		if d := math.Abs(dot(n, sub(p, points[s[0]]))); d > best {
			best, s[3] = d, i
		}
	}
	if best <= eps {
		return s, ErrDegenerate
	}
	return s, nil
}

func makeFace(points []Point, a, b, c int) *face {
	n := unit(cross(sub(points[b], points[a]), sub(points[c], points[a])))
	return &face{v: [3]int{a, b, c}, normal: n, offset: dot(n, points[a]), alive: true}
}

// distance is the signed distance of p above the face plane.
func (f *face) distance(p Point) float64 {
	return dot(f.normal, p) - f.offset
}

func compact(faces []*face) []*face {
	out := faces[:0]
	for _, f := range faces {
		if f.alive {
			out = append(out, f)
		}
	}
	return out
}

func vertexSet(simplices [][3]int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, t := range simplices {
		for _, i := range t {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

func add(a, b Point) Point { return Point{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func sub(a, b Point) Point { return Point{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func scale(a Point, s float64) Point { return Point{a[0] * s, a[1] * s, a[2] * s} }

func dot(a, b Point) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b Point) Point {
	return Point{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(a Point) float64 { return math.Sqrt(dot(a, a)) }

func unit(a Point) Point {
	n := norm(a)
	if n == 0 {
		return a
	}
	return scale(a, 1/n)
}
