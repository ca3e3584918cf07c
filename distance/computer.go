package distance

// Vectors gives a Computer read access to stored vectors by slot.
type Vectors interface {
	// Vector returns the vector stored at slot. Implementations may decode
	// into scratch (len(scratch) == dimension) and return it, or return a view
	// of their own storage.
	Vector(slot uint32, scratch []float32) []float32
}

// Computer evaluates distances between a query and stored slots, or between
// two stored slots, under one metric.
//
// A Computer keeps scratch buffers and is not safe for concurrent use; create
// one per goroutine.
type Computer struct {
	metric  Metric
	fn      Func
	vecs    Vectors
	query   []float32
	scratch [4][]float32
	ndis    int
}

// NewComputer returns a Computer for metric m over vecs.
func NewComputer(m Metric, arg float32, dim int, vecs Vectors) (*Computer, error) {
	fn, err := Provider(m, arg)
	if err != nil {
		return nil, err
	}
	c := &Computer{
		metric: m,
		fn:     fn,
		vecs:   vecs,
	}
	for i := range c.scratch {
		c.scratch[i] = make([]float32, dim)
	}
	return c, nil
}

// Metric returns the metric of the computer.
func (c *Computer) Metric() Metric { return c.metric }

// SetQuery sets the query used by Distance and Distances4.
// The slice is retained, not copied.
func (c *Computer) SetQuery(q []float32) {
	c.query = q
}

// Distance returns the distance between the current query and slot.
func (c *Computer) Distance(slot uint32) float32 {
	c.ndis++
	return c.fn(c.query, c.vecs.Vector(slot, c.scratch[0]))
}

// Symmetric returns the distance between slots i and j.
func (c *Computer) Symmetric(i, j uint32) float32 {
	return c.fn(c.vecs.Vector(j, c.scratch[0]), c.vecs.Vector(i, c.scratch[1]))
}

// Distances4 returns the distances between the current query and four slots.
func (c *Computer) Distances4(ids [4]uint32) (out [4]float32) {
	c.ndis += 4
	y0 := c.vecs.Vector(ids[0], c.scratch[0])
	y1 := c.vecs.Vector(ids[1], c.scratch[1])
	y2 := c.vecs.Vector(ids[2], c.scratch[2])
	y3 := c.vecs.Vector(ids[3], c.scratch[3])

	switch c.metric {
	case MetricL2:
		out[0], out[1], out[2], out[3] = SquaredL2Batch4(c.query, y0, y1, y2, y3)
	case MetricInnerProduct:
		out[0], out[1], out[2], out[3] = DotBatch4(c.query, y0, y1, y2, y3)
	default:
		out[0] = c.fn(c.query, y0)
		out[1] = c.fn(c.query, y1)
		out[2] = c.fn(c.query, y2)
		out[3] = c.fn(c.query, y3)
	}
	return out
}

// Count returns the number of query distances computed so far.
func (c *Computer) Count() int { return c.ndis }
