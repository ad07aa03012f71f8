package bfs

// Locality distance bands, per spec.md §2/§4.4.
const (
	LocalitySame        = 0
	LocalitySMTSibling  = 1
	LocalitySameLLC      = 2
	LocalitySameNode     = 3
	LocalityOtherNode    = 4
)

// LocalityMatrix is a read-mostly NxN table of integer distances in
// {0,1,2,3,4} between CPUs, consumed (not computed) by this package — the
// topology discovery that populates it is an external collaborator per
// spec.md §1.
type LocalityMatrix struct {
	n     int
	dist  []int // n*n, row-major
}

// NewLocalityMatrix builds an n x n matrix initialized to "same" on the
// diagonal and "other node" everywhere else; callers then fill in the real
// topology via Set.
func NewLocalityMatrix(n int) *LocalityMatrix {
	m := &LocalityMatrix{n: n, dist: make([]int, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				m.dist[i*n+j] = LocalitySame
			} else {
				m.dist[i*n+j] = LocalityOtherNode
			}
		}
	}
	return m
}

// Set records the distance between CPUs a and b (symmetric).
func (m *LocalityMatrix) Set(a, b, distance int) {
	m.dist[a*m.n+b] = distance
	m.dist[b*m.n+a] = distance
}

// Distance returns the distance between CPUs a and b.
func (m *LocalityMatrix) Distance(a, b int) int {
	return m.dist[a*m.n+b]
}

// CacheDistance implements spec.md §4.4's cache_distance: the virtual-time
// penalty added to a non-RT task's deadline when evaluated for a CPU other
// than the one it last ran on. taskTimeSliceUS must be the task's nominal
// quantum (see [taskTimeslice]), a constant function of nice level and
// rr_interval — NOT the task's live, decaying [Task.TimeSliceUS], which
// would shrink the penalty toward zero right as the task is about to be
// rescheduled anyway and invert the intended locality hysteresis.
func (m *LocalityMatrix) CacheDistance(srcCPU, dstCPU int, taskTimeSliceUS int64) int64 {
	locality := m.Distance(srcCPU, dstCPU) - 2
	if locality > 0 {
		return taskTimeSliceUS << uint(locality)
	}
	return 0
}
