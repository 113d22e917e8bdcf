package world

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/cull"
	"voxelstream/internal/physics"
	"voxelstream/internal/profiling"
)

// MeshPriority selects which mesh queue is drained first when both reload
// and first-mesh work are due in the same cycle.
type MeshPriority int

const (
	// PriorityReloadFirst services mesh rebuilds (edits) before first
	// meshes. Edits are small in volume and latency sensitive.
	PriorityReloadFirst MeshPriority = iota
	// PriorityLoadFirst services first meshes before rebuilds.
	PriorityLoadFirst
)

// ChunkManager owns every loaded chunk and the multi-stage queues that
// stream them in around the observer. All of its state is mutated only from
// the frame driver's goroutine; the generation and meshing batches it fans
// out are pure producers whose results are folded back in sequentially, so
// the collections need no locking.
type ChunkManager struct {
	chunks map[ChunkCoord]*Chunk

	// dataLoadQueue holds not-yet-generated coordinates, nearest first.
	dataLoadQueue []ChunkCoord
	dataQueued    map[ChunkCoord]struct{}

	// meshLoadQueue holds coordinates awaiting a first mesh build.
	meshLoadQueue []ChunkCoord
	meshQueued    map[ChunkCoord]struct{}

	// meshReloadQueue holds coordinates whose mesh was invalidated by an
	// edit or an arrived neighbor.
	meshReloadQueue map[ChunkCoord]struct{}

	// neighborLoadedQueue holds coordinates whose mesh was previously
	// deferred only because a neighbor was missing and that neighbor has
	// since loaded.
	neighborLoadedQueue map[ChunkCoord]struct{}

	// missingNeighbors records coordinates whose last mesh pass withheld
	// faces because a bordering chunk had not loaded yet.
	missingNeighbors map[ChunkCoord]struct{}

	gen    TerrainGenerator
	radius int

	// Priority picks the mesh queue drain order; both settings drain plain
	// loads before neighbor-unblock retries.
	Priority MeshPriority
	// Workers bounds batch parallelism; 0 means one worker per CPU.
	Workers int
}

// NewChunkManager creates a manager streaming chunks within a Chebyshev
// radius (in chunk units) of the observer.
func NewChunkManager(gen TerrainGenerator, radius int) *ChunkManager {
	return &ChunkManager{
		chunks:              make(map[ChunkCoord]*Chunk),
		dataQueued:          make(map[ChunkCoord]struct{}),
		meshQueued:          make(map[ChunkCoord]struct{}),
		meshReloadQueue:     make(map[ChunkCoord]struct{}),
		neighborLoadedQueue: make(map[ChunkCoord]struct{}),
		missingNeighbors:    make(map[ChunkCoord]struct{}),
		gen:                 gen,
		radius:              radius,
	}
}

// GetChunk returns the loaded chunk at a grid coordinate, or nil.
func (m *ChunkManager) GetChunk(pos ChunkCoord) *Chunk {
	return m.chunks[pos]
}

// GetBlock returns the block at a world voxel coordinate. ok is false while
// the owning chunk has not been loaded; streaming latency makes that a
// normal outcome, not a failure.
func (m *ChunkManager) GetBlock(x, y, z int) (BlockType, bool) {
	chunk, ok := m.chunks[WorldToChunkPos(x, y, z)]
	if !ok {
		return BlockTypeAir, false
	}
	lx, ly, lz := WorldToLocalPos(x, y, z)
	return chunk.GetBlock(lx, ly, lz), true
}

// BlockSolid reports whether the voxel at a world coordinate is loaded and
// non-air. It satisfies physics.BlockSource for the ray cast.
func (m *ChunkManager) BlockSolid(x, y, z int) bool {
	b, ok := m.GetBlock(x, y, z)
	return ok && b != BlockTypeAir
}

// SetBlock writes a block at a world voxel coordinate and reports whether a
// voxel actually changed. A change queues the owning chunk and every loaded
// face neighbor for mesh reload: a boundary face may have been hidden or
// revealed, and invalidating all six is deliberately conservative so no
// re-cull is missed. Writes to unloaded chunks are silent no-ops.
func (m *ChunkManager) SetBlock(x, y, z int, block BlockType) bool {
	chunkPos := WorldToChunkPos(x, y, z)
	chunk, ok := m.chunks[chunkPos]
	if !ok {
		return false
	}

	lx, ly, lz := WorldToLocalPos(x, y, z)
	if !chunk.SetBlock(lx, ly, lz, block) {
		return false
	}

	m.meshReloadQueue[chunkPos] = struct{}{}
	for _, off := range faceOffsets {
		neighborPos := chunkPos.Add(off[0], off[1], off[2])
		if _, loaded := m.chunks[neighborPos]; loaded {
			m.meshReloadQueue[neighborPos] = struct{}{}
		}
	}
	return true
}

// RayCast steps from origin along the view direction given by yaw and pitch
// until it enters a solid voxel or travels maxDistance. Yaw is measured on
// the XZ plane from +X, pitch positive up.
func (m *ChunkManager) RayCast(origin mgl32.Vec3, yaw, pitch, maxDistance float32) physics.RaycastResult {
	yawSin, yawCos := math.Sincos(float64(yaw))
	pitchSin, pitchCos := math.Sincos(float64(pitch))
	direction := mgl32.Vec3{
		float32(yawCos * pitchCos),
		float32(pitchSin),
		float32(yawSin * pitchCos),
	}
	return physics.Raycast(origin, direction, maxDistance, m)
}

// UpdateAround recomputes the streaming window around the observer's chunk
// coordinate: every collection and the store are pruned to the new window,
// and any in-window coordinate that is neither loaded nor queued is pushed
// onto the data queue, sorted nearest first so close terrain appears before
// far terrain.
func (m *ChunkManager) UpdateAround(center ChunkCoord) {
	defer profiling.Track("world.UpdateAround")()

	m.dataLoadQueue = m.retainInWindow(m.dataLoadQueue, center, m.dataQueued)
	m.meshLoadQueue = m.retainInWindow(m.meshLoadQueue, center, m.meshQueued)

	for pos := range m.chunks {
		if !pos.InWindow(center, m.radius) {
			delete(m.chunks, pos)
		}
	}
	for _, set := range []map[ChunkCoord]struct{}{m.meshReloadQueue, m.neighborLoadedQueue, m.missingNeighbors} {
		for pos := range set {
			if !pos.InWindow(center, m.radius) {
				delete(set, pos)
			}
		}
	}

	for x := -m.radius; x <= m.radius; x++ {
		for y := -m.radius; y <= m.radius; y++ {
			for z := -m.radius; z <= m.radius; z++ {
				pos := center.Add(x, y, z)
				if _, loaded := m.chunks[pos]; loaded {
					continue
				}
				if _, queued := m.dataQueued[pos]; queued {
					continue
				}
				m.dataLoadQueue = append(m.dataLoadQueue, pos)
				m.dataQueued[pos] = struct{}{}
			}
		}
	}

	sort.Slice(m.dataLoadQueue, func(i, j int) bool {
		return m.dataLoadQueue[i].DistSq(center) < m.dataLoadQueue[j].DistSq(center)
	})
}

// retainInWindow filters a queue in place, preserving order, and keeps the
// companion membership set in sync.
func (m *ChunkManager) retainInWindow(queue []ChunkCoord, center ChunkCoord, queued map[ChunkCoord]struct{}) []ChunkCoord {
	kept := queue[:0]
	for _, pos := range queue {
		if pos.InWindow(center, m.radius) {
			kept = append(kept, pos)
		} else {
			delete(queued, pos)
		}
	}
	return kept
}

// BuildChunkDataInQueue generates up to amount queued chunks in parallel
// and folds them into the store. For each arrival, loaded neighbors whose
// last mesh pass was blocked on a missing neighbor are moved to the
// unblocked queue, and the new chunk itself is queued for meshing when it
// has any geometry.
func (m *ChunkManager) BuildChunkDataInQueue(amount int) {
	defer profiling.Track("world.BuildChunkDataInQueue")()

	batch := m.popDataBatch(amount)
	if len(batch) == 0 {
		return
	}

	// Generation is a pure function of the coordinate, so the batch fans
	// out with no shared state.
	results := make([]*Chunk, len(batch))
	runBatch(len(batch), m.Workers, func(i int) {
		results[i] = m.gen.Generate(batch[i])
	})

	for _, chunk := range results {
		pos := chunk.Position
		m.chunks[pos] = chunk

		for _, off := range faceOffsets {
			neighborPos := pos.Add(off[0], off[1], off[2])
			if _, loaded := m.chunks[neighborPos]; !loaded {
				continue
			}
			if _, blocked := m.missingNeighbors[neighborPos]; !blocked {
				continue
			}
			if !m.meshPending(neighborPos) {
				m.neighborLoadedQueue[neighborPos] = struct{}{}
			}
		}

		if !chunk.IsEmpty() && !m.meshPending(pos) {
			m.meshLoadQueue = append(m.meshLoadQueue, pos)
			m.meshQueued[pos] = struct{}{}
		}
	}
}

func (m *ChunkManager) popDataBatch(amount int) []ChunkCoord {
	var batch []ChunkCoord
	for len(batch) < amount && len(m.dataLoadQueue) > 0 {
		pos := m.dataLoadQueue[0]
		m.dataLoadQueue = m.dataLoadQueue[1:]
		delete(m.dataQueued, pos)
		if _, loaded := m.chunks[pos]; loaded {
			continue
		}
		batch = append(batch, pos)
	}
	return batch
}

// meshPending reports whether a coordinate already sits in any of the
// mesh-pending collections.
func (m *ChunkManager) meshPending(pos ChunkCoord) bool {
	if _, ok := m.meshQueued[pos]; ok {
		return true
	}
	if _, ok := m.meshReloadQueue[pos]; ok {
		return true
	}
	if _, ok := m.neighborLoadedQueue[pos]; ok {
		return true
	}
	return false
}

type meshResult struct {
	pos     ChunkCoord
	data    *MeshData
	missing bool
	gone    bool
}

// BuildChunkMeshInQueue drains up to amount mesh tasks, builds their
// geometry in parallel against the currently loaded neighbors, uploads the
// results and attaches them to their chunks. Coordinates still reporting a
// missing neighbor are kept in the retry set; coordinates whose chunk was
// evicted mid-flight go back on the data queue rather than being dropped.
func (m *ChunkManager) BuildChunkMeshInQueue(amount int, uploader Uploader) {
	defer profiling.Track("world.BuildChunkMeshInQueue")()

	tasks := m.popMeshBatch(amount)
	if len(tasks) == 0 {
		return
	}

	// Workers only read the store: chunk and neighbor references are
	// immutable borrows for the duration of the batch.
	results := make([]meshResult, len(tasks))
	runBatch(len(tasks), m.Workers, func(i int) {
		pos := tasks[i]
		chunk, ok := m.chunks[pos]
		if !ok {
			results[i] = meshResult{pos: pos, gone: true}
			return
		}
		var neighbors [6]*Chunk
		for face, off := range faceOffsets {
			neighbors[face] = m.chunks[pos.Add(off[0], off[1], off[2])]
		}
		data, missing := BuildMesh(chunk, neighbors)
		results[i] = meshResult{pos: pos, data: data, missing: missing}
	})

	for _, res := range results {
		if res.gone {
			// Evicted while queued; never silently drop requested work.
			if _, queued := m.dataQueued[res.pos]; !queued {
				m.dataLoadQueue = append(m.dataLoadQueue, res.pos)
				m.dataQueued[res.pos] = struct{}{}
			}
			continue
		}

		if res.missing {
			m.missingNeighbors[res.pos] = struct{}{}
		} else {
			delete(m.missingNeighbors, res.pos)
		}

		chunk := m.chunks[res.pos]
		if res.data != nil {
			chunk.Mesh = uploader.Upload(res.data.Vertices, res.data.Indices)
		} else if chunk.IsEmpty() {
			chunk.Mesh = nil
		}
	}
}

// popMeshBatch collects up to amount coordinates honoring the configured
// priority. Neighbor-unblock retries always come last; they only add faces
// the player has not seen yet.
func (m *ChunkManager) popMeshBatch(amount int) []ChunkCoord {
	var tasks []ChunkCoord

	popReloads := func() {
		for pos := range m.meshReloadQueue {
			if len(tasks) >= amount {
				return
			}
			delete(m.meshReloadQueue, pos)
			tasks = append(tasks, pos)
		}
	}
	popLoads := func() {
		for len(tasks) < amount && len(m.meshLoadQueue) > 0 {
			pos := m.meshLoadQueue[0]
			m.meshLoadQueue = m.meshLoadQueue[1:]
			delete(m.meshQueued, pos)
			tasks = append(tasks, pos)
		}
	}

	if m.Priority == PriorityLoadFirst {
		popLoads()
		popReloads()
	} else {
		popReloads()
		popLoads()
	}

	for pos := range m.neighborLoadedQueue {
		if len(tasks) >= amount {
			break
		}
		delete(m.neighborLoadedQueue, pos)
		tasks = append(tasks, pos)
	}

	return tasks
}

// ChunkDraw is one frustum-accepted chunk ready for an indexed draw call:
// the world-space origin feeds the per-draw positioning constant.
type ChunkDraw struct {
	Origin [3]int32
	Mesh   MeshHandle
}

// VisibleChunks returns the draw list for one frame: every loaded chunk
// with geometry whose bounding box intersects the frustum.
func (m *ChunkManager) VisibleChunks(frustum *cull.Frustum) []ChunkDraw {
	defer profiling.Track("world.VisibleChunks")()

	draws := make([]ChunkDraw, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		if chunk.Mesh == nil {
			continue
		}
		if !frustum.ContainsAABB(chunk.Bounds()) {
			continue
		}
		draws = append(draws, ChunkDraw{
			Origin: [3]int32{
				int32(chunk.WorldPosition[0]),
				int32(chunk.WorldPosition[1]),
				int32(chunk.WorldPosition[2]),
			},
			Mesh: chunk.Mesh,
		})
	}
	return draws
}

// Stats is a point-in-time snapshot of the pipeline, for diagnostics.
type Stats struct {
	Loaded           int
	DataQueued       int
	MeshPending      int
	MissingNeighbors int
}

// StatsSnapshot reports current store and queue sizes.
func (m *ChunkManager) StatsSnapshot() Stats {
	return Stats{
		Loaded:           len(m.chunks),
		DataQueued:       len(m.dataLoadQueue),
		MeshPending:      len(m.meshLoadQueue) + len(m.meshReloadQueue) + len(m.neighborLoadedQueue),
		MissingNeighbors: len(m.missingNeighbors),
	}
}
