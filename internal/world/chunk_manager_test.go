package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/cull"
)

// testMesh and testUploader stand in for GPU buffers in scheduler tests.
type testMesh struct {
	vertices, indices int
}

func (m *testMesh) VertexCount() int { return m.vertices }
func (m *testMesh) IndexCount() int  { return m.indices }

type testUploader struct {
	uploads int
}

func (u *testUploader) Upload(vertices []Vertex, indices []uint32) MeshHandle {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil
	}
	u.uploads++
	return &testMesh{vertices: len(vertices), indices: len(indices)}
}

// drain runs build cycles until every queue is empty.
func drain(t *testing.T, m *ChunkManager, up Uploader) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		m.BuildChunkDataInQueue(64)
		m.BuildChunkMeshInQueue(64, up)
		s := m.StatsSnapshot()
		if s.DataQueued == 0 && s.MeshPending == 0 {
			return
		}
	}
	t.Fatalf("queues did not drain: %+v", m.StatsSnapshot())
}

// solidChunk builds a chunk with a single stone voxel at a local position.
func solidChunk(pos ChunkCoord, x, y, z int) *Chunk {
	c := NewChunk(pos)
	c.SetBlock(x, y, z, BlockTypeStone)
	return c
}

func TestStreamingWindowConvergence(t *testing.T) {
	gen := NewGenerator(1, 0, 0)
	m := NewChunkManager(gen, 1)
	up := &testUploader{}

	center := ChunkCoord{0, 0, 0}
	m.UpdateAround(center)
	drain(t, m, up)

	if len(m.chunks) != 27 {
		t.Fatalf("expected 27 loaded chunks in a radius-1 window, got %d", len(m.chunks))
	}
	for pos := range m.chunks {
		if !pos.InWindow(center, 1) {
			t.Errorf("chunk %v outside the streaming window", pos)
		}
	}

	// Move the observer; the store must converge to exactly the new window.
	center = ChunkCoord{3, 0, 0}
	m.UpdateAround(center)
	drain(t, m, up)

	if len(m.chunks) != 27 {
		t.Fatalf("expected 27 loaded chunks after moving, got %d", len(m.chunks))
	}
	for pos := range m.chunks {
		if !pos.InWindow(center, 1) {
			t.Errorf("chunk %v outside the moved window", pos)
		}
	}
	for _, set := range []map[ChunkCoord]struct{}{m.meshReloadQueue, m.neighborLoadedQueue, m.missingNeighbors} {
		for pos := range set {
			if !pos.InWindow(center, 1) {
				t.Errorf("pending coordinate %v outside the moved window", pos)
			}
		}
	}
}

func TestDataQueueNearestFirst(t *testing.T) {
	gen := NewGenerator(1, 0, 0)
	m := NewChunkManager(gen, 2)

	center := ChunkCoord{0, 0, 0}
	m.UpdateAround(center)

	last := -1
	for _, pos := range m.dataLoadQueue {
		d := pos.DistSq(center)
		if d < last {
			t.Fatalf("data queue not sorted nearest-first: %v (dist %d) after dist %d", pos, d, last)
		}
		last = d
	}
	if m.dataLoadQueue[0] != center {
		t.Errorf("closest coordinate should be the center, got %v", m.dataLoadQueue[0])
	}
}

func TestQueuePriorityReloadFirst(t *testing.T) {
	m := NewChunkManager(nil, 4)
	up := &testUploader{}

	reload := solidChunk(ChunkCoord{0, 0, 0}, 10, 10, 10)
	load := solidChunk(ChunkCoord{2, 0, 0}, 10, 10, 10)
	m.chunks[reload.Position] = reload
	m.chunks[load.Position] = load

	m.meshReloadQueue[reload.Position] = struct{}{}
	m.meshLoadQueue = append(m.meshLoadQueue, load.Position)
	m.meshQueued[load.Position] = struct{}{}

	m.BuildChunkMeshInQueue(1, up)

	if reload.Mesh == nil {
		t.Errorf("reload task was not serviced first")
	}
	if load.Mesh != nil {
		t.Errorf("plain load task serviced before the reload with batch size 1")
	}
}

func TestQueuePriorityLoadFirstPolicy(t *testing.T) {
	m := NewChunkManager(nil, 4)
	m.Priority = PriorityLoadFirst
	up := &testUploader{}

	reload := solidChunk(ChunkCoord{0, 0, 0}, 10, 10, 10)
	load := solidChunk(ChunkCoord{2, 0, 0}, 10, 10, 10)
	m.chunks[reload.Position] = reload
	m.chunks[load.Position] = load

	m.meshReloadQueue[reload.Position] = struct{}{}
	m.meshLoadQueue = append(m.meshLoadQueue, load.Position)
	m.meshQueued[load.Position] = struct{}{}

	m.BuildChunkMeshInQueue(1, up)

	if load.Mesh == nil {
		t.Errorf("load task was not serviced first under load-first policy")
	}
	if reload.Mesh != nil {
		t.Errorf("reload task serviced before the load under load-first policy")
	}
}

func TestMissingNeighborSelfHeal(t *testing.T) {
	m := NewChunkManager(nil, 4)
	up := &testUploader{}

	// A voxel on the -X boundary: its left face needs the (-1,0,0) chunk.
	c := solidChunk(ChunkCoord{0, 0, 0}, 0, 10, 10)
	m.chunks[c.Position] = c
	m.meshLoadQueue = append(m.meshLoadQueue, c.Position)
	m.meshQueued[c.Position] = struct{}{}

	m.BuildChunkMeshInQueue(1, up)

	if _, ok := m.missingNeighbors[c.Position]; !ok {
		t.Fatalf("chunk with absent neighbor not recorded in missing set")
	}
	deferred := c.Mesh.VertexCount()

	// All six neighbors arrive empty; the chunk is queued as unblocked.
	for _, off := range faceOffsets {
		pos := c.Position.Add(off[0], off[1], off[2])
		m.chunks[pos] = NewChunk(pos)
	}
	m.neighborLoadedQueue[c.Position] = struct{}{}

	m.BuildChunkMeshInQueue(1, up)

	if _, ok := m.missingNeighbors[c.Position]; ok {
		t.Errorf("missing set still contains the chunk after all neighbors loaded")
	}
	if c.Mesh.VertexCount() <= deferred {
		t.Errorf("boundary faces did not converge: %d vertices before, %d after", deferred, c.Mesh.VertexCount())
	}
	if c.Mesh.VertexCount() != 24 {
		t.Errorf("expected the full 6-face mesh, got %d vertices", c.Mesh.VertexCount())
	}
}

func TestNeighborArrivalUnblocksChunk(t *testing.T) {
	gen := NewGenerator(1, 0, 0)
	m := NewChunkManager(gen, 4)
	up := &testUploader{}

	blocked := solidChunk(ChunkCoord{0, 0, 0}, 31, 10, 10)
	m.chunks[blocked.Position] = blocked
	m.meshLoadQueue = append(m.meshLoadQueue, blocked.Position)
	m.meshQueued[blocked.Position] = struct{}{}
	m.BuildChunkMeshInQueue(1, up)

	// Generating the +X neighbor must move the blocked chunk into the
	// unblocked queue.
	m.dataLoadQueue = append(m.dataLoadQueue, ChunkCoord{1, 0, 0})
	m.dataQueued[ChunkCoord{1, 0, 0}] = struct{}{}
	m.BuildChunkDataInQueue(1)

	if _, ok := m.neighborLoadedQueue[blocked.Position]; !ok {
		t.Errorf("blocked chunk was not queued for re-mesh after its neighbor arrived")
	}
}

func TestEditInvalidation(t *testing.T) {
	m := NewChunkManager(nil, 4)

	owner := NewChunk(ChunkCoord{0, 0, 0})
	right := NewChunk(ChunkCoord{1, 0, 0})
	m.chunks[owner.Position] = owner
	m.chunks[right.Position] = right

	// Edit at the +X boundary of the owner.
	if !m.SetBlock(31, 5, 5, BlockTypeStone) {
		t.Fatalf("edit reported no change")
	}

	if len(m.meshReloadQueue) != 2 {
		t.Fatalf("expected exactly owner and boundary neighbor queued, got %d entries", len(m.meshReloadQueue))
	}
	for _, pos := range []ChunkCoord{owner.Position, right.Position} {
		if _, ok := m.meshReloadQueue[pos]; !ok {
			t.Errorf("chunk %v missing from the reload queue", pos)
		}
	}

	// Writing the same value again must not queue anything.
	m.meshReloadQueue = make(map[ChunkCoord]struct{})
	if m.SetBlock(31, 5, 5, BlockTypeStone) {
		t.Errorf("identical write reported a change")
	}
	if len(m.meshReloadQueue) != 0 {
		t.Errorf("identical write queued mesh reloads")
	}
}

func TestGetSetBlockUnloaded(t *testing.T) {
	m := NewChunkManager(nil, 4)

	if _, ok := m.GetBlock(5, 5, 5); ok {
		t.Errorf("read from unloaded chunk reported ok")
	}
	if m.SetBlock(5, 5, 5, BlockTypeStone) {
		t.Errorf("write to unloaded chunk reported a change")
	}
}

func TestOrphanedMeshResultRequeued(t *testing.T) {
	m := NewChunkManager(nil, 4)
	up := &testUploader{}

	// Queue a mesh for a coordinate whose chunk was evicted mid-flight.
	orphan := ChunkCoord{2, 2, 2}
	m.meshLoadQueue = append(m.meshLoadQueue, orphan)
	m.meshQueued[orphan] = struct{}{}

	m.BuildChunkMeshInQueue(1, up)

	if _, ok := m.dataQueued[orphan]; !ok {
		t.Errorf("orphaned coordinate was dropped instead of re-queued for data load")
	}
}

func TestEmptyChunkSkipsMeshQueue(t *testing.T) {
	gen := NewGenerator(1, 0, 0)
	m := NewChunkManager(gen, 4)

	// Chunks high above the terrain generate empty.
	pos := ChunkCoord{0, 10, 0}
	m.dataLoadQueue = append(m.dataLoadQueue, pos)
	m.dataQueued[pos] = struct{}{}
	m.BuildChunkDataInQueue(1)

	chunk := m.chunks[pos]
	if chunk == nil {
		t.Fatalf("chunk was not generated")
	}
	if !chunk.IsEmpty() {
		t.Fatalf("chunk at y=10 chunks should be empty")
	}
	if m.meshPending(pos) {
		t.Errorf("empty chunk was queued for meshing")
	}
}

func TestRayCastScenario(t *testing.T) {
	m := NewChunkManager(nil, 4)

	c := NewChunk(ChunkCoord{0, 0, 0})
	c.SetBlock(5, 5, 5, BlockTypeStone)
	m.chunks[c.Position] = c

	res := m.RayCast(mgl32.Vec3{0, 5, 5}, 0, 0, 10)
	if !res.Hit {
		t.Fatalf("expected a hit")
	}
	if res.HitPosition != [3]int{5, 5, 5} {
		t.Errorf("hit position %v, want {5 5 5}", res.HitPosition)
	}
	if res.Normal != [3]int{-1, 0, 0} {
		t.Errorf("entry normal %v, want {-1 0 0}", res.Normal)
	}
	if res.AdjacentPosition != [3]int{4, 5, 5} {
		t.Errorf("adjacent position %v, want {4 5 5}", res.AdjacentPosition)
	}

	// The same cast capped short of the block reports a miss.
	if short := m.RayCast(mgl32.Vec3{0, 5, 5}, 0, 0, 4); short.Hit {
		t.Errorf("cast with maxDistance 4 should miss, hit %v", short.HitPosition)
	}
}

func TestVisibleChunksCulled(t *testing.T) {
	m := NewChunkManager(nil, 4)
	up := &testUploader{}

	ahead := solidChunk(ChunkCoord{2, 0, 0}, 10, 10, 10)
	behind := solidChunk(ChunkCoord{-3, 0, 0}, 10, 10, 10)
	for _, c := range []*Chunk{ahead, behind} {
		m.chunks[c.Position] = c
		m.meshReloadQueue[c.Position] = struct{}{}
	}
	m.BuildChunkMeshInQueue(2, up)

	// Observer at the origin looking down +X.
	view := mgl32.LookAtV(mgl32.Vec3{0, 42, 16}, mgl32.Vec3{1, 42, 16}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 1000)
	frustum := cull.FromMatrix(proj.Mul4(view))

	draws := m.VisibleChunks(&frustum)
	if len(draws) != 1 {
		t.Fatalf("expected 1 visible chunk, got %d", len(draws))
	}
	if draws[0].Origin != [3]int32{64, 0, 0} {
		t.Errorf("draw origin %v, want the chunk ahead at {64 0 0}", draws[0].Origin)
	}
	if draws[0].Mesh.IndexCount() != 36 {
		t.Errorf("draw index count %d, want 36", draws[0].Mesh.IndexCount())
	}
}
