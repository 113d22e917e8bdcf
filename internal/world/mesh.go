package world

// Vertex is one corner of an emitted face. PackedData encodes, from the low
// bit up: local Z (6 bits), local Y (6 bits), local X (6 bits), face
// direction (3 bits), face UV index (remaining bits) —
// 0b000uuuuuuuunnnxxxxxxyyyyyyzzzzzz. VoxelPosition is the owning voxel's
// absolute world coordinate, consumed by shading downstream.
type Vertex struct {
	PackedData    uint32
	VoxelPosition [3]int32
}

// MeshData is CPU-side geometry produced by BuildMesh, ready for upload.
// Four vertices and six indices are emitted per visible face.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// MeshHandle is opaque GPU-resident geometry returned by an Uploader.
type MeshHandle interface {
	VertexCount() int
	IndexCount() int
}

// Uploader turns mesh data into GPU-resident buffers. Upload must return
// nil when either list is empty; the chunk's mesh stays absent rather than
// holding a zero-length handle.
type Uploader interface {
	Upload(vertices []Vertex, indices []uint32) MeshHandle
}

// cubeCorners are the eight corners of a unit cube, indexed by the face
// tables below.
var cubeCorners = [8][3]uint32{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// faceCorners picks four cube corners per face, wound consistently so both
// triangles of the quad face outward.
var faceCorners = [6][4]uint32{
	{0, 1, 2, 3}, // front
	{5, 4, 7, 6}, // back
	{4, 0, 3, 7}, // left
	{1, 5, 6, 2}, // right
	{4, 5, 1, 0}, // bottom
	{3, 2, 6, 7}, // top
}

// BuildMesh extracts the visible faces of a chunk. A face is emitted only
// when the adjacent cell is air; cells beyond the chunk boundary are
// resolved through the matching entry of neighbors (ordered front, back,
// left, right, bottom, top). When a needed neighbor is absent the face is
// withheld and missingNeighbors is reported true so the chunk can be
// re-meshed once the neighbor loads. Empty chunks yield (nil, false).
func BuildMesh(c *Chunk, neighbors [6]*Chunk) (data *MeshData, missingNeighbors bool) {
	if c.IsEmpty() {
		return nil, false
	}

	var vertices []Vertex
	var indices []uint32

	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				block := c.blocks[blockIndex(x, y, z)]
				if block == BlockTypeAir {
					continue
				}

				for face := FaceFront; face <= FaceTop; face++ {
					off := faceOffsets[face]
					nx, ny, nz := x+off[0], y+off[1], z+off[2]

					if nx >= 0 && nx < ChunkSize && ny >= 0 && ny < ChunkSize && nz >= 0 && nz < ChunkSize {
						if c.blocks[blockIndex(nx, ny, nz)] != BlockTypeAir {
							continue
						}
					} else {
						// The cell to test lives in a bordering chunk.
						neighbor := neighbors[face]
						if neighbor == nil {
							// Withhold the face; the chunk is re-meshed when
							// the neighbor arrives.
							missingNeighbors = true
							continue
						}
						wx, wy, wz := mod(nx, ChunkSize), mod(ny, ChunkSize), mod(nz, ChunkSize)
						if neighbor.blocks[blockIndex(wx, wy, wz)] != BlockTypeAir {
							continue
						}
					}

					base := uint32(len(vertices))
					uv := block.FaceUV(face)
					voxel := [3]int32{
						int32(c.WorldPosition[0] + x),
						int32(c.WorldPosition[1] + y),
						int32(c.WorldPosition[2] + z),
					}

					for i := 0; i < 4; i++ {
						corner := cubeCorners[faceCorners[face][i]]
						cx := corner[0] + uint32(x)
						cy := corner[1] + uint32(y)
						cz := corner[2] + uint32(z)

						packed := cx<<12 | cy<<6 | cz
						packed |= uint32(face) << 18
						packed |= uint32(uv) << 21

						vertices = append(vertices, Vertex{
							PackedData:    packed,
							VoxelPosition: voxel,
						})
					}

					indices = append(indices,
						base, base+1, base+2,
						base, base+2, base+3,
					)
				}
			}
		}
	}

	return &MeshData{Vertices: vertices, Indices: indices}, missingNeighbors
}
