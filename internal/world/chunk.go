package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/cull"
)

const (
	// ChunkSize is the side length of a chunk in voxels.
	ChunkSize = 32
	// ChunkVolume is the number of voxels in a chunk.
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Chunk is a fixed-size cube of voxels, the unit of streaming, meshing and
// culling. Chunks are owned exclusively by the ChunkManager; during meshing
// they are lent to workers as read-only neighbor references.
type Chunk struct {
	Position      ChunkCoord
	WorldPosition [3]int

	blocks [ChunkVolume]BlockType
	empty  bool

	bounds cull.AABB

	// Mesh is the GPU-resident geometry, nil while the chunk has no
	// visible generated geometry.
	Mesh MeshHandle
}

// NewChunk creates an all-air chunk at the given grid coordinate.
func NewChunk(position ChunkCoord) *Chunk {
	wp := [3]int{position.X * ChunkSize, position.Y * ChunkSize, position.Z * ChunkSize}
	min := mgl32.Vec3{float32(wp[0]), float32(wp[1]), float32(wp[2])}
	return &Chunk{
		Position:      position,
		WorldPosition: wp,
		empty:         true,
		bounds: cull.AABB{
			Min: min,
			Max: min.Add(mgl32.Vec3{ChunkSize, ChunkSize, ChunkSize}),
		},
	}
}

// blockIndex converts local coordinates to the flat z-major array index.
func blockIndex(x, y, z int) int {
	return z*ChunkSize*ChunkSize + y*ChunkSize + x
}

// GetBlock returns the block at local coordinates. Out-of-range coordinates
// read as air.
func (c *Chunk) GetBlock(x, y, z int) BlockType {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkSize {
		return BlockTypeAir
	}
	return c.blocks[blockIndex(x, y, z)]
}

// SetBlock writes the block at local coordinates and reports whether the
// value changed. On change the emptiness flag is recomputed with a full
// scan; callers use the report to queue mesh rebuilds.
func (c *Chunk) SetBlock(x, y, z int, block BlockType) bool {
	idx := blockIndex(x, y, z)
	if c.blocks[idx] == block {
		return false
	}
	c.blocks[idx] = block

	c.empty = true
	for i := range c.blocks {
		if c.blocks[i] != BlockTypeAir {
			c.empty = false
			break
		}
	}
	return true
}

// IsEmpty reports whether every voxel is air.
func (c *Chunk) IsEmpty() bool {
	return c.empty
}

// Bounds returns the chunk's world-space bounding box.
func (c *Chunk) Bounds() cull.AABB {
	return c.bounds
}
