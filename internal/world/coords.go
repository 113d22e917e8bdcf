package world

// ChunkCoord is a position on the chunk grid (world coordinate / ChunkSize,
// floored).
type ChunkCoord struct {
	X, Y, Z int
}

// Add returns c offset by (dx, dy, dz).
func (c ChunkCoord) Add(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// DistSq returns the squared Euclidean distance to another chunk coordinate.
func (c ChunkCoord) DistSq(o ChunkCoord) int {
	dx := c.X - o.X
	dy := c.Y - o.Y
	dz := c.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// InWindow reports whether c lies within Chebyshev distance radius of center.
func (c ChunkCoord) InWindow(center ChunkCoord, radius int) bool {
	return c.X >= center.X-radius && c.X <= center.X+radius &&
		c.Y >= center.Y-radius && c.Y <= center.Y+radius &&
		c.Z >= center.Z-radius && c.Z <= center.Z+radius
}

// floorDiv divides a by b rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// mod returns a modulo b normalized to [0, b).
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// WorldToChunkPos converts a world voxel coordinate to the owning chunk's
// grid coordinate.
func WorldToChunkPos(x, y, z int) ChunkCoord {
	return ChunkCoord{
		X: floorDiv(x, ChunkSize),
		Y: floorDiv(y, ChunkSize),
		Z: floorDiv(z, ChunkSize),
	}
}

// WorldToLocalPos converts a world voxel coordinate to coordinates local to
// its chunk, always within [0, ChunkSize) on every axis.
func WorldToLocalPos(x, y, z int) (int, int, int) {
	return mod(x, ChunkSize), mod(y, ChunkSize), mod(z, ChunkSize)
}
