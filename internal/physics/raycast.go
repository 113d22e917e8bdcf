package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/profiling"
)

// BlockSource answers occupancy queries during grid traversal. Unloaded
// regions must report false so the ray passes through them.
type BlockSource interface {
	BlockSolid(x, y, z int) bool
}

// RaycastResult stores the outcome of a voxel ray cast. Normal is the unit
// normal of the face the ray entered through; AdjacentPosition is the voxel
// on the near side of that face, which is where block placement goes.
type RaycastResult struct {
	HitPosition      [3]int
	Normal           [3]int
	AdjacentPosition [3]int
	Distance         float32
	Hit              bool
}

// Raycast walks the voxel grid from origin along direction, one cell
// boundary at a time (Amanatides–Woo), until it enters a solid voxel or
// travels maxDistance. Axes with a near-zero direction component never
// advance; their parametric step saturates instead of dividing by zero.
func Raycast(origin, direction mgl32.Vec3, maxDistance float32, source BlockSource) RaycastResult {
	defer profiling.Track("physics.Raycast")()

	var voxel, step [3]int
	var tMax, tDelta [3]float32

	for axis := 0; axis < 3; axis++ {
		o := origin[axis]
		d := direction[axis]
		floor := float32(math.Floor(float64(o)))
		voxel[axis] = int(floor)

		switch {
		case d > 0:
			step[axis] = 1
			tMax[axis] = (floor + 1 - o) / d
			tDelta[axis] = 1 / d
		case d < 0:
			step[axis] = -1
			tMax[axis] = (o - floor) / -d
			tDelta[axis] = -1 / d
		default:
			tMax[axis] = math.MaxFloat32
			tDelta[axis] = math.MaxFloat32
		}
		if tMax[axis] < 0 {
			tMax[axis] = 0
		}
	}

	var traveled float32
	var normal [3]int

	for traveled < maxDistance {
		if source.BlockSolid(voxel[0], voxel[1], voxel[2]) {
			return RaycastResult{
				HitPosition: voxel,
				Normal:      normal,
				AdjacentPosition: [3]int{
					voxel[0] + normal[0],
					voxel[1] + normal[1],
					voxel[2] + normal[2],
				},
				Distance: traveled,
				Hit:      true,
			}
		}

		// Advance along the axis whose next boundary is closest.
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}

		voxel[axis] += step[axis]
		traveled = tMax[axis]
		tMax[axis] += tDelta[axis]
		normal = [3]int{}
		normal[axis] = -step[axis]
	}

	return RaycastResult{}
}
