package world

// BlockType identifies a voxel's material. Air is the zero value and the
// only type with no geometry.
type BlockType uint8

const (
	BlockTypeAir BlockType = iota
	BlockTypeDirt
	BlockTypeGrass
	BlockTypeStone
	BlockTypeLog
	BlockTypePlank
	BlockTypeLeaves
)

// BlockFace identifies one of the six cardinal faces of a voxel.
// The order matches the neighbor array passed to BuildMesh.
type BlockFace int

const (
	FaceFront  BlockFace = iota // -Z
	FaceBack                    // +Z
	FaceLeft                    // -X
	FaceRight                   // +X
	FaceBottom                  // -Y
	FaceTop                     // +Y
)

// faceOffsets maps a face to the offset of the cell it looks at.
var faceOffsets = [6][3]int{
	{0, 0, -1}, // front
	{0, 0, 1},  // back
	{-1, 0, 0}, // left
	{1, 0, 0},  // right
	{0, -1, 0}, // bottom
	{0, 1, 0},  // top
}

// FaceUV returns the texture index for one face of a block. Grass and logs
// use different indices on their side faces than on top/bottom; everything
// else uses a single index.
func (b BlockType) FaceUV(face BlockFace) uint8 {
	switch b {
	case BlockTypeGrass:
		if face < FaceBottom {
			return 0
		}
		if face == FaceTop {
			return 1
		}
		return 2
	case BlockTypeDirt:
		return 2
	case BlockTypeStone:
		return 3
	case BlockTypeLog:
		if face < FaceBottom {
			return 5
		}
		return 4
	case BlockTypePlank:
		return 6
	case BlockTypeLeaves:
		return 7
	default:
		return 0
	}
}
