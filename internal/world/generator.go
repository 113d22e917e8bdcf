package world

import (
	lru "github.com/hashicorp/golang-lru"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// TerrainGenerator produces chunk contents for a grid coordinate.
// Implementations must be deterministic and safe for concurrent use: the
// manager generates batches of chunks in parallel.
type TerrainGenerator interface {
	Generate(position ChunkCoord) *Chunk
}

const (
	defaultCaveScale = 30.0
	defaultHillScale = 50.0

	// caveThreshold is compared against 3-D noise mapped to [0, ChunkSize-1];
	// denser samples become stone.
	caveThreshold = 16

	// surfaceCacheSize bounds the per-column height memo. A column is shared
	// by every chunk stacked above it, so a modest cache removes most of the
	// repeated 2-D noise work during a data batch.
	surfaceCacheSize = 8192
)

// Generator is the default noise-backed terrain generator. Chunks whose
// world Y origin is negative are carved with 3-D cave noise; chunks at or
// above zero get a 2-D heightmap with a grass skin over dirt fill.
type Generator struct {
	seed      int64
	caveScale float64
	hillScale float64

	noise   opensimplex.Noise
	heights *lru.Cache
}

// NewGenerator creates a generator for the given seed. Noise output is a
// pure function of seed and position, so equal seeds produce bit-identical
// worlds across runs and processes.
func NewGenerator(seed int64, caveScale, hillScale float64) *Generator {
	if caveScale <= 0 {
		caveScale = defaultCaveScale
	}
	if hillScale <= 0 {
		hillScale = defaultHillScale
	}
	heights, _ := lru.New(surfaceCacheSize)
	return &Generator{
		seed:      seed,
		caveScale: caveScale,
		hillScale: hillScale,
		noise:     opensimplex.NewNormalized(seed),
		heights:   heights,
	}
}

// SurfaceHeight returns the terrain height for a world X,Z column, in
// [0, ChunkSize). Results are memoized in a bounded cache; the memo is a
// pure lookup so cached and uncached paths agree.
func (g *Generator) SurfaceHeight(worldX, worldZ int) int {
	key := [2]int{worldX, worldZ}
	if v, ok := g.heights.Get(key); ok {
		return v.(int)
	}
	nx := (float64(worldX) + 0.5) / g.hillScale
	nz := (float64(worldZ) + 0.5) / g.hillScale
	h := int(g.noise.Eval2(nx, nz) * ChunkSize)
	g.heights.Add(key, h)
	return h
}

// Generate builds the chunk at position. The result is fully owned by the
// caller; no state is shared with other generated chunks.
func (g *Generator) Generate(position ChunkCoord) *Chunk {
	c := NewChunk(position)

	underground := c.WorldPosition[1] < 0

	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			worldX := c.WorldPosition[0] + x
			worldZ := c.WorldPosition[2] + z

			if underground {
				for y := 0; y < ChunkSize; y++ {
					worldY := c.WorldPosition[1] + y
					nx := (float64(worldX) + 0.5) / g.caveScale
					ny := (float64(worldY) + 0.5) / g.caveScale
					nz := (float64(worldZ) + 0.5) / g.caveScale
					val := int(g.noise.Eval3(nx, ny, nz) * (ChunkSize - 1))
					if val > caveThreshold {
						c.blocks[blockIndex(x, y, z)] = BlockTypeStone
						c.empty = false
					}
				}
				continue
			}

			height := g.SurfaceHeight(worldX, worldZ)
			for y := 0; y < ChunkSize; y++ {
				worldY := c.WorldPosition[1] + y
				if worldY == height {
					c.blocks[blockIndex(x, y, z)] = BlockTypeGrass
					c.empty = false
				} else if worldY < height {
					c.blocks[blockIndex(x, y, z)] = BlockTypeDirt
					c.empty = false
				}
			}
		}
	}

	return c
}
