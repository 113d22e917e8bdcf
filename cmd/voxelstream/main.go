// Command voxelstream runs the chunk streaming pipeline headlessly: it
// flies an observer through the procedural world, advances the
// load/mesh queues with per-frame quotas, culls against the observer's
// frustum and submits visible chunks to a CPU-side uploader, logging
// pipeline stats once per second.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"

	"voxelstream/internal/config"
	"voxelstream/internal/cull"
	"voxelstream/internal/player"
	"voxelstream/internal/profiling"
	"voxelstream/internal/world"
)

// cpuMesh retains only the counts a draw submission needs; it stands in
// for GPU-resident buffers.
type cpuMesh struct {
	vertices int
	indices  int
}

func (m *cpuMesh) VertexCount() int { return m.vertices }
func (m *cpuMesh) IndexCount() int  { return m.indices }

// cpuUploader implements world.Uploader without a GPU context.
type cpuUploader struct {
	uploads int
}

func (u *cpuUploader) Upload(vertices []world.Vertex, indices []uint32) world.MeshHandle {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil
	}
	u.uploads++
	return &cpuMesh{vertices: len(vertices), indices: len(indices)}
}

func main() {
	configPath := flag.String("config", "", "path to settings YAML (defaults used when empty)")
	frames := flag.Int("frames", 0, "stop after this many frames (0 = run until interrupted)")
	flag.Parse()

	settings := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		settings = loaded
	}

	gen := world.NewGenerator(settings.Seed, settings.CaveScale, settings.HillScale)
	manager := world.NewChunkManager(gen, settings.RenderDistance)
	manager.Workers = settings.Workers
	if settings.MeshPriority == "load-first" {
		manager.Priority = world.PriorityLoadFirst
	}

	stop := make(chan struct{})
	closer.Bind(func() { close(stop) })
	go func() {
		defer closer.Close()
		run(manager, settings, *frames, stop)
	}()
	closer.Hold()
}

func run(manager *world.ChunkManager, settings config.Settings, frames int, stop <-chan struct{}) {
	const dt = float32(1.0 / 60.0)

	uploader := &cpuUploader{}
	camera := player.NewCamera(mgl32.Vec3{0, world.ChunkSize, 0}, 0, 0)
	projection := player.Projection{FovYDeg: 60, Aspect: 16.0 / 9.0, Near: 0.1, Far: 1000}

	manager.UpdateAround(camera.ChunkPos())

	lastStats := time.Now()

	for frame := 0; frames == 0 || frame < frames; frame++ {
		select {
		case <-stop:
			return
		default:
		}

		profiling.ResetFrame()
		frameStart := time.Now()

		// Fly forward with a slow turn so the window keeps moving.
		prevChunk := camera.ChunkPos()
		camera.Rotate(0.05*dt, 0)
		camera.Position = camera.Position.Add(camera.Direction().Mul(12 * dt))
		if camera.ChunkPos() != prevChunk {
			manager.UpdateAround(camera.ChunkPos())
		}

		manager.BuildChunkDataInQueue(settings.DataBatch)
		manager.BuildChunkMeshInQueue(settings.MeshBatch, uploader)

		// Exercise the edit path: dig out whatever the observer is looking
		// at every couple of seconds, and plank over the entry face.
		if frame%120 == 60 {
			if res := manager.RayCast(camera.Position, camera.Yaw, camera.Pitch, 64); res.Hit {
				manager.SetBlock(res.HitPosition[0], res.HitPosition[1], res.HitPosition[2], world.BlockTypeAir)
				manager.SetBlock(res.AdjacentPosition[0], res.AdjacentPosition[1], res.AdjacentPosition[2], world.BlockTypePlank)
			}
		}

		frustum := cull.FromMatrix(camera.ViewProjection(projection))
		draws := manager.VisibleChunks(&frustum)
		drawnVerts := 0
		for _, d := range draws {
			drawnVerts += d.Mesh.VertexCount()
		}

		if time.Since(lastStats) >= time.Second {
			lastStats = time.Now()
			stats := manager.StatsSnapshot()
			log.Printf("visible=%d/%d verts=%d dataQ=%d meshQ=%d missing=%d uploads=%d | %s",
				len(draws), stats.Loaded, drawnVerts,
				stats.DataQueued, stats.MeshPending, stats.MissingNeighbors,
				uploader.uploads, profiling.TopN(4))
		}

		if elapsed := time.Since(frameStart); elapsed < time.Second/60 {
			time.Sleep(time.Second/60 - elapsed)
		}
	}
}
