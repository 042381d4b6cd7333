// Command fgdemo runs a small deferred-style frame graph for a number of
// frames and prints the pool statistics that result. After the first
// frame every transient render target is served from the pool, so the
// reported hit rate demonstrates cross-frame resource reuse.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"

	graphics "github.com/malliky/Graphics"
	"github.com/malliky/Graphics/gpu"

	// Register the GPU backends; the headless backend registers with
	// the gpu package itself.
	_ "github.com/malliky/Graphics/gpu/vulkan"
	_ "github.com/malliky/Graphics/gpu/wgpu"
)

func main() {
	var (
		width   = flag.Uint("width", 1280, "render width in pixels")
		height  = flag.Uint("height", 720, "render height in pixels")
		frames  = flag.Int("frames", 8, "number of frames to execute")
		backend = flag.String("backend", "", "backend name (empty = best available)")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		graphics.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	b, err := selectBackend(*backend)
	if err != nil {
		log.Fatalf("backend: %v", err)
	}
	defer b.Close()
	log.Printf("using %s backend", b.Name())

	g, err := graphics.NewGraph(graphics.GraphOptions{Backend: b})
	if err != nil {
		log.Fatalf("graph: %v", err)
	}
	defer g.Close()

	// The history texture survives across frames; each lighting pass
	// reads the previous frame's output from it.
	history, err := g.CreateSharedTexture(gpu.DefaultTextureDescription(
		uint32(*width), uint32(*height), gputypes.TextureFormatRGBA8Unorm))
	if err != nil {
		log.Fatalf("history texture: %v", err)
	}

	for frame := 0; frame < *frames; frame++ {
		if err := runFrame(g, history, uint32(*width), uint32(*height)); err != nil {
			log.Fatalf("frame %d: %v", frame, err)
		}
	}

	printStats(g.Stats())
}

// selectBackend initializes a named backend, or the best available one
// when name is empty.
func selectBackend(name string) (gpu.Backend, error) {
	if name == "" {
		return gpu.InitDefault()
	}
	b := gpu.Get(name)
	if b == nil {
		return nil, fmt.Errorf("backend %q not registered (available: %v)", name, gpu.Available())
	}
	if err := b.Init(); err != nil {
		return nil, err
	}
	return b, nil
}

// runFrame declares and executes one gbuffer -> lighting -> post frame.
// The gbuffer targets are dead after the lighting pass and the lit
// texture after post, so their physicals recycle within and across
// frames.
func runFrame(g *graphics.Graph, history graphics.Handle, width, height uint32) error {
	if err := g.BeginExecution(); err != nil {
		return err
	}

	albedoDesc := gpu.DefaultTextureDescription(width, height, gputypes.TextureFormatRGBA8Unorm)
	albedoDesc.Label = "gbuffer-albedo"
	albedo, err := g.CreateTexture(albedoDesc)
	if err != nil {
		return err
	}

	normalDesc := gpu.DefaultTextureDescription(width, height, gputypes.TextureFormatRGBA8Unorm)
	normalDesc.Label = "gbuffer-normal"
	normal, err := g.CreateTexture(normalDesc)
	if err != nil {
		return err
	}

	litDesc := gpu.DefaultTextureDescription(width, height, gputypes.TextureFormatRGBA8Unorm)
	litDesc.Label = "lit"
	lit, err := g.CreateTexture(litDesc)
	if err != nil {
		return err
	}

	output, err := g.CreateTexture(gpu.DefaultTextureDescription(
		width, height, gputypes.TextureFormatBGRA8Unorm))
	if err != nil {
		return err
	}

	if err := g.AddPass("gbuffer", graphics.PassDesc{
		Writes:  []graphics.Handle{albedo, normal},
		Execute: resolveAll(albedo, normal),
	}); err != nil {
		return err
	}
	if err := g.AddPass("lighting", graphics.PassDesc{
		Reads:   []graphics.Handle{albedo, normal, history},
		Writes:  []graphics.Handle{lit},
		Execute: resolveAll(albedo, normal, history, lit),
	}); err != nil {
		return err
	}
	if err := g.AddPass("post", graphics.PassDesc{
		Reads:   []graphics.Handle{lit},
		Writes:  []graphics.Handle{output, history},
		Execute: resolveAll(lit, output, history),
	}); err != nil {
		return err
	}

	return g.Execute()
}

// resolveAll builds a pass callback that resolves every handle, standing
// in for real command recording.
func resolveAll(handles ...graphics.Handle) func(*graphics.PassContext) error {
	return func(pc *graphics.PassContext) error {
		for _, h := range handles {
			if _, err := pc.Texture(h); err != nil {
				return err
			}
		}
		return nil
	}
}

func printStats(stats graphics.GraphStats) {
	fmt.Printf("executions: %d\n", stats.Executions)
	fmt.Printf("textures:   %d hits / %d misses (%.0f%% hit rate), %d free, %d evicted\n",
		stats.Textures.Hits, stats.Textures.Misses,
		hitRate(stats.Textures), stats.Textures.FreeCount, stats.Textures.Evicted)
	fmt.Printf("buffers:    %d hits / %d misses, %d free, %d evicted\n",
		stats.Buffers.Hits, stats.Buffers.Misses,
		stats.Buffers.FreeCount, stats.Buffers.Evicted)
	fmt.Printf("shared:     %d textures, %d buffers\n",
		stats.SharedTextures, stats.SharedBuffers)
}

func hitRate(s graphics.PoolStats) float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return 100 * float64(s.Hits) / float64(total)
}
