package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"fisheye-renderer/internal/config"
	"fisheye-renderer/internal/engine"
	"fisheye-renderer/internal/palette"
	"fisheye-renderer/internal/scene"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	scriptDir := flag.String("scripts", "", "Directory holding lenses/ and globes/ (default: auto-detect)")
	skyboxDir := flag.String("skybox", "", "Directory holding skybox face TGAs")
	output := flag.String("output", "", "Output WebP path (default: fisheye.webp)")
	sceneName := flag.String("scene", "", "Scene: gradient or skybox (default: gradient)")
	lensName := flag.String("lens", "", "Lens script name (default: panini)")
	globeName := flag.String("globe", "", "Globe script name (default: cube)")
	fovCmd := flag.String("fov", "", "Zoom command (default: \"hfov 180\")")
	width := flag.Int("width", 0, "Viewport width (default: 640)")
	height := flag.Int("height", 0, "Viewport height (default: 480)")
	frames := flag.Int("frames", 0, "Number of turntable frames (default: 1)")
	workers := flag.Int("workers", 0, "Encoder goroutines (default: NumCPU)")
	rubix := flag.Bool("rubix", false, "Enable the rubix diagnostic overlay")
	saveGlobe := flag.String("saveglobe", "", "Also save each globe plate as <name><i>.pcx")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg.Resolve(config.Flags{
		ScriptDir: *scriptDir,
		SkyboxDir: *skyboxDir,
		Output:    *output,
		Scene:     *sceneName,
		Lens:      *lensName,
		Globe:     *globeName,
		FOV:       *fovCmd,
		Width:     *width,
		Height:    *height,
		Frames:    *frames,
		Workers:   *workers,
	})

	pal := palette.Default()

	var renderer engine.PlateRenderer
	switch cfg.Scene {
	case "gradient":
		renderer = scene.NewGradient(pal)
	case "skybox":
		sky, err := scene.LoadSkybox(cfg.SkyboxDir, pal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading skybox: %v\n", err)
			os.Exit(1)
		}
		renderer = sky
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown scene %q\n", cfg.Scene)
		os.Exit(1)
	}

	eng, err := engine.New(pal, renderer, cfg.LensDir(), cfg.GlobeDir(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	eng.Execute("fisheye 1")
	eng.Execute("globe " + cfg.Globe)
	eng.Execute("lens " + cfg.Lens)
	eng.Execute(cfg.FOV)
	if *rubix {
		eng.Execute("rubix")
	}

	if !eng.Lens().Valid || !eng.Globe().Valid {
		os.Exit(1)
	}

	fmt.Printf("Fisheye: %s lens on %s globe, %dx%d\n", cfg.Lens, cfg.Globe, cfg.Width, cfg.Height)

	start := time.Now()

	// Run the frame loop until the lens-map settles, like the host's
	// per-frame hook would.
	eng.RenderView(cfg.Width, cfg.Height)
	for eng.Working() {
		eng.RenderView(cfg.Width, cfg.Height)
	}

	if *saveGlobe != "" {
		eng.Execute("saveglobe " + *saveGlobe)
		eng.RenderView(cfg.Width, cfg.Height)
	}

	// Turntable: the lens-map is static, so each extra frame only
	// re-renders the displayed plates and composites.
	type outFrame struct {
		path   string
		pixels []uint8
	}
	outFrames := make([]outFrame, cfg.Frames)
	for fi := 0; fi < cfg.Frames; fi++ {
		eng.SetViewAngles(0, 360*float64(fi)/float64(cfg.Frames), 0)
		eng.RenderView(cfg.Width, cfg.Height)

		pixels := make([]uint8, len(eng.Frame))
		copy(pixels, eng.Frame)

		path := cfg.Output
		if cfg.Frames > 1 {
			ext := filepath.Ext(cfg.Output)
			path = fmt.Sprintf("%s%03d%s", cfg.Output[:len(cfg.Output)-len(ext)], fi, ext)
		}
		outFrames[fi] = outFrame{path: path, pixels: pixels}
	}

	// Encode through a worker pool.
	var failed atomic.Int64
	frameChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range frameChan {
				of := outFrames[idx]
				if err := writeWebP(of.path, of.pixels, cfg.Width, cfg.Height, pal); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					failed.Add(1)
				}
			}
		}()
	}
	for i := range outFrames {
		frameChan <- i
	}
	close(frameChan)
	wg.Wait()

	fmt.Printf("Wrote %d frame(s) in %.1fs\n", cfg.Frames, time.Since(start).Seconds())
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func writeWebP(path string, pixels []uint8, width, height int, pal palette.Palette) error {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, col := range pixels {
		c := pal[col]
		j := i * 4
		img.Pix[j] = c[0]
		img.Pix[j+1] = c[1]
		img.Pix[j+2] = c[2]
		img.Pix[j+3] = 255
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("WebP encode: %w", err)
	}
	return nil
}
