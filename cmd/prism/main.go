// Command prism is a progressive path-tracing viewer: it loads a scene
// document, builds the acceleration structures and accumulates samples
// into the window until you resize it or quit.
package main

import (
	"flag"
	"runtime"
	"time"

	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v2"

	"github.com/hexlattice/prism/config"
	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/logx"
	"github.com/hexlattice/prism/present"
	"github.com/hexlattice/prism/rt"
	"github.com/hexlattice/prism/scene"
)

func init() {
	// SDL and the swapchain want the main thread.
	runtime.LockOSThread()
}

type app struct {
	cfg    config.Config
	window *sdl.Window

	ctx   *gpu.Context
	scene *scene.Result
	sync  *present.Synchronizer
	rend  *renderer
}

func main() {
	configPath := flag.String("config", "prism.toml", "settings file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logx.Fatal("%+v", err)
	}
	logx.SetLevel(cfg.LogLevel)

	a := &app{cfg: cfg}
	defer a.cleanup()

	if err := a.run(); err != nil {
		logx.Fatal("%+v", err)
	}
}

func (a *app) run() error {
	if err := a.initWindow(); err != nil {
		return err
	}
	if err := a.initVulkan(); err != nil {
		return err
	}
	if err := a.loadScene(); err != nil {
		return err
	}
	if err := a.initPresentation(); err != nil {
		return err
	}
	return a.mainLoop()
}

func (a *app) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return err
	}

	window, err := sdl.CreateWindow(a.cfg.Window.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(a.cfg.Window.Width), int32(a.cfg.Window.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return err
	}
	a.window = window
	return nil
}

func (a *app) initVulkan() error {
	ctx, err := gpu.CreateContext(gpu.Options{
		AppName:            a.cfg.Window.Title,
		Validation:         a.cfg.Vulkan.Validation,
		InstanceExtensions: a.window.VulkanGetInstanceExtensions(),
		ProcAddr:           sdl.VulkanGetVkGetInstanceProcAddr(),
		CreateSurface: func(instance core1_0.Instance, ext *khr_surface.VulkanExtension) (khr_surface.Surface, error) {
			return vkng_sdl2.CreateSurface(instance, ext, a.window)
		},
	})
	if err != nil {
		return err
	}
	a.ctx = ctx
	return nil
}

func (a *app) loadScene() error {
	start := hrtime.Now()

	src := &scene.OBJSource{
		Path:         a.cfg.Scene.Path,
		MaterialPath: a.cfg.Scene.MaterialPath,
	}
	doc, err := src.Document()
	if err != nil {
		return err
	}

	builder := rt.ForContext(a.ctx)
	asm := scene.NewAssembler(scene.NewGPUDevice(a.ctx, builder))
	asm.HitVariants = len(a.cfg.Shaders.Hit)
	if a.cfg.Trace.HitGroupPolicy == "first" {
		asm.Policy = scene.FirstHitGroup()
	} else {
		asm.Policy = scene.RandomHitGroups(a.cfg.Trace.HitGroupSeed)
	}

	a.scene, err = asm.Assemble(doc)
	if err != nil {
		return err
	}

	logx.Info("scene ready in %v", hrtime.Since(start))
	return nil
}

func (a *app) initPresentation() error {
	factory := present.NewFactory(a.ctx, func() core1_0.Extent2D {
		w, h := a.window.VulkanGetDrawableSize()
		return core1_0.Extent2D{Width: int(w), Height: int(h)}
	})

	sync, err := present.NewSynchronizer(a.ctx.Device(), a.ctx.Pool(), factory)
	if err != nil {
		return err
	}
	a.sync = sync

	rend, err := newRenderer(a.ctx, a.cfg.Shaders, a.scene, sync.Extent())
	if err != nil {
		return err
	}
	a.rend = rend
	return nil
}

func (a *app) mainLoop() error {
	batch := a.cfg.Trace.SamplesPerBatch
	lastReport := hrtime.Now()
	reportFrames := uint64(0)

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if e.Keysym.Sym == sdl.K_ESCAPE && e.State == sdl.RELEASED {
					return nil
				}
			}
		}

		// The storage target follows the swapchain extent; after a
		// recreation this swaps it out before the next trace.
		if err := a.rend.resize(a.scene, a.sync.Extent()); err != nil {
			return err
		}

		rendered := false
		err := a.sync.Frame(func(cb core1_0.CommandBuffer, frame present.Frame) error {
			rendered = true
			return a.rend.record(cb, frame, batch)
		})
		if err != nil {
			return err
		}
		if rendered {
			a.sync.AddSamples(batch)
			reportFrames++
		}

		if elapsed := hrtime.Since(lastReport); elapsed > 5*time.Second {
			logx.Debug("%d samples accumulated, %.1f fps",
				a.sync.AccumulatedSamples(),
				float64(reportFrames)/elapsed.Seconds())
			lastReport = hrtime.Now()
			reportFrames = 0
		}
	}
}

func (a *app) cleanup() {
	if a.ctx != nil {
		a.ctx.Device().WaitIdle()
	}
	if a.rend != nil {
		a.rend.destroy()
	}
	if a.sync != nil {
		a.sync.Destroy()
	}
	if a.scene != nil {
		a.scene.Release()
	}
	if a.ctx != nil {
		a.ctx.Destroy()
	}
	if a.window != nil {
		a.window.Destroy()
	}
	sdl.Quit()
}
