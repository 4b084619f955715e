// Command marquee plays an SWF movie in a window, or replays a scripted
// input sequence against it headlessly.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phanxgames/marquee"
	"github.com/phanxgames/marquee/config"
	"github.com/phanxgames/marquee/ebitenhost"
	"github.com/phanxgames/marquee/luascript"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("marquee", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "TOML configuration file")
	scriptPath := fs.String("script", "", "YAML input script; plays headlessly until it ends")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: marquee [-config file.toml] [-script input.yaml] <movie.swf>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one movie path, got %d arguments", fs.NArg())
	}
	moviePath := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(moviePath)
	if err != nil {
		return fmt.Errorf("read movie: %w", err)
	}

	opts := marquee.Options{
		Logger:           log,
		MaxFramesPerTick: cfg.Player.MaxFramesPerTick,
		FrameRate:        cfg.Player.FrameRateOverride,
		NoLetterbox:      !cfg.Player.Letterbox,
		Debug:            cfg.Player.Debug,
	}
	if cfg.Player.DeviceFont != "" {
		font, err := os.ReadFile(cfg.Player.DeviceFont)
		if err != nil {
			log.Warn("device font unavailable", zap.String("path", cfg.Player.DeviceFont), zap.Error(err))
		} else {
			opts.DeviceFont = font
		}
	}
	if cfg.Script.LuaDir != "" {
		interp, err := luascript.New(cfg.Script.LuaDir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("load lua scripts: %w", err)
		}
		defer interp.Close()
		opts.Interpreter = interp
	}

	if *scriptPath != "" {
		return runHeadless(data, opts, *scriptPath, !cfg.Player.StartPaused, log)
	}
	return runWindow(data, opts, cfg, log)
}

// runHeadless drives the player at its own frame rate with no renderer
// until the input script is exhausted.
func runHeadless(data []byte, opts marquee.Options, scriptPath string, play bool, log *zap.Logger) error {
	script, err := marquee.LoadInputScript(scriptPath)
	if err != nil {
		return err
	}
	opts.Input = script
	p, err := marquee.NewPlayer(data, opts)
	if err != nil {
		return err
	}
	p.SetPlaying(play)

	dt := 1000 / p.FrameRate()
	ticks := 0
	for !script.Done() {
		p.ProcessInput()
		p.Tick(dt)
		ticks++
	}
	var frame uint16
	p.Mutate(func(ctx *marquee.UpdateContext) {
		frame = ctx.RootNode().DisplayedFrame()
	})
	log.Info("input script finished",
		zap.Int("ticks", ticks),
		zap.Uint16("frame", frame),
		zap.Float64("elapsed_ms", p.GlobalTime()))
	return nil
}

func runWindow(data []byte, opts marquee.Options, cfg *config.Config, log *zap.Logger) error {
	renderer := ebitenhost.NewRenderer(cfg.Window.Width, cfg.Window.Height)
	input := ebitenhost.NewInput()
	opts.Renderer = renderer
	opts.Input = input
	p, err := marquee.NewPlayer(data, opts)
	if err != nil {
		return err
	}

	w, h := cfg.Window.Width, cfg.Window.Height
	if w == 0 {
		w = int(p.MovieWidth())
	}
	if h == 0 {
		h = int(p.MovieHeight())
	}
	renderer.SetViewportSize(w, h)
	p.SetViewportDimensions(float64(w), float64(h))
	p.SetPlaying(!cfg.Player.StartPaused)
	p.Render()

	g := ebitenhost.NewGame(p, renderer, input, log)
	g.ShowDebug(cfg.Player.Debug)
	return ebitenhost.Run(g, ebitenhost.Window{
		Width:     w,
		Height:    h,
		Title:     cfg.Window.Title,
		Resizable: cfg.Window.Resizable,
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
