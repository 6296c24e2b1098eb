package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"flipdot/internal/battery"
	"flipdot/internal/config"
	"flipdot/internal/convert"
	"flipdot/internal/demo"
	"flipdot/internal/flipdot"
	"flipdot/internal/hw"
	appLog "flipdot/internal/log"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	pattern    string
	once       bool
	renderOnly bool
	dumpDir    string
	list       bool
}

func main() {
	appLog.Info("flipdot starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if lvl, err := appLog.ParseLevel(conf.LogLevel); err == nil {
		appLog.SetLevel(lvl)
	}

	// --render-only never touches the GPIO lines.
	if flags.renderOnly {
		conf.Backend.Driver = "sim"
	}

	lib := demo.NewLibrary(demo.Options{
		Text:     conf.Demo.Text,
		IconPath: conf.Demo.IconPath,
		Seed:     time.Now().UnixNano(),
	})
	if flags.list {
		for _, n := range lib.Names() {
			fmt.Println(n)
		}
		return
	}

	appLog.Info("effective config",
		"driver", conf.Backend.Driver,
		"size", fmt.Sprintf("%dx%d", conf.Display.Height, conf.Display.Width),
		"flip_pulse_us", conf.Display.FlipPulseUs,
		"recovery_ms", conf.Display.RecoveryMs,
		"sweep", conf.Display.Sweep,
		"polarity", conf.Display.Polarity,
		"playlist", conf.Demo.Playlist,
		"battery", conf.Battery.Enabled,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	board, err := hw.Open(conf.Backend, conf.Pins)
	if err != nil {
		appLog.Error("failed to configure gpio", err, "driver", conf.Backend.Driver)
		os.Exit(1)
	}
	defer board.Close()

	ctrl, err := newController(board, conf)
	if err != nil {
		appLog.Error("failed to initialize display", err)
		os.Exit(1)
	}
	defer func() {
		if err := ctrl.Release(); err != nil {
			appLog.Error("failed to release display", err)
		}
		appLog.Info("flipdot exiting", "pulses", ctrl.Pulses())
	}()

	player := demo.NewPlayer(ctrl, time.Duration(conf.Demo.FrameMs)*time.Millisecond)
	if flags.dumpDir != "" {
		player.OnFrame = dumpFrames(flags.dumpDir)
	}

	if flags.once || flags.pattern != "" {
		name := flags.pattern
		if name == "" && len(conf.Demo.Playlist) > 0 {
			name = conf.Demo.Playlist[0]
		}
		if err := play(ctx, lib, player, name); err != nil && !errors.Is(err, context.Canceled) {
			appLog.Error("pattern failed", err, "pattern", name)
		}
		return
	}

	run(ctx, conf, lib, player)
}

// run owns the display until ctx is canceled. Cron jobs only queue
// pattern names; everything that flips dots happens on this goroutine.
func run(ctx context.Context, conf *config.Config, lib *demo.Library, player *demo.Player) {
	sched := cron.New(cron.WithLogger(appLog.CronLogger()))

	queue := make(chan string, 1)
	playlist := demo.NewPlaylist(conf.Demo.Playlist)
	if _, err := playlist.Schedule(sched, conf.Demo.Schedule, queue); err != nil {
		appLog.Error("invalid demo schedule", err, "schedule", conf.Demo.Schedule)
		return
	}

	if conf.Battery.Enabled {
		rn := battery.Range{EmptyMv: conf.Battery.EmptyMv, FullMv: conf.Battery.FullMv}
		mon := battery.NewMonitor(battery.DefaultReader(conf.Battery.Bus, conf.Battery.Addr, rn))
		if _, err := mon.Schedule(ctx, sched, conf.Battery.Schedule); err != nil {
			appLog.Error("invalid battery schedule", err, "schedule", conf.Battery.Schedule)
		}
		_, _ = mon.Sample(ctx)
	}

	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	// Show something right away instead of waiting for the first tick.
	if first := playlist.Next(); first != "" {
		queue <- first
	}

	for {
		select {
		case <-ctx.Done():
			return
		case name := <-queue:
			if err := play(ctx, lib, player, name); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("pattern failed", err, "pattern", name)
			}
		}
	}
}

func play(ctx context.Context, lib *demo.Library, player *demo.Player, name string) error {
	p, err := lib.Get(name)
	if err != nil {
		return err
	}
	return player.Play(ctx, p)
}

func newController(board *hw.Board, conf *config.Config) (*flipdot.Controller, error) {
	sweep, err := flipdot.ParseSweepMode(conf.Display.Sweep)
	if err != nil {
		return nil, err
	}
	polarity, err := flipdot.ParsePolarity(conf.Display.Polarity)
	if err != nil {
		return nil, err
	}

	opts := []flipdot.Option{
		flipdot.WithSize(conf.Display.Height, conf.Display.Width),
		flipdot.WithFlipPulse(time.Duration(conf.Display.FlipPulseUs) * time.Microsecond),
		flipdot.WithRecovery(time.Duration(conf.Display.RecoveryMs) * time.Millisecond),
		flipdot.WithSettleTime(time.Duration(conf.Display.SettleMs) * time.Millisecond),
		flipdot.WithSweep(sweep),
		flipdot.WithPolarity(polarity),
		flipdot.WithClearOnInit(conf.Display.ClearOnInit),
	}
	if conf.Display.RandomSeed != 0 {
		opts = append(opts, flipdot.WithRand(rand.New(rand.NewSource(conf.Display.RandomSeed))))
	}
	if board.Backend() == "sim" {
		// Nothing to wait for on simulated lines.
		opts = append(opts, flipdot.WithSleep(func(time.Duration) {}))
	}
	return flipdot.New(board.Wiring, opts...)
}

// dumpFrames writes every shown frame as a PNG preview named after its
// pattern and index.
func dumpFrames(dir string) func(demo.Pattern, int, *flipdot.Grid) {
	return func(p demo.Pattern, i int, f *flipdot.Grid) {
		path := filepath.Join(dir, fmt.Sprintf("%s-%03d.png", p.Name(), i))
		out, err := os.Create(path)
		if err != nil {
			appLog.Error("failed to create preview", err, "path", path)
			return
		}
		defer out.Close()
		if err := convert.WritePNG(out, f, 8); err != nil {
			appLog.Error("failed to write preview", err, "path", path)
		}
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/flipdot/config.yaml", "Path to config file")
	flag.StringVar(&cfg.pattern, "pattern", "", "Play a single pattern and exit")
	flag.BoolVar(&cfg.once, "once", false, "Play the first playlist entry and exit")
	flag.BoolVar(&cfg.renderOnly, "render-only", false, "Simulate the GPIO lines; do not touch display hardware")
	flag.StringVar(&cfg.dumpDir, "dump", "", "Write a PNG preview of every frame into this directory")
	flag.BoolVar(&cfg.list, "list", false, "List available patterns and exit")

	flag.Parse()

	return cfg
}
