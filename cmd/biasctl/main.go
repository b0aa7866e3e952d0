//go:build !(rp2040 || rp2350)

// Command biasctl is the bench console for bias cards attached to a Linux
// I2C adapter. With -simulate it drives an emulated card rack instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"biasboard-go/services/bias"
	"biasboard-go/services/config"
	"biasboard-go/services/console"
	"biasboard-go/services/session"
	"biasboard-go/services/transport"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	var (
		cfgPath  = flag.String("config", os.Getenv("BIASCTL_CONFIG"), "station YAML file (default: built-in)")
		busDev   = flag.String("bus", "", "I2C adapter device or periph:<name>, overrides bus.device")
		card     = flag.Int("card", -1, "card to connect at start (-1: repeater.card from config)")
		simulate = flag.Bool("simulate", false, "use a simulated card rack instead of hardware")
		echo     = flag.String("echo", "", "on|off, overrides console.echo")
		level    = flag.String("log-level", "info", "debug|info|warn|error")
		script   = flag.String("script", "", "file of command lines to run before the prompt")
	)
	flag.Parse()

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*level)); err != nil {
		fmt.Fprintln(os.Stderr, "biasctl:", err)
		os.Exit(2)
	}
	id := uuid.NewString()
	logTo := func(w io.Writer) *slog.Logger {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})).With("session", id)
	}
	log := logTo(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{cfgPath: *cfgPath, bus: *busDev, card: *card, simulate: *simulate, echo: *echo, script: *script, logTo: logTo}
	if err := run(ctx, log, opts); err != nil {
		log.Error("biasctl", "err", err)
		os.Exit(1)
	}
}

type options struct {
	cfgPath  string
	bus      string
	card     int
	simulate bool
	echo     string
	script   string
	logTo    func(io.Writer) *slog.Logger
}

func run(ctx context.Context, log *slog.Logger, o options) error {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return err
	}
	if o.bus != "" {
		cfg.Bus.Device = o.bus
	}
	switch o.echo {
	case "on":
		cfg.Console.Echo = true
	case "off":
		cfg.Console.Echo = false
	case "":
	default:
		return fmt.Errorf("-echo must be on or off, got %q", o.echo)
	}
	card := int(cfg.Repeater.Card)
	if o.card >= 0 {
		card = o.card
	}

	var bus transport.Bus
	if o.simulate {
		log.Info("using simulated cards")
		bus = bias.Simulate(cfg)
	} else {
		log.Info("opening bus", "device", cfg.Bus.Device, "speed_hz", cfg.Bus.SpeedHz)
		if bus, err = transport.Open(cfg.Bus.Device, cfg.Bus.SpeedHz); err != nil {
			return err
		}
	}
	defer bus.Close()

	term, err := console.OpenTerminal(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer term.Close()

	e := console.New(term)
	e.SetEcho(cfg.Console.Echo && term.Interactive())
	if term.Interactive() {
		// Raw mode leaves LF without its CR.
		log = o.logTo(console.NewCRLFWriter(os.Stderr))
	}

	sess := session.New(bias.New(bus, cfg), e, cfg, log)
	_ = sess.Exec(ctx, fmt.Sprintf("connect %d", card))
	if o.script != "" {
		f, err := os.Open(o.script)
		if err != nil {
			return err
		}
		err = sess.ExecScript(ctx, f)
		f.Close()
		if errors.Is(err, session.ErrQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return sess.Run(ctx)
}
