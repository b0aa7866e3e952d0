//go:build rp2040 || rp2350

// Firmware console for the bias card controller. Operator I/O runs on the
// configured UART, cards hang off the configured I2C controller.
package main

import (
	"context"
	"strconv"
	"time"

	"biasboard-go/services/bias"
	"biasboard-go/services/config"
	"biasboard-go/services/console"
	"biasboard-go/services/session"
	"biasboard-go/services/transport"
)

func main() {
	// Give a USB/UART host time to attach before the banner.
	time.Sleep(2 * time.Second)
	println("[biasctl] boot")

	cfg := config.Default()
	bus, err := transport.Open(cfg.Bus.Device, cfg.Bus.SpeedHz)
	if err != nil {
		halt("i2c: " + err.Error())
	}
	uart, err := console.OpenUART(cfg.Console.UART, cfg.Console.Baud)
	if err != nil {
		halt("uart: " + err.Error())
	}
	println("[biasctl] i2c " + cfg.Bus.Device + ", console " + cfg.Console.UART + " @" + strconv.FormatUint(uint64(cfg.Console.Baud), 10))

	e := console.New(uart)
	e.SetEcho(cfg.Console.Echo)
	st := bias.New(bus, cfg)
	ctx := context.Background()

	// The station outlives a quit; the operator gets a fresh prompt loop.
	for {
		sess := session.New(st, e, cfg, nil)
		if _, ok := st.Card(); !ok {
			_ = sess.Exec(ctx, "connect "+strconv.Itoa(int(cfg.Repeater.Card)))
		}
		if err := sess.Run(ctx); err != nil {
			println("[biasctl] session: " + err.Error())
			time.Sleep(time.Second)
		}
	}
}

func halt(msg string) {
	for {
		println("[biasctl] " + msg)
		time.Sleep(5 * time.Second)
	}
}
