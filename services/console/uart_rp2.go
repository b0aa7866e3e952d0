//go:build rp2040 || rp2350

package console

import (
	"context"
	"machine"

	"biasboard-go/errcode"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// UART is a firmware console on uart0/uart1. Pins are the board defaults.
type UART struct {
	u   *uartx.UART
	buf [1]byte
}

func OpenUART(id string, baud uint32) (*UART, error) {
	var hw *uartx.UART
	switch id {
	case "uart0", "":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errcode.New(errcode.InvalidParams, "open_uart", "unknown uart "+id)
	}
	cfg := uartx.UARTConfig{BaudRate: baud}
	if id == "uart1" {
		cfg.TX, cfg.RX = machine.UART1_TX_PIN, machine.UART1_RX_PIN
	} else {
		cfg.TX, cfg.RX = machine.UART0_TX_PIN, machine.UART0_RX_PIN
	}
	if err := hw.Configure(cfg); err != nil {
		return nil, err
	}
	return &UART{u: hw}, nil
}

func (s *UART) Available() bool { return s.u.Buffered() > 0 }

func (s *UART) ReadByte() (byte, error) {
	for {
		n, err := s.u.RecvSomeContext(context.Background(), s.buf[:])
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return s.buf[0], nil
		}
	}
}

func (s *UART) Write(p []byte) (int, error) { return s.u.Write(p) }
