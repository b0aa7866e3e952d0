package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"biasboard-go/errcode"
	"biasboard-go/services/bias"
	"biasboard-go/services/search"
	"biasboard-go/types"
)

type command struct {
	num  int
	name string
	args string
	help string
	run  func(s *Session, ctx context.Context) error
}

// Command numbers are part of the operator interface; keep them stable.
// Filled in init since help refers back to the table.
var commands []command

func init() {
	commands = []command{
		{1, "connect", "<card>", "attach to a card through its repeater", (*Session).connect},
		{2, "disconnect", "", "detach from the current card", (*Session).disconnect},
		{3, "set-pin", "<pin> <0|1>", "drive one expander output", (*Session).setPin},
		{4, "set-wiper", "<channel> <value>", "write one channel's wiper", (*Session).setWiper},
		{5, "sweep-wiper", "<channel>", "sweep a wiper until a key is pressed", (*Session).sweepWiper},
		{6, "search-current", "<channel> <mA>", "find the wiper giving a current", (*Session).searchCurrent},
		{7, "search-voltage", "<channel> <V>", "find the wiper giving a voltage", (*Session).searchVoltage},
		{8, "read-iv", "<channel>", "read shunt, bus voltage and current", (*Session).readIV},
		{9, "all-pins-high", "", "drive every expander output high", (*Session).allPinsHigh},
		{10, "all-pins-low", "", "drive every expander output low", (*Session).allPinsLow},
		{11, "init-sense", "<channel> [divider]", "configure a channel's sense chip", (*Session).initSense},
		{12, "init-board", "", "power up a card: enables, sense chips, wipers at 0", (*Session).initBoard},
		{13, "zero-pots", "", "write 0 to every wiper", (*Session).zeroPots},
		{14, "ramp-wiper", "<channel> <value>", "ramp a wiper to a value", (*Session).rampWiper},
		{15, "echo", "<on|off>", "switch input echo", (*Session).setEcho},
		{16, "status", "", "show card, pins, wipers and sense channels", (*Session).status},
		{17, "lna-current", "<lna> <mA>", "find the wiper giving a current on LNA 1-144", (*Session).lnaCurrent},
		{18, "lna-voltage", "<lna> <V>", "find the wiper giving a voltage on LNA 1-144", (*Session).lnaVoltage},
		{19, "lna-read", "<lna>", "read shunt, bus voltage and current of LNA 1-144", (*Session).lnaRead},
		{20, "test-board", "[card]", "guided bring-up of every channel at wipers 0, 100, 200", (*Session).testBoard},
		{0, "help", "", "list commands", (*Session).help},
		{99, "quit", "", "end the session", func(*Session, context.Context) error { return ErrQuit }},
	}
}

func lookup(word string) (*command, bool) {
	word = strings.ToLower(word)
	n, numErr := strconv.Atoi(word)
	for i := range commands {
		c := &commands[i]
		if c.name == word || (numErr == nil && c.num == n) {
			return c, true
		}
	}
	switch word {
	case "q", "exit":
		return lookup("quit")
	case "?", "h":
		return lookup("help")
	}
	return nil, false
}

// ---- Bus arbitration ----

func (s *Session) connect(ctx context.Context) error {
	n, err := s.intArg("card")
	if err != nil {
		return err
	}
	card, err := cardNumber(n)
	if err != nil {
		return err
	}
	return s.switchCard(card, true)
}

func cardNumber(n int) (uint8, error) {
	if n < 0 || n > bias.MaxCard {
		return 0, errcode.New(errcode.InvalidParams, "connect", "card must be 0.."+strconv.Itoa(bias.MaxCard))
	}
	return uint8(n), nil
}

// switchCard connects card, disconnecting a different current card first.
// Unless force is set, a card that is already connected is left alone.
func (s *Session) switchCard(card uint8, force bool) error {
	cur, ok := s.st.Card()
	if ok && cur == card && !force {
		return nil
	}
	if ok && cur != card {
		if err := s.st.Disconnect(cur); err != nil {
			return err
		}
		s.io.Printf("disconnected card %d%s", cur, nl)
	}
	if err := s.st.Connect(card); err != nil {
		return err
	}
	s.io.Printf("connected card %d (repeater 0x%02X)%s", card, s.st.RepeaterAddress(card), nl)
	return nil
}

func (s *Session) disconnect(ctx context.Context) error {
	card, ok := s.st.Card()
	if !ok {
		return errcode.New(errcode.NotConnected, "disconnect", "no card connected")
	}
	if err := s.st.Disconnect(card); err != nil {
		return err
	}
	s.io.Printf("disconnected card %d%s", card, nl)
	return nil
}

// ---- Expander ----

func (s *Session) setPin(ctx context.Context) error {
	pin, err := s.intArg("pin")
	if err != nil {
		return err
	}
	v, err := s.intArg("value (0/1)")
	if err != nil {
		return err
	}
	if pin < 0 || pin > 15 {
		return errcode.New(errcode.InvalidParams, "set_pin", "pin must be 0..15")
	}
	if err := s.st.SetPin(uint8(pin), v != 0); err != nil {
		return err
	}
	s.io.Printf("pins 0x%04X%s", s.st.Pins(), nl)
	return nil
}

func (s *Session) allPinsHigh(ctx context.Context) error { return s.allPins(true) }

func (s *Session) allPinsLow(ctx context.Context) error { return s.allPins(false) }

func (s *Session) allPins(high bool) error {
	if err := s.st.SetAllPins(high); err != nil {
		return err
	}
	s.io.Printf("pins 0x%04X%s", s.st.Pins(), nl)
	return nil
}

// ---- Wipers ----

func (s *Session) setWiper(ctx context.Context) error {
	ch, err := s.channelArg()
	if err != nil {
		return err
	}
	v, err := s.byteArg("value (0-255)")
	if err != nil {
		return err
	}
	if err := s.st.SetChannelWiper(ch, v); err != nil {
		return err
	}
	s.io.Printf("channel %d wiper %d%s", ch, v, nl)
	return nil
}

func (s *Session) sweepWiper(ctx context.Context) error {
	ch, err := s.channelArg()
	if err != nil {
		return err
	}
	start, err := s.st.ChannelWiper(ch)
	if err != nil {
		return err
	}
	s.io.Println("sweeping, press any key to stop")
	last, err := search.Sweep(ctx, start, s.cfg.Sweep.Step(), nil,
		func(v uint8) error { return s.st.SetChannelWiper(ch, v) }, s.io.Pending)
	s.io.Discard()
	if err != nil {
		return err
	}
	s.io.Printf("channel %d stopped at wiper %d%s", ch, last, nl)
	return nil
}

func (s *Session) rampWiper(ctx context.Context) error {
	ch, err := s.channelArg()
	if err != nil {
		return err
	}
	to, err := s.byteArg("value (0-255)")
	if err != nil {
		return err
	}
	from, err := s.st.ChannelWiper(ch)
	if err != nil {
		return err
	}
	cancelled, err := search.Ramp(ctx, from, to, s.cfg.Ramp.Duration(), s.cfg.Ramp.Steps, nil,
		func(v uint8) error { return s.st.SetChannelWiper(ch, v) }, s.io.Pending)
	if cancelled {
		s.io.Discard()
	}
	if err != nil {
		return err
	}
	now, _ := s.st.ChannelWiper(ch)
	if cancelled {
		s.io.Printf("ramp interrupted at wiper %d%s", now, nl)
		return nil
	}
	s.io.Printf("channel %d wiper %d%s", ch, now, nl)
	return nil
}

func (s *Session) zeroPots(ctx context.Context) error {
	if err := s.st.ZeroPots(); err != nil {
		return err
	}
	s.io.Println("all wipers at 0")
	return nil
}

// ---- Closed loop ----

func (s *Session) searchCurrent(ctx context.Context) error {
	return s.search(ctx, types.QuantityCurrent, s.cfg.Search.CurrentTolerance)
}

func (s *Session) searchVoltage(ctx context.Context) error {
	return s.search(ctx, types.QuantityVoltage, s.cfg.Search.VoltageTolerance)
}

func (s *Session) search(ctx context.Context, q types.Quantity, tol float64) error {
	ch, err := s.channelArg()
	if err != nil {
		return err
	}
	return s.searchOn(ctx, ch, q, tol)
}

func (s *Session) searchOn(ctx context.Context, ch int, q types.Quantity, tol float64) error {
	target, err := s.floatArg("target (" + q.Unit() + ")")
	if err != nil {
		return err
	}
	if !s.st.SenseReady(ch) {
		return errcode.New(errcode.NotInitialized, "search", "sense channel "+strconv.Itoa(ch)+" not initialised")
	}

	p := search.Params{
		Target:    target,
		Tolerance: tol,
		MaxSteps:  s.cfg.Search.MaxSteps,
		Settle:    s.cfg.Search.Settle(),
	}
	res, err := search.Run(ctx, p,
		func(v uint8) error { return s.st.SetChannelWiper(ch, v) },
		func() (float64, error) { return s.st.Measure(ch, q) },
		s.io.Pending)
	s.log.Info("search", "quantity", string(q), "channel", ch, "target", target,
		"value", res.Value, "measurement", res.Measurement, "steps", res.Steps, "cancelled", res.Cancelled, "err", err)

	switch {
	case res.Cancelled:
		s.io.Discard()
		s.io.Printf("search cancelled at wiper %d%s", res.Value, nl)
		return nil
	case errcode.Of(err) == errcode.SearchExhausted:
		s.io.Printf("no wiper value reaches %.3f %s (last wiper %d, %.3f %s)%s",
			target, q.Unit(), res.Value, res.Measurement, q.Unit(), nl)
		return err
	case err != nil:
		return err
	}
	s.io.Printf("channel %d wiper %d: %.3f %s%s", ch, res.Value, res.Measurement, q.Unit(), nl)
	return nil
}

// ---- Sense ----

func (s *Session) readIV(ctx context.Context) error {
	ch, err := s.channelArg()
	if err != nil {
		return err
	}
	return s.readOn(ch)
}

func (s *Session) readOn(ch int) error {
	r, err := s.st.ReadSense(ch)
	if err != nil {
		return err
	}
	s.io.Printf("channel %d: shunt %.2f mV  bus %.3f V  current %.3f mA%s",
		ch, r.ShuntMillivolts, r.BusVolts, r.CurrentMilliamps, nl)
	return nil
}

func (s *Session) initSense(ctx context.Context) error {
	ch, err := s.channelArg()
	if err != nil {
		return err
	}
	var div float64
	if len(s.args) > 0 {
		div, _ = s.floatArg("")
	}
	if err := s.st.InitSense(ch, div); err != nil {
		return err
	}
	s.io.Printf("sense channel %d ready%s", ch, nl)
	return nil
}

func (s *Session) initBoard(ctx context.Context) error {
	if _, ok := s.st.Card(); !ok {
		s.io.Println("warning: no card connected")
	}
	if err := s.st.InitBoard(0); err != nil {
		return err
	}
	s.io.Printf("board ready, pins 0x%04X%s", s.st.Pins(), nl)
	return nil
}

// ---- Crate-wide LNA channels ----

// lnaArg resolves an LNA channel to its card, connects that card and
// initialises the channel's sense chip when needed.
func (s *Session) lnaArg() (int, error) {
	n, err := s.intArg("LNA channel (1-" + strconv.Itoa(bias.LNAChannels) + ")")
	if err != nil {
		return 0, err
	}
	card, ch, err := bias.LocateLNA(n)
	if err != nil {
		return 0, err
	}
	if err := s.switchCard(card, false); err != nil {
		return 0, err
	}
	if !s.st.SenseReady(ch) {
		if err := s.st.InitSense(ch, 0); err != nil {
			return 0, err
		}
		s.io.Printf("sense channel %d ready%s", ch, nl)
	}
	return ch, nil
}

func (s *Session) lnaCurrent(ctx context.Context) error {
	ch, err := s.lnaArg()
	if err != nil {
		return err
	}
	return s.searchOn(ctx, ch, types.QuantityCurrent, s.cfg.Search.CurrentTolerance)
}

func (s *Session) lnaVoltage(ctx context.Context) error {
	ch, err := s.lnaArg()
	if err != nil {
		return err
	}
	return s.searchOn(ctx, ch, types.QuantityVoltage, s.cfg.Search.VoltageTolerance)
}

func (s *Session) lnaRead(ctx context.Context) error {
	ch, err := s.lnaArg()
	if err != nil {
		return err
	}
	return s.readOn(ch)
}

// ---- Board test ----

// testBoardWipers are the wiper values each channel is measured at.
var testBoardWipers = [...]uint8{0, 100, 200}

// testBoard walks every channel of a card one confirmed step at a time:
// regulator on, sense chip initialised, then a reading at each test wiper.
// Answering q at any step stops the walk where it is.
func (s *Session) testBoard(ctx context.Context) error {
	if len(s.args) > 0 {
		n, _ := s.intArg("")
		card, err := cardNumber(n)
		if err != nil {
			return err
		}
		if err := s.switchCard(card, false); err != nil {
			return err
		}
	}
	card, ok := s.st.Card()
	if !ok {
		return errcode.New(errcode.NotConnected, "test_board", "no card connected")
	}

	s.io.Printf("card %d: all expander outputs low, board enable high%s", card, nl)
	if err := s.st.SetAllPins(false); err != nil {
		return err
	}
	if err := s.st.SetPin(0, true); err != nil {
		return err
	}

	for n := 1; n <= bias.Channels; n++ {
		c, _ := bias.Locate(n)
		if ok, err := s.confirm(fmt.Sprintf("enable the regulator of channel %d", n)); !ok {
			return err
		}
		if err := s.st.SetPin(c.Enable, true); err != nil {
			return err
		}
		if ok, err := s.confirm(fmt.Sprintf("initialise the sense chip of channel %d", n)); !ok {
			return err
		}
		if err := s.st.InitSense(n, 0); err != nil {
			return err
		}
		for _, w := range testBoardWipers {
			if ok, err := s.confirm(fmt.Sprintf("set pot %d wiper %d of channel %d to %d", c.Pot+1, c.Wiper, n, w)); !ok {
				return err
			}
			if err := s.st.SetChannelWiper(n, w); err != nil {
				return err
			}
			if ok, err := s.confirm(fmt.Sprintf("measure channel %d at wiper %d", n, w)); !ok {
				return err
			}
			r, err := s.st.ReadSense(n)
			if err != nil {
				return err
			}
			s.io.Printf("channel %d wiper %d: current %.3f mA  shunt %.2f mV  bus %.3f V%s",
				n, w, r.CurrentMilliamps, r.ShuntMillivolts, r.BusVolts, nl)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	s.io.Printf("card %d test complete%s", card, nl)
	return nil
}

// confirm waits for the operator to press enter before a step. It returns
// false with a nil error when the operator answered q.
func (s *Session) confirm(step string) (bool, error) {
	s.io.Print("press enter to " + step + " (q stops): ")
	line, err := s.io.ReadAlpha()
	if err != nil {
		return false, inputErr(err)
	}
	if strings.EqualFold(strings.TrimSpace(line), "q") {
		s.io.Println("board test stopped")
		return false, nil
	}
	return true, nil
}

// ---- Console ----

func (s *Session) setEcho(ctx context.Context) error {
	w, err := s.wordArg("echo (on/off)")
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(w)) {
	case "on":
		s.io.SetEcho(true)
	case "off":
		s.io.SetEcho(false)
	default:
		return errcode.New(errcode.InvalidParams, "echo", "expected on or off")
	}
	return nil
}

func (s *Session) status(ctx context.Context) error {
	st := s.st.Status()
	if st.Connected {
		s.io.Printf("card %d connected%s", st.Card, nl)
	} else {
		s.io.Println("no card connected")
	}
	s.io.Printf("pins 0x%04X%s", st.Pins, nl)
	for i, w := range st.Wipers {
		addr, _ := s.st.PotAddress(i)
		s.io.Printf("pot 0x%02X wipers %v%s", addr, w, nl)
	}
	if len(st.Sense) == 0 {
		s.io.Println("no sense channels initialised")
	} else {
		s.io.Printf("sense channels %v%s", st.Sense, nl)
	}
	s.io.Printf("echo %v%s", s.io.Echo(), nl)
	return nil
}

func (s *Session) help(ctx context.Context) error {
	for _, c := range commands {
		s.io.Printf("%2d %-15s %-20s %s%s", c.num, c.name, c.args, c.help, nl)
	}
	s.io.Println("channel arguments also take card:channel, which connects that card first")
	return nil
}
