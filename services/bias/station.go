// Package bias holds the state of one operator session against a bias card
// and the typed commands issued to its peripherals.
//
// A Station is constructed once per session and owns every piece of shadow
// state: the connected card, the expander pins, the remembered wiper values
// and the table of initialised sense chips. It is single-threaded; the
// session goroutine is its only caller, which is also what keeps bus
// transactions from interleaving.
package bias

import (
	"sort"
	"strconv"

	"biasboard-go/drivers/ad5144"
	"biasboard-go/drivers/ina219"
	"biasboard-go/drivers/ltc4302"
	"biasboard-go/drivers/pcf8575"
	"biasboard-go/errcode"
	"biasboard-go/services/config"
	"biasboard-go/types"

	"tinygo.org/x/drivers"
)

// Station is the session context.
type Station struct {
	bus      drivers.I2C
	repeater *ltc4302.Device
	expander *pcf8575.Device
	pots     []*ad5144.Device
	extra    map[uint16]*ad5144.Device // pots addressed outside the configured list

	senseBase uint16
	senseCfg  ina219.Config
	sense     map[int]*ina219.Device // by bias channel

	card      uint8
	connected bool
}

func New(bus drivers.I2C, cfg config.Config) *Station {
	s := &Station{
		bus:       bus,
		repeater:  ltc4302.New(bus, cfg.Repeater.Base),
		expander:  pcf8575.New(bus, cfg.Expander.Address),
		extra:     make(map[uint16]*ad5144.Device),
		senseBase: cfg.Sense.Base,
		senseCfg:  ina219.Config{Divider: cfg.Sense.Divider, Average: cfg.Sense.Average},
		sense:     make(map[int]*ina219.Device),
	}
	for _, p := range cfg.Pots {
		s.pots = append(s.pots, ad5144.New(bus, p.Address))
	}
	return s
}

// ---- Bus arbitration ----

// RepeaterAddress is the bus address used to reach card's repeater.
func (s *Station) RepeaterAddress(card uint8) uint16 { return s.repeater.Address(card) }

// Card returns the connected card, if any.
func (s *Station) Card() (uint8, bool) { return s.card, s.connected }

// Connect joins card's bus. It does not disconnect a previously connected
// card and leaves the expander shadow alone; callers switching cards call
// Disconnect first.
func (s *Station) Connect(card uint8) error {
	if err := s.repeater.Connect(card); err != nil {
		return err
	}
	s.card, s.connected = card, true
	return nil
}

// Disconnect separates card's bus. On success the expander shadow is
// cleared and the sense handles dropped: both describe chips behind the
// repeater just closed.
func (s *Station) Disconnect(card uint8) error {
	if err := s.repeater.Disconnect(card); err != nil {
		return err
	}
	s.expander.Reset()
	clear(s.sense)
	if s.connected && s.card == card {
		s.connected = false
	}
	return nil
}

// ---- Expander ----

func (s *Station) SetPin(pin uint8, high bool) error { return s.expander.SetPin(pin, high) }

// SetAllPins writes 0xFFFF or 0x0000.
func (s *Station) SetAllPins(high bool) error { return s.expander.SetAll(high) }

// Pins returns the expander shadow.
func (s *Station) Pins() uint16 { return s.expander.State() }

// ---- Potentiometers ----

// Pots is the number of configured pots.
func (s *Station) Pots() int { return len(s.pots) }

// PotAddress returns the bus address of configured pot i.
func (s *Station) PotAddress(i int) (uint16, bool) {
	if i < 0 || i >= len(s.pots) {
		return 0, false
	}
	return s.pots[i].Address, true
}

// SetWiper writes value to channel ch of the pot at addr.
func (s *Station) SetWiper(addr uint16, ch, value uint8) error {
	return s.pot(addr).SetWiper(ch, value)
}

// SetChannelWiper writes the wiper serving bias channel n.
func (s *Station) SetChannelWiper(n int, value uint8) error {
	pot, c, err := s.channelPot(n)
	if err != nil {
		return err
	}
	return pot.SetWiper(c.Wiper, value)
}

// ChannelWiper returns the last value written to bias channel n's wiper.
func (s *Station) ChannelWiper(n int) (uint8, error) {
	pot, c, err := s.channelPot(n)
	if err != nil {
		return 0, err
	}
	return pot.Wiper(c.Wiper), nil
}

// ZeroPots writes 0 to every wiper of every configured pot.
func (s *Station) ZeroPots() error {
	for _, p := range s.pots {
		if err := p.Zero(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Station) pot(addr uint16) *ad5144.Device {
	for _, p := range s.pots {
		if p.Address == addr {
			return p
		}
	}
	p, ok := s.extra[addr]
	if !ok {
		p = ad5144.New(s.bus, addr)
		s.extra[addr] = p
	}
	return p
}

func (s *Station) channelPot(n int) (*ad5144.Device, Channel, error) {
	c, err := Locate(n)
	if err != nil {
		return nil, c, err
	}
	if c.Pot >= len(s.pots) {
		return nil, c, errcode.New(errcode.InvalidParams, "channel", "no pot configured for channel "+strconv.Itoa(n))
	}
	return s.pots[c.Pot], c, nil
}

// ---- Sense ----

// InitSense configures the sense chip of channel n and records its handle.
// divider <= 0 selects the configured default. A failed configuration
// leaves the previous handle, if any, in place.
func (s *Station) InitSense(n int, divider float64) error {
	c, err := Locate(n)
	if err != nil {
		return err
	}
	cfg := s.senseCfg
	if divider > 0 {
		cfg.Divider = divider
	}
	dev := ina219.New(s.bus, s.senseBase+c.Sense, cfg)
	if err := dev.Configure(); err != nil {
		return err
	}
	s.sense[n] = dev
	return nil
}

// ReadSense samples shunt voltage, bus voltage and current of channel n.
// An uninitialised channel fails with NotInitialized before touching the bus.
func (s *Station) ReadSense(n int) (types.SenseReading, error) {
	dev, err := s.senseHandle(n, "read_iv")
	if err != nil {
		return types.SenseReading{}, err
	}
	return dev.Read()
}

// Measure samples only the quantity q of channel n.
func (s *Station) Measure(n int, q types.Quantity) (float64, error) {
	dev, err := s.senseHandle(n, "measure")
	if err != nil {
		return 0, err
	}
	if q == types.QuantityVoltage {
		return dev.BusVolts()
	}
	return dev.CurrentMilliamps()
}

// SenseReady reports whether channel n has a sense handle.
func (s *Station) SenseReady(n int) bool {
	_, ok := s.sense[n]
	return ok
}

func (s *Station) senseHandle(n int, op string) (*ina219.Device, error) {
	if _, err := Locate(n); err != nil {
		return nil, err
	}
	dev, ok := s.sense[n]
	if !ok {
		return nil, errcode.New(errcode.NotInitialized, op, "sense channel "+strconv.Itoa(n)+" not initialised")
	}
	return dev, nil
}

// ---- Whole card ----

// InitBoard brings a freshly connected card up: all pins low, board enable
// high, then per channel its sense chip initialised and its regulator
// enabled, finally every wiper at 0. It stops at the first failure.
func (s *Station) InitBoard(divider float64) error {
	if err := s.expander.SetAll(false); err != nil {
		return err
	}
	if err := s.expander.SetPin(boardEnablePin, true); err != nil {
		return err
	}
	for n := 1; n <= Channels; n++ {
		c, _ := Locate(n)
		if err := s.InitSense(n, divider); err != nil {
			return err
		}
		if err := s.expander.SetPin(c.Enable, true); err != nil {
			return err
		}
	}
	return s.ZeroPots()
}

// Status snapshots the shadow state.
func (s *Station) Status() types.StationStatus {
	st := types.StationStatus{Connected: s.connected, Card: s.card, Pins: s.expander.State()}
	for _, p := range s.pots {
		st.Wipers = append(st.Wipers, p.Wipers())
	}
	for n := range s.sense {
		st.Sense = append(st.Sense, n)
	}
	sort.Ints(st.Sense)
	return st
}
