package bias

import (
	"math"
	"sync"

	"biasboard-go/drivers/ad5144"
	"biasboard-go/drivers/ina219"
	"biasboard-go/drivers/ltc4302"
	"biasboard-go/errcode"
	"biasboard-go/services/config"
	"biasboard-go/services/transport"
)

// Simulated card electrics: each regulator spans simMinVolts..simMaxVolts
// over the wiper range into a simLoadOhms load through a simShuntOhms shunt.
const (
	simMinVolts  = 1.2
	simMaxVolts  = 12.0
	simLoadOhms  = 1000.0
	simShuntOhms = 0.1
)

// card is the simulated bus behind one repeater.
type card struct {
	pins   uint16
	wipers map[uint16]*[ad5144.Channels]uint8
}

type simulator struct {
	mu      sync.Mutex
	cfg     config.Config
	cards   map[uint8]*card
	current *card
}

// Simulate returns a recording bus that emulates a rack of bias cards
// strapped as cfg describes. Devices behind a repeater NACK until their
// card is connected. Bus voltage follows the channel's wiper when the board
// and channel enables are high.
func Simulate(cfg config.Config) *transport.Recorder {
	sim := &simulator{cfg: cfg, cards: make(map[uint8]*card)}
	rec := transport.NewRecorder()
	rec.OnReply(sim.reply)
	return rec
}

func (s *simulator) reply(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.cfg.Repeater.Base
	if addr >= base && addr < base+32 && len(w) == 1 {
		n := uint8(addr - base)
		switch w[0] {
		case ltc4302.CmdConnect:
			s.current = s.cardAt(n)
		case ltc4302.CmdDisconnect:
			if s.current == s.cards[n] {
				s.current = nil
			}
		}
		return nil
	}
	c := s.current
	if c == nil {
		return errcode.StatusAddrNACK
	}

	switch {
	case addr == s.cfg.Expander.Address:
		if len(w) == 2 {
			c.pins = uint16(w[0]) | uint16(w[1])<<8
		}
		return nil
	case s.isPot(addr):
		if len(w) == 2 && w[0] >= ad5144.CmdWriteRDAC && w[0] < ad5144.CmdWriteRDAC+ad5144.Channels {
			c.pot(addr)[w[0]-ad5144.CmdWriteRDAC] = w[1]
		}
		return nil
	case addr >= s.cfg.Sense.Base && addr < s.cfg.Sense.Base+Channels:
		if len(r) == 2 && len(w) >= 1 {
			v := s.register(c, int(addr-s.cfg.Sense.Base)+1, w[0])
			r[0], r[1] = byte(v>>8), byte(v)
		}
		return nil
	}
	return errcode.StatusAddrNACK
}

// register returns the raw content of register reg of channel n's sense chip.
func (s *simulator) register(c *card, n int, reg byte) uint16 {
	volts := s.volts(c, n)
	milliamps := volts / simLoadOhms * 1000
	switch reg {
	case ina219.RegShunt:
		return uint16(int16(math.Round(milliamps * simShuntOhms / 0.01)))
	case ina219.RegBus:
		return uint16(math.Round(volts*1000/4)) << 3
	case ina219.RegCurrent:
		return uint16(int16(math.Round(milliamps * 10 * s.cfg.Sense.Divider)))
	case ina219.RegCalibration:
		return ina219.CalibrationWord
	case ina219.RegConfig:
		return ina219.ConfigWord
	}
	return 0
}

func (s *simulator) volts(c *card, n int) float64 {
	ch, err := Locate(n)
	if err != nil || ch.Pot >= len(s.cfg.Pots) {
		return 0
	}
	if c.pins&1 == 0 || c.pins&(1<<ch.Enable) == 0 {
		return 0
	}
	w := c.pot(s.cfg.Pots[ch.Pot].Address)[ch.Wiper]
	return simMinVolts + float64(w)*(simMaxVolts-simMinVolts)/255
}

func (s *simulator) isPot(addr uint16) bool {
	for _, p := range s.cfg.Pots {
		if p.Address == addr {
			return true
		}
	}
	return false
}

func (s *simulator) cardAt(n uint8) *card {
	c, ok := s.cards[n]
	if !ok {
		c = &card{wipers: make(map[uint16]*[ad5144.Channels]uint8)}
		s.cards[n] = c
	}
	return c
}

func (c *card) pot(addr uint16) *[ad5144.Channels]uint8 {
	p, ok := c.wipers[addr]
	if !ok {
		p = new([ad5144.Channels]uint8)
		c.wipers[addr] = p
	}
	return p
}
