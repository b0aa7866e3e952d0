package bias

import (
	"strconv"

	"biasboard-go/errcode"
)

// Channels is the number of bias channels on one card.
const Channels = 8

// Channel locates the parts serving one bias channel on a card.
type Channel struct {
	N      int   // 1..Channels
	Pot    int   // index into the configured pots
	Wiper  uint8 // 0..3
	Sense  uint16
	Enable uint8 // expander pin switching the channel regulator
}

// boardEnablePin powers the card's shared rail.
const boardEnablePin = 0

// Locate maps channel n (1..8) to its pot, wiper, sense chip offset and
// regulator pin. Channels 1-4 use the first pot, 5-8 the second.
func Locate(n int) (Channel, error) {
	if n < 1 || n > Channels {
		return Channel{}, errcode.New(errcode.InvalidParams, "channel", "channel must be 1.."+strconv.Itoa(Channels)+", got "+strconv.Itoa(n))
	}
	return Channel{
		N:      n,
		Pot:    (n - 1) / 4,
		Wiper:  uint8((n - 1) % 4),
		Sense:  uint16(n - 1),
		Enable: uint8(n),
	}, nil
}

// MaxCard is the highest card address a repeater can be strapped to.
const MaxCard = 31

// A crate holds Cards bias cards; LNA channels 1..LNAChannels number their
// channels consecutively, card 1 first.
const (
	Cards       = 18
	LNAChannels = Cards * Channels
)

// LocateLNA maps crate-wide LNA channel n to its card and card channel:
// card ceil(n/8), channel (n-1)%8 + 1.
func LocateLNA(n int) (card uint8, ch int, err error) {
	if n < 1 || n > LNAChannels {
		return 0, 0, errcode.New(errcode.InvalidParams, "lna", "LNA channel must be 1.."+strconv.Itoa(LNAChannels)+", got "+strconv.Itoa(n))
	}
	return uint8((n + Channels - 1) / Channels), (n-1)%Channels + 1, nil
}
