package transport

import (
	"sync"

	"biasboard-go/errcode"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*Recorder)(nil)

// Tx is one recorded transaction.
type Tx struct {
	Addr uint16
	W    []byte
	Rn   int
	Err  error
}

// ReplyFunc fills r for a transaction to addr after writing w. A non-nil
// error fails the transaction the way an absent device would.
type ReplyFunc func(addr uint16, w, r []byte) error

// Recorder is an in-memory bus for host runs and tests. It logs every
// transaction, fails the ones addressed to a faulted address and lets a
// ReplyFunc emulate devices.
type Recorder struct {
	mu     sync.Mutex
	log    []Tx
	faults map[uint16]errcode.Status
	reply  ReplyFunc
}

func NewRecorder() *Recorder {
	return &Recorder{faults: make(map[uint16]errcode.Status)}
}

// OnReply installs the device emulation used for reads and writes.
func (r *Recorder) OnReply(fn ReplyFunc) {
	r.mu.Lock()
	r.reply = fn
	r.mu.Unlock()
}

// Fault makes every transaction to addr fail with st until Heal.
func (r *Recorder) Fault(addr uint16, st errcode.Status) {
	r.mu.Lock()
	r.faults[addr] = st
	r.mu.Unlock()
}

func (r *Recorder) Heal(addr uint16) {
	r.mu.Lock()
	delete(r.faults, addr)
	r.mu.Unlock()
}

func (r *Recorder) Tx(addr uint16, w, rd []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := Tx{Addr: addr, W: append([]byte(nil), w...), Rn: len(rd)}
	if st, ok := r.faults[addr]; ok {
		rec.Err = st
		r.log = append(r.log, rec)
		return st
	}
	for i := range rd {
		rd[i] = 0
	}
	if r.reply != nil {
		rec.Err = r.reply(addr, w, rd)
	}
	r.log = append(r.log, rec)
	return rec.Err
}

// Log returns a copy of every transaction so far.
func (r *Recorder) Log() []Tx {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Tx(nil), r.log...)
}

// To returns the transactions addressed to addr.
func (r *Recorder) To(addr uint16) []Tx {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Tx
	for _, t := range r.log {
		if t.Addr == addr {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of recorded transactions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.log)
}

// Clear forgets the log; faults and emulation stay.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.log = nil
	r.mu.Unlock()
}

func (r *Recorder) Close() error { return nil }
