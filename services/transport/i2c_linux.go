//go:build linux && !(rp2040 || rp2350)

package transport

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"biasboard-go/errcode"

	"golang.org/x/sys/unix"
)

// i2c-dev ioctl ABI (linux/i2c-dev.h, linux/i2c.h).
const (
	ioctlI2CRDWR = 0x0707
	i2cMsgRead   = 0x0001
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   *byte
}

type i2cRdwrData struct {
	msgs  *i2cMsg
	nmsgs uint32
}

// LinuxI2C is an i2c-dev character device. Each Tx is one I2C_RDWR ioctl,
// so a write followed by a read uses a repeated start.
type LinuxI2C struct {
	mu   sync.Mutex
	fd   int
	path string
}

// Open opens device (e.g. /dev/i2c-0). A non-zero speedHz is written to the
// adapter's sysfs speed attribute when that attribute exists and differs.
// "periph:<name>" opens the bus through periph.io's registry instead.
func Open(device string, speedHz uint32) (Bus, error) {
	if name, ok := strings.CutPrefix(device, periphPrefix); ok {
		return openPeriph(name, speedHz)
	}
	if speedHz != 0 {
		if err := ensureSpeed(device, speedHz); err != nil {
			return nil, err
		}
	}
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", device, err)
	}
	return &LinuxI2C{fd: fd, path: device}, nil
}

func (b *LinuxI2C) Tx(addr uint16, w, r []byte) error {
	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{addr: addr, len: uint16(len(w)), buf: &w[0]}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{addr: addr, flags: i2cMsgRead, len: uint16(len(r)), buf: &r[0]}
		n++
	}
	if n == 0 {
		return errcode.StatusOther
	}
	data := i2cRdwrData{msgs: &msgs[0], nmsgs: uint32(n)}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), ioctlI2CRDWR, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	if errno != 0 {
		return errcode.Status(errno)
	}
	return nil
}

func (b *LinuxI2C) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}

func ensureSpeed(device string, hz uint32) error {
	attr := filepath.Join("/sys/bus/i2c/devices", filepath.Base(device), "device", "speed")
	cur, err := os.ReadFile(attr)
	if err != nil {
		// Adapter without a speed attribute: keep the kernel setting.
		return nil
	}
	if v, err := strconv.ParseUint(strings.TrimSpace(string(cur)), 10, 32); err == nil && uint32(v) == hz {
		return nil
	}
	if err := os.WriteFile(attr, []byte(strconv.FormatUint(uint64(hz), 10)), 0o644); err != nil {
		return fmt.Errorf("transport: set %s: %w", attr, err)
	}
	return nil
}
