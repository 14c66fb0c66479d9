/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package irq

import (
	"context"
	"encoding/binary"
	"time"

	"golang.org/x/sys/unix"

	"jinr.ru/greenlab/go-m72/pkg/log"
)

// UIO delivers interrupts of a userspace I/O device node to a Line.
// Reading the node blocks until the next interrupt and returns the total
// event count; writing 1 re-enables the interrupt.
type UIO struct {
	Path string
	fd   int
	line *Line
	last uint32
}

// OpenUIO ...
func OpenUIO(path string, line *Line) (*UIO, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &UIO{Path: path, fd: fd, line: line}, nil
}

func (u *UIO) enable() error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, 1)
	_, err := unix.Write(u.fd, b)
	return err
}

// Run waits for interrupts until the context is done or the node fails
func (u *UIO) Run(ctx context.Context) error {
	if err := u.enable(); err != nil {
		return err
	}
	b := make([]byte, 4)
	pfd := []unix.PollFd{{Fd: int32(u.fd), Events: unix.POLLIN}}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// poll with a timeout so the context is honoured
		n, err := unix.Poll(pfd, int((100 * time.Millisecond).Milliseconds()))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if _, err = unix.Read(u.fd, b); err != nil {
			return err
		}
		total := binary.LittleEndian.Uint32(b)
		if total-u.last > 1 && u.last != 0 {
			log.Debug("UIO %s: %d interrupts coalesced", u.Path, total-u.last)
		}
		u.last = total
		u.line.Raise()
		if err = u.enable(); err != nil {
			return err
		}
	}
}

// Close ...
func (u *UIO) Close() error {
	return unix.Close(u.fd)
}

// Poll raises the line periodically for register files without an
// interrupt. Handlers report "not mine" when nothing is pending.
func Poll(ctx context.Context, line *Line, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			line.Raise()
		}
	}
}
