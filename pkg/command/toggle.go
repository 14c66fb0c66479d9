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

package command

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"jinr.ru/greenlab/go-m72/pkg/command/ifc"
)

// DefaultTogglePeriod is the auto toggle period in milliseconds
const DefaultTogglePeriod = 1730

// TogglePretrig flips the pretrigger on every key press, or every period
// when auto is set, until q is pressed. The terminal is in raw mode
// meanwhile.
func TogglePretrig(c ifc.ApiClient, in *os.File, out io.Writer, auto bool, period time.Duration) error {
	var canAttr, rawAttr unix.Termios
	if err := termios.Tcgetattr(in.Fd(), &canAttr); err != nil {
		return err
	}
	rawAttr = canAttr
	termios.Cfmakeraw(&rawAttr)
	if err := termios.Tcsetattr(in.Fd(), termios.TCIFLUSH, &rawAttr); err != nil {
		return err
	}
	defer termios.Tcsetattr(in.Fd(), termios.TCIFLUSH, &canAttr)

	keys := make(chan byte)
	done := make(chan struct{})
	defer close(done)
	go readKeys(in, keys, done)

	var tick <-chan time.Time
	if auto {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}
	return toggleLoop(c, keys, tick, out)
}

// readKeys forwards single bytes from in until a read fails or done is
// closed. keys is closed on return. A read already blocked on in is not
// interrupted, but the byte it returns is dropped once done is closed.
func readKeys(in io.Reader, keys chan<- byte, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		if n, err := in.Read(buf); err != nil || n == 0 {
			return
		}
		select {
		case keys <- buf[0]:
		case <-done:
			return
		}
	}
}

func toggleLoop(c ifc.ApiClient, keys <-chan byte, tick <-chan time.Time, out io.Writer) error {
	enabled, offset, err := c.Pretrig()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pretrigger %s, offset %d; any key toggles, q quits\r\n", onOff(enabled), offset)
	for {
		select {
		case k, ok := <-keys:
			if !ok || k == 'q' || k == 'Q' || k == 3 {
				return nil
			}
		case <-tick:
		}
		enabled = !enabled
		if err := c.PretrigSet(&enabled, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "pretrigger %s\r\n", onOff(enabled))
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
