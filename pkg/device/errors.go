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

package device

import (
	"fmt"
)

// ErrInvalidParameter returned when a value is out of range or a
// combination is not supported. Nothing is written to the hardware.
type ErrInvalidParameter struct {
	What string
}

func (e ErrInvalidParameter) Error() string {
	return fmt.Sprintf("Invalid parameter: %s", e.What)
}

// ErrIdentityMismatch returned when the ID PROM or the PLD load fails
type ErrIdentityMismatch struct {
	What string
	Err  error
}

func (e ErrIdentityMismatch) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Identity check failed: %s: %s", e.What, e.Err)
	}
	return fmt.Sprintf("Identity check failed: %s", e.What)
}

func (e ErrIdentityMismatch) Unwrap() error {
	return e.Err
}

// ErrResourceExhaustion returned when a device resource can not be acquired
type ErrResourceExhaustion struct {
	What string
	Err  error
}

func (e ErrResourceExhaustion) Error() string {
	return fmt.Sprintf("Can not acquire %s: %s", e.What, e.Err)
}

func (e ErrResourceExhaustion) Unwrap() error {
	return e.Err
}

// ErrTimeout returned when a wait mode read gets no ready interrupt in time
type ErrTimeout struct {
	Ch      int
	Timeout uint32
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("Channel %d: no ready interrupt within %d ms", e.Ch, e.Timeout)
}

// ErrUnsupportedOperation returned for block I/O and unknown status codes
type ErrUnsupportedOperation struct {
	What string
}

func (e ErrUnsupportedOperation) Error() string {
	return fmt.Sprintf("Unsupported operation: %s", e.What)
}

// ErrSignalConflict returned when a notification slot is already occupied
type ErrSignalConflict struct {
	Ch   int
	Kind SignalKind
}

func (e ErrSignalConflict) Error() string {
	return fmt.Sprintf("Channel %d: %s signal already installed", e.Ch, e.Kind)
}

// ErrSignalNotInstalled returned when removing an empty notification slot
type ErrSignalNotInstalled struct {
	Ch   int
	Kind SignalKind
}

func (e ErrSignalNotInstalled) Error() string {
	return fmt.Sprintf("Channel %d: %s signal not installed", e.Ch, e.Kind)
}

// ErrClosed returned by every call after Close
type ErrClosed struct{}

func (e ErrClosed) Error() string {
	return "Device is closed"
}
