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
	"fmt"
)

// ErrLineFull returned when no more handlers can share the line
type ErrLineFull struct {
	Line string
	Max  int
}

func (e ErrLineFull) Error() string {
	return fmt.Sprintf("Interrupt line %s already has %d handlers", e.Line, e.Max)
}

// ErrHandlerExists returned when a handler name is attached twice
type ErrHandlerExists struct {
	Line string
	Name string
}

func (e ErrHandlerExists) Error() string {
	return fmt.Sprintf("Handler %s is already attached to interrupt line %s", e.Name, e.Line)
}
