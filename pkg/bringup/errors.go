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

package bringup

import "fmt"

type ErrNoDummyBit struct {
	Addr uint8
}

func (e ErrNoDummyBit) Error() string {
	return fmt.Sprintf("ID PROM did not answer reading word %d", e.Addr)
}

type ErrBadImage struct {
	What string
}

func (e ErrBadImage) Error() string {
	return fmt.Sprintf("PLD image: %s", e.What)
}

type ErrConfig struct {
	What string
}

func (e ErrConfig) Error() string {
	return fmt.Sprintf("PLD configuration: %s", e.What)
}
