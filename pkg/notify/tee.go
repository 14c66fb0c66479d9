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

package notify

import (
	"context"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
)

// Tee creates one signal from every signaller and sends to all of them.
// The first signaller decides the code and, when it can, the waiting.
type Tee []ifc.Signaller

var _ ifc.Signaller = Tee{}

type teeSignal []ifc.Signal

func (t Tee) Create(code uint32) (ifc.Signal, error) {
	sigs := make(teeSignal, 0, len(t))
	for _, s := range t {
		sig, err := s.Create(code)
		if err != nil {
			sigs.Remove()
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

func (t teeSignal) Code() uint32 {
	if len(t) == 0 {
		return 0
	}
	return t[0].Code()
}

func (t teeSignal) Send() {
	for _, s := range t {
		s.Send()
	}
}

func (t teeSignal) Remove() error {
	var first error
	for _, s := range t {
		if err := s.Remove(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t teeSignal) Wait(ctx context.Context) error {
	for _, s := range t {
		if w, ok := s.(Waiter); ok {
			return w.Wait(ctx)
		}
	}
	return ErrNotWaitable{}
}

type ErrNotWaitable struct{}

func (e ErrNotWaitable) Error() string {
	return "signal can not be waited on"
}
