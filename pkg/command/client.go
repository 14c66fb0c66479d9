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
	"net/http"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-m72/pkg/command/ifc"
	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/device"
	"jinr.ru/greenlab/go-m72/pkg/srv/control"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.Server.IP, cfg.Server.ApiPort),
	}
}

func (c *ApiClient) statUrl(ch int) string {
	return fmt.Sprintf("%s/stat/%d", c.ApiPrefix, ch)
}

func (c *ApiClient) counterUrl(ch int) string {
	return fmt.Sprintf("%s/counter/%d", c.ApiPrefix, ch)
}

func (c *ApiClient) signalUrl(ch int, kind string) string {
	return fmt.Sprintf("%s/signal/%d/%s", c.ApiPrefix, ch, kind)
}

// check turns a non 2xx response into ErrApi and decodes the body into out
func check(r *req.Resp, err error, out interface{}) error {
	if err != nil {
		return err
	}
	code := r.Response().StatusCode
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return ErrApi{Status: code, Message: r.String()}
	}
	if out == nil {
		return nil
	}
	return r.ToJSON(out)
}

// Info ...
func (c *ApiClient) Info() (*device.Info, error) {
	info := &device.Info{}
	r, err := req.Get(fmt.Sprintf("%s/info", c.ApiPrefix))
	if err := check(r, err, info); err != nil {
		return nil, err
	}
	return info, nil
}

// StatGet reads a status code given by name or number
func (c *ApiClient) StatGet(ch int, code string) (uint32, error) {
	stat := &control.StatValue{}
	r, err := req.Get(fmt.Sprintf("%s/%s", c.statUrl(ch), code))
	if err := check(r, err, stat); err != nil {
		return 0, err
	}
	return stat.Value, nil
}

func (c *ApiClient) StatSet(ch int, code string, value uint32) error {
	stat := &control.StatValue{Code: code, Value: value}
	r, err := req.Post(c.statUrl(ch), req.BodyJSON(stat))
	return check(r, err, nil)
}

// StatDump reads every readable status code of a channel
func (c *ApiClient) StatDump(ch int) (map[string]uint32, error) {
	snap := map[string]uint32{}
	r, err := req.Get(c.statUrl(ch))
	if err := check(r, err, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *ApiClient) CounterRead(ch int) (uint32, error) {
	v := &control.CounterValue{}
	r, err := req.Get(c.counterUrl(ch))
	if err := check(r, err, v); err != nil {
		return 0, err
	}
	return v.Value, nil
}

func (c *ApiClient) CounterWrite(ch int, value uint32) error {
	r, err := req.Post(c.counterUrl(ch), req.BodyJSON(&control.CounterValue{Value: value}))
	return check(r, err, nil)
}

func (c *ApiClient) SignalInstall(ch int, kind string, code uint32) error {
	r, err := req.Post(c.signalUrl(ch, kind), req.BodyJSON(&control.SignalSetup{Code: code}))
	return check(r, err, nil)
}

func (c *ApiClient) SignalRemove(ch int, kind string) error {
	r, err := req.Delete(c.signalUrl(ch, kind))
	return check(r, err, nil)
}

// SignalWait blocks until the signal is sent. A zero timeout waits forever.
func (c *ApiClient) SignalWait(ch int, kind string, timeoutMs uint32) error {
	r, err := req.Get(c.signalUrl(ch, kind)+"/wait", req.QueryParam{"timeout": timeoutMs})
	return check(r, err, nil)
}

func (c *ApiClient) Pretrig() (bool, uint32, error) {
	setup := &control.PretrigSetup{}
	r, err := req.Get(fmt.Sprintf("%s/pretrig", c.ApiPrefix))
	if err := check(r, err, setup); err != nil {
		return false, 0, err
	}
	var enabled bool
	var offset uint32
	if setup.Enabled != nil {
		enabled = *setup.Enabled
	}
	if setup.Offset != nil {
		offset = *setup.Offset
	}
	return enabled, offset, nil
}

// PretrigSet changes the fields that are not nil
func (c *ApiClient) PretrigSet(enabled *bool, offset *uint32) error {
	setup := &control.PretrigSetup{Enabled: enabled, Offset: offset}
	r, err := req.Post(fmt.Sprintf("%s/pretrig", c.ApiPrefix), req.BodyJSON(setup))
	return check(r, err, nil)
}

// RegRead sends request to get the last written value of a register
func (c *ApiClient) RegRead(addr string) (string, error) {
	reg := &control.RegHex{}
	r, err := req.Get(fmt.Sprintf("%s/reg/%s", c.ApiPrefix, addr))
	if err := check(r, err, reg); err != nil {
		return "", err
	}
	return reg.Value, nil
}

// RegReadAll sends request to get values of all written registers
func (c *ApiClient) RegReadAll() (map[string]string, error) {
	var regs []*control.RegHex
	r, err := req.Get(fmt.Sprintf("%s/reg", c.ApiPrefix))
	if err := check(r, err, &regs); err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for _, reg := range regs {
		result[reg.Addr] = reg.Value
	}
	return result, nil
}
