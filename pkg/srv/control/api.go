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

package control

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/device"
	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/notify"
	"jinr.ru/greenlab/go-m72/pkg/srv/control/ifc"
)

//go:embed swagger.json
var swaggerJSON []byte

// StatValue is a status code by name and its value
type StatValue struct {
	Code  string `json:"code"`
	Value uint32 `json:"value"`
}

type CounterValue struct {
	Value uint32 `json:"value"`
}

type SignalSetup struct {
	Code uint32 `json:"code"`
}

// PretrigSetup fields left out of a request are not changed
type PretrigSetup struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Offset  *uint32 `json:"offset,omitempty"`
}

// RegHex ...
type RegHex struct {
	Addr  string `json:"addr"`  // hexadecimal
	Value string `json:"value"` // hexadecimal
}

func NewRegHex(addr, value uint16) *RegHex {
	return &RegHex{Addr: fmt.Sprintf("0x%02x", addr), Value: fmt.Sprintf("0x%04x", value)}
}

type ApiServer struct {
	context.Context
	*config.Config
	router  *mux.Router
	ctrl    ifc.ControlServer
	handler http.Handler
}

var _ ifc.ApiServer = &ApiServer{}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl ifc.ControlServer) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.Server.IP, cfg.Server.ApiPort)

	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "")
	if err != nil {
		return nil, fmt.Errorf("API document: %w", err)
	}
	log.Debug("API document %s %s", doc.Spec().Info.Title, doc.Version())

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		ctrl:    ctrl,
	}
	s.configureRouter()
	docs := middleware.Redoc(middleware.RedocOpts{
		BasePath: "/",
		Path:     "docs",
		SpecURL:  "/api/swagger.json",
		Title:    "go-m72 API",
	}, s.router)
	s.handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.LoggingHandler(log.Writer(), docs))
	return s, nil
}

// Handler returns the complete HTTP handler
func (s *ApiServer) Handler() http.Handler {
	return s.handler
}

// Run serves until the context is done
func (s *ApiServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.IP, s.Config.Server.ApiPort)
	log.Info("Starting API server: address: %s", addr)
	httpServer := &http.Server{
		Handler: s.handler,
		Addr:    addr,
	}
	go func() {
		<-s.Context.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
	}()
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return s.Context.Err()
}

func (s *ApiServer) configureRouter() {
	s.router = mux.NewRouter()
	subRouter := s.router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /info info
	subRouter.HandleFunc("/info", s.handleInfo()).Methods("GET")
	subRouter.HandleFunc("/swagger.json", s.handleSwagger()).Methods("GET")
	// swagger:operation GET /stat/{ch} snapshot of a channel
	subRouter.HandleFunc("/stat/{ch:[0-9]+}", s.handleSnapshot()).Methods("GET")
	subRouter.HandleFunc("/stat/{ch:[0-9]+}", s.handleStatSet()).Methods("POST")
	subRouter.HandleFunc("/stat/{ch:[0-9]+}/{code}", s.handleStatGet()).Methods("GET")
	subRouter.HandleFunc("/counter/{ch:[0-9]+}", s.handleCounterRead()).Methods("GET")
	subRouter.HandleFunc("/counter/{ch:[0-9]+}", s.handleCounterWrite()).Methods("POST")
	subRouter.HandleFunc("/signal/{ch:[0-9]+}/{kind}", s.handleSignalSet()).Methods("POST")
	subRouter.HandleFunc("/signal/{ch:[0-9]+}/{kind}", s.handleSignalClear()).Methods("DELETE")
	subRouter.HandleFunc("/signal/{ch:[0-9]+}/{kind}/wait", s.handleSignalWait()).Methods("GET")
	subRouter.HandleFunc("/pretrig", s.handlePretrigGet()).Methods("GET")
	subRouter.HandleFunc("/pretrig", s.handlePretrigSet()).Methods("POST")
	subRouter.HandleFunc("/reg", s.handleRegReadAll()).Methods("GET")
	subRouter.HandleFunc("/reg/{addr:0x[0-9a-fA-F]+}", s.handleRegRead()).Methods("GET")
}

// httpStatus maps device and server errors to HTTP codes
func httpStatus(err error) int {
	switch {
	case errors.As(err, &device.ErrInvalidParameter{}), errors.As(err, &ErrNotWaitable{}):
		return http.StatusBadRequest
	case errors.As(err, &device.ErrUnsupportedOperation{}):
		return http.StatusMethodNotAllowed
	case errors.As(err, &device.ErrSignalConflict{}):
		return http.StatusConflict
	case errors.As(err, &device.ErrTimeout{}), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &device.ErrSignalNotInstalled{}), errors.As(err, &notify.ErrRemoved{}),
		errors.As(err, &ErrNotFound{}):
		return http.StatusNotFound
	case errors.As(err, &device.ErrClosed{}):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), httpStatus(err))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Encoding response: %s", err)
	}
}

func channelVar(r *http.Request) (int, error) {
	ch, err := strconv.Atoi(mux.Vars(r)["ch"])
	if err != nil {
		return 0, device.ErrInvalidParameter{What: fmt.Sprintf("channel %q", mux.Vars(r)["ch"])}
	}
	return ch, nil
}

func (s *ApiServer) handleInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.ctrl.Info())
	}
}

func (s *ApiServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	}
}

func (s *ApiServer) handleSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		snap, err := s.ctrl.Snapshot(ch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func (s *ApiServer) handleStatGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		code, err := device.ParseStatCode(mux.Vars(r)["code"])
		if err != nil {
			writeError(w, err)
			return
		}
		log.Debug("Handling stat get request: ch: %d code: %s", ch, code)
		v, err := s.ctrl.GetStat(ch, code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &StatValue{Code: code.Name(), Value: v})
	}
}

func (s *ApiServer) handleStatSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		stat := &StatValue{}
		if err := json.NewDecoder(r.Body).Decode(stat); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		code, err := device.ParseStatCode(stat.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Debug("Handling stat set request: ch: %d code: %s value: %d", ch, code, stat.Value)
		if err := s.ctrl.SetStat(ch, code, stat.Value); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &StatValue{Code: code.Name(), Value: stat.Value})
	}
}

func (s *ApiServer) handleCounterRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		v, err := s.ctrl.ReadCounter(r.Context(), ch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &CounterValue{Value: v})
	}
}

func (s *ApiServer) handleCounterWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelVar(r)
		if err != nil {
			writeError(w, err)
			return
		}
		v := &CounterValue{}
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.WriteCounter(ch, v.Value); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

func signalVars(r *http.Request) (int, device.SignalKind, error) {
	ch, err := channelVar(r)
	if err != nil {
		return 0, 0, err
	}
	kind, err := device.ParseSignalKind(mux.Vars(r)["kind"])
	return ch, kind, err
}

func (s *ApiServer) handleSignalSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, kind, err := signalVars(r)
		if err != nil {
			writeError(w, err)
			return
		}
		setup := &SignalSetup{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.InstallSignal(ch, kind, setup.Code); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, setup)
	}
}

func (s *ApiServer) handleSignalClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, kind, err := signalVars(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.ctrl.RemoveSignal(ch, kind); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSignalWait long polls; timeout is in milliseconds, 0 or missing
// waits until the client goes away
func (s *ApiServer) handleSignalWait() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, kind, err := signalVars(r)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := r.Context()
		if t := r.URL.Query().Get("timeout"); t != "" {
			ms, err := strconv.ParseUint(t, 10, 32)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if ms > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
				defer cancel()
			}
		}
		if err := s.ctrl.WaitSignal(ctx, ch, kind); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &SignalSetup{})
	}
}

func (s *ApiServer) handlePretrigGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, offset := s.ctrl.Pretrigger()
		writeJSON(w, &PretrigSetup{Enabled: &enabled, Offset: &offset})
	}
}

func (s *ApiServer) handlePretrigSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setup := &PretrigSetup{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.SetPretrigger(setup.Enabled, setup.Offset); err != nil {
			writeError(w, err)
			return
		}
		enabled, offset := s.ctrl.Pretrigger()
		writeJSON(w, &PretrigSetup{Enabled: &enabled, Offset: &offset})
	}
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: addr: %s", vars["addr"])

		addr, err := strconv.ParseUint(vars["addr"], 0, 16)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := s.ctrl.RegRead(uint16(addr))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, NewRegHex(uint16(addr), value))
	}
}

func (s *ApiServer) handleRegReadAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regs, err := s.ctrl.RegReadAll()
		if err != nil {
			writeError(w, err)
			return
		}
		regsHex := []*RegHex{}
		for addr := uint16(0); addr < 0x100; addr += 2 {
			if v, ok := regs[addr]; ok {
				regsHex = append(regsHex, NewRegHex(addr, v))
			}
		}
		writeJSON(w, regsHex)
	}
}
