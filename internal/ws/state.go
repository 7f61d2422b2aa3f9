package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/coreman2200/apa102"
	"github.com/coreman2200/apa102/internal/config"
	diag "github.com/coreman2200/apa102/internal/diagnostics"
	"github.com/coreman2200/apa102/internal/layout"
	"github.com/coreman2200/apa102/internal/patterns"
)

var errUnknownOp = errors.New("unknown op")

// Command is one control message. Fields not used by an op are ignored.
type Command struct {
	Op         string `json:"op"`
	LED        int    `json:"led,omitempty"`
	Start      int    `json:"start,omitempty"`
	End        int    `json:"end,omitempty"`
	R          uint8  `json:"r,omitempty"`
	G          uint8  `json:"g,omitempty"`
	B          uint8  `json:"b,omitempty"`
	RGB        uint32 `json:"rgb,omitempty"`
	Brightness *uint8 `json:"brightness,omitempty"`
	Positions  *int   `json:"positions,omitempty"`
	Name       string `json:"name,omitempty"`
	FPS        int    `json:"fps,omitempty"`
}

// Reply answers a Command.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Color string `json:"color,omitempty"`
	RGB   uint32 `json:"rgb,omitempty"`
	Dump  string `json:"dump,omitempty"`
}

// Frame is broadcast, msgpack encoded, to /frames clients on every Show.
type Frame struct {
	T       int64  `msgpack:"t"`
	FrameID uint64 `msgpack:"frame_id"`
	Order   string `msgpack:"order"`
	Data    []byte `msgpack:"data"`
}

type State struct {
	mu     sync.RWMutex
	wmu    sync.Mutex // serialises websocket writes
	Strip  *apa102.Strip
	Layout layout.Layout
	FPS    int

	ConfigPath    string
	Config        *config.Config
	CurrentDriver string

	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	testRunner *patterns.Runner
	fpsChanged chan struct{}
}

func NewState(s *apa102.Strip, l layout.Layout, fps int) *State {
	return &State{
		Strip:       s,
		Layout:      l,
		FPS:         fps,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		fpsChanged:  make(chan struct{}, 1),
	}
}

// RunRenderLoop steps the running test pattern, if any, until ctx is done.
func (s *State) RunRenderLoop(ctx context.Context) {
	ticker := time.NewTicker(s.period())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.fpsChanged:
			ticker.Reset(s.period())
			continue
		case <-ticker.C:
		}
		s.mu.Lock()
		r := s.testRunner
		s.mu.Unlock()
		if r == nil {
			continue
		}
		if !r.Step(s.Strip) {
			s.mu.Lock()
			if s.testRunner == r {
				s.testRunner = nil
			}
			s.mu.Unlock()
			s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete", Detail: string(r.Kind())})
			continue
		}
		if err := s.show(); err != nil {
			log.Warn().Err(err).Msg("show")
		}
	}
}

func (s *State) period() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Second / time.Duration(max(1, s.FPS))
}

// show sends the strip and broadcasts the frame that was sent.
func (s *State) show() error {
	f, err := s.Strip.ShowFrame()
	if err != nil {
		s.pushDiag(diag.Diagnostic{
			Severity: diag.Err, Code: "SHOW.FAILED", Summary: "Writing the frame failed",
			Detail:         err.Error(),
			LikelyCauses:   []string{"SPI port unplugged or busy"},
			SuggestedFixes: []string{"check wiring", "restart with -driver console"},
		})
		return err
	}
	s.mu.Lock()
	s.frameID++
	id := s.frameID
	s.mu.Unlock()
	s.broadcastFrame(id, f)
	return nil
}

// Apply executes one control command.
func (s *State) Apply(c Command) Reply {
	st := s.Strip
	var b []uint8
	if c.Brightness != nil {
		b = []uint8{*c.Brightness}
	}
	switch c.Op {
	case "set_pixel":
		st.SetPixel(c.LED, c.R, c.G, c.B, b...)
	case "set_pixel_rgb":
		st.SetPixelRGB(c.LED, c.RGB, b...)
	case "set_range":
		st.SetRange(c.Start, c.End, c.R, c.G, c.B, b...)
	case "set_range_rgb":
		st.SetRangeRGB(c.Start, c.End, c.RGB, b...)
	case "set_all":
		st.SetAll(c.R, c.G, c.B, b...)
	case "set_all_rgb":
		st.SetAllRGB(c.RGB, b...)
	case "clear":
		st.Clear()
	case "rotate":
		n := 1
		if c.Positions != nil {
			n = *c.Positions
		}
		st.Rotate(n)
	case "show":
		if err := s.show(); err != nil {
			return Reply{Error: err.Error()}
		}
	case "get_pixel":
		str, ok := st.PixelColorString(c.LED)
		if !ok {
			return Reply{Error: fmt.Sprintf("led %d out of range", c.LED)}
		}
		rgb, _ := st.PixelColorRGB(c.LED)
		return Reply{OK: true, Color: str, RGB: rgb}
	case "dump":
		return Reply{OK: true, Dump: st.HexDump()}
	case "run_test":
		k := patterns.Parse(c.Name)
		if k == patterns.None {
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
				Evidence: map[string]any{"name": c.Name},
			})
			return Reply{Error: "unknown test " + c.Name}
		}
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: c.Name})
		s.mu.Lock()
		s.testRunner = patterns.NewRunner(patterns.Plan{Kind: k, Layout: s.Layout})
		s.mu.Unlock()
	case "stop_test":
		s.mu.Lock()
		s.testRunner = nil
		s.mu.Unlock()
	case "set_fps":
		if c.FPS <= 0 {
			return Reply{Error: "fps must be positive"}
		}
		s.mu.Lock()
		s.FPS = c.FPS
		s.mu.Unlock()
		select {
		case s.fpsChanged <- struct{}{}:
		default:
		}
		s.saveConfig()
	default:
		return Reply{Error: fmt.Sprintf("%v: %q", errUnknownOp, c.Op)}
	}
	return Reply{OK: true}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.diagClients)
}

// register upgrades the request and keeps conn in set until it goes away.
func (s *State) register(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	set[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var c Command
		var rep Reply
		if err := json.Unmarshal(data, &c); err != nil {
			rep = Reply{Error: "bad command: " + err.Error()}
		} else {
			rep = s.Apply(c)
		}
		if !rep.OK {
			log.Debug().Str("op", c.Op).Str("error", rep.Error).Msg("control")
		}
		if err := conn.WriteJSON(rep); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id":          s.frameID,
		"uptime_s":          time.Since(s.startTime).Seconds(),
		"num_led":           s.Strip.NumLED(),
		"global_brightness": s.Strip.GlobalBrightness(),
		"order":             s.Strip.Order().String(),
		"fps":               s.FPS,
		"driver":            s.CurrentDriver,
		"version":           apa102.Version,
	}
	if s.testRunner != nil {
		resp["test"] = string(s.testRunner.Kind())
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) saveConfig() {
	if s.ConfigPath == "" || s.Config == nil {
		return
	}
	s.mu.RLock()
	cfg := *s.Config
	cfg.FPS = s.FPS
	s.mu.RUnlock()
	if err := config.Save(s.ConfigPath, &cfg); err != nil {
		log.Warn().Err(err).Str("path", s.ConfigPath).Msg("config save failed")
	}
}

// conns snapshots set so writes happen without holding s.mu.
func (s *State) conns(set map[*websocket.Conn]bool) []*websocket.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (s *State) broadcastFrame(id uint64, data []byte) {
	clients := s.conns(s.clients)
	if len(clients) == 0 {
		return
	}
	b, err := msgpack.Marshal(Frame{T: time.Now().UnixNano(), FrameID: id, Order: s.Strip.Order().String(), Data: data})
	if err != nil {
		log.Debug().Err(err).Msg("encode frame")
		return
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	for _, c := range clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.BinaryMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	clients := s.conns(s.diagClients)
	if len(clients) == 0 {
		return
	}
	b, _ := json.Marshal(d)
	s.wmu.Lock()
	defer s.wmu.Unlock()
	for _, c := range clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
