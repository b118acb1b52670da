package bridge

import (
	"fmt"
	"net"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"github.com/rs/zerolog"
)

// DefaultPort is the canonical control port the bridge's OSC client
// binds to first; on failure it probes up to 100 ports upward
// (
// canonical port, fallback probing 100 ports upward").
const DefaultPort = 57110

const portProbeRange = 100

// Conn owns the OSC client (sends to the child process) and the OSC
// server (receives its asynchronous replies: /status.reply, /done,
// /fail, /b_getn reply, /meter).I/§6.
type Conn struct {
	client *osc.Client
	server *osc.Server
	disp   osc.Dispatcher
	conn   net.PacketConn

	listenAddr string
	log        zerolog.Logger

	mu         sync.Mutex
	scopeBuf   []float32
	lastMeterL float32
	lastMeterR float32

	statusCh chan struct{}
	doneCh   chan *osc.Message
	failCh   chan *osc.Message
}

// Dial opens an OSC client pointed at the child process on localhost:port
// and binds a reply server, probing upward from a starting local port
// when the preferred one is taken.
func Dial(targetPort, preferredLocalPort int, log zerolog.Logger) (*Conn, error) {
	conn, listenAddr, err := probeFreePort(preferredLocalPort)
	if err != nil {
		return nil, fmt.Errorf("bridge: no free local port near %d: %w", preferredLocalPort, err)
	}

	disp := osc.NewStandardDispatcher()
	c := &Conn{
		client:     osc.NewClient("localhost", targetPort),
		disp:       disp,
		conn:       conn,
		listenAddr: listenAddr,
		log:        log,
		statusCh:   make(chan struct{}, 1),
		doneCh:     make(chan *osc.Message, 16),
		failCh:     make(chan *osc.Message, 16),
	}
	c.server = &osc.Server{Addr: c.listenAddr, Dispatcher: disp}

	disp.AddMsgHandler("/status.reply", func(msg *osc.Message) {
		select {
		case c.statusCh <- struct{}{}:
		default:
		}
	})
	disp.AddMsgHandler("/done", func(msg *osc.Message) {
		select {
		case c.doneCh <- msg:
		default:
			c.log.Warn().Msg("bridge: /done channel full, dropping reply")
		}
	})
	disp.AddMsgHandler("/fail", func(msg *osc.Message) {
		select {
		case c.failCh <- msg:
		default:
			c.log.Warn().Msg("bridge: /fail channel full, dropping reply")
		}
	})
	disp.AddMsgHandler("/b_getn.reply", func(msg *osc.Message) {
		c.handleScopeReply(msg)
	})
	disp.AddMsgHandler("/meter", func(msg *osc.Message) {
		c.handleMeterReply(msg)
	})

	go func() {
		if err := c.server.Serve(c.conn); err != nil {
			c.log.Error().Err(err).Msg("bridge: OSC reply server stopped")
		}
	}()

	return c, nil
}

// probeFreePort binds the first free UDP port starting at preferred,
// trying up to portProbeRange ports upward (
// free port in a range starting at its canonical port, fallback probing
// 100 ports upward"). The returned connection is handed to osc.Server.Serve.
func probeFreePort(preferred int) (net.PacketConn, string, error) {
	for i := 0; i < portProbeRange; i++ {
		port := preferred + i
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		conn, err := net.ListenPacket("udp", addr)
		if err == nil {
			return conn, addr, nil
		}
	}
	return nil, "", fmt.Errorf("exhausted %d ports starting at %d", portProbeRange, preferred)
}

// Send transmits msg to the child process. Errors here are the
// single-event control-protocol failures
// drop, not propagate.
func (c *Conn) Send(msg *osc.Message) error {
	return c.client.Send(msg)
}

func (c *Conn) handleScopeReply(msg *osc.Message) {
	buf := make([]float32, 0, len(msg.Arguments))
	for _, arg := range msg.Arguments {
		switch v := arg.(type) {
		case float32:
			buf = append(buf, v)
		case int32:
			buf = append(buf, float32(v))
		}
	}
	c.mu.Lock()
	c.scopeBuf = buf
	c.mu.Unlock()
}

func (c *Conn) handleMeterReply(msg *osc.Message) {
	if len(msg.Arguments) < 2 {
		return
	}
	l, lok := msg.Arguments[0].(float32)
	r, rok := msg.Arguments[1].(float32)
	if !lok || !rok {
		return
	}
	c.mu.Lock()
	c.lastMeterL, c.lastMeterR = l, r
	c.mu.Unlock()
}

// Scope returns the most recently received waveform reply.
func (c *Conn) Scope() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float32, len(c.scopeBuf))
	copy(out, c.scopeBuf)
	return out
}

// Meter returns the most recent stereo amplitude meter reply, used to
// drive is-playing detection on the external-engine path (spec.md
// §4.I "a meter monitor that periodically replies with stereo amplitude
// for is-playing detection").
func (c *Conn) Meter() (left, right float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMeterL, c.lastMeterR
}

// StatusCh fires once per received /status.reply.
func (c *Conn) StatusCh() <-chan struct{} { return c.statusCh }

// DoneCh fires once per received /done.
func (c *Conn) DoneCh() <-chan *osc.Message { return c.doneCh }

// FailCh fires once per received /fail.
func (c *Conn) FailCh() <-chan *osc.Message { return c.failCh }

// Close tears down the reply server's listening socket. Idempotent per
//.. must be
// idempotent".
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
