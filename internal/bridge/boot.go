package bridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cbegin/loopweave-go/internal/sample"
)

// Boot-sequence timeouts: a `/done` ack for a
// single event assumes success after doneTimeout; compile/boot waits use
// the stricter bootTimeout, whose expiry is a hard failure.
const (
	doneTimeout = 5 * time.Second
	bootTimeout = 10 * time.Second
)

// ServerConfig describes how to spawn the co-located synthesis server
// child process.
type ServerConfig struct {
	// ExecPath is the server binary; if empty, discoverServerBinary
	// is used.
	ExecPath string
	Port     int
	MaxNodes int
	Outputs  int
	Buffers  int
	MemoryMB int
	DefsDir  string // bundled or discovered synth-def directory
}

// DefaultServerConfig mirrors,
// max nodes 1024, no audio inputs, 2 outputs, 1026 buffers, 128 MiB
// memory, no rendezvous, 1 login.
func DefaultServerConfig(port int) ServerConfig {
	return ServerConfig{
		Port:     port,
		MaxNodes: 1024,
		Outputs:  2,
		Buffers:  1026,
		MemoryMB: 128,
	}
}

// Bridge owns the child process, the OSC connection, the node/buffer id
// allocators, and the bookkeeping (loaded sample paths, active fx nodes,
// with_fx bracket stack) the dispatch path needs.
type Bridge struct {
	cfg     ServerConfig
	cmd     *exec.Cmd
	conn    *Conn
	nodeIDs *IDAllocator
	bufIDs  *IDAllocator
	log     zerolog.Logger

	loadedSamples  map[*sample.Buffer]int32
	activeFxNodes  []int32
	fxBracketIDs   []int32
	pendingBracket bool
}

// errServerUnavailable marks a boot failure that callers should treat
// as "demote to the in-process engine silently with a log entry"
//.
type errServerUnavailable struct{ cause error }

func (e errServerUnavailable) Error() string { return "bridge: server unavailable: " + e.cause.Error() }
func (e errServerUnavailable) Unwrap() error { return e.cause }

// Boot spawns the child process, connects an OSC client/server pair, and
// waits for a `/status` reply before creating the three node groups and
// issuing `/d_loadDir`, all within bootTimeout.
func Boot(ctx context.Context, cfg ServerConfig, log zerolog.Logger) (*Bridge, error) {
	execPath := cfg.ExecPath
	if execPath == "" {
		var err error
		execPath, err = discoverServerBinary()
		if err != nil {
			return nil, errServerUnavailable{cause: err}
		}
	}

	conn, err := Dial(cfg.Port, DefaultPort, log)
	if err != nil {
		return nil, errServerUnavailable{cause: err}
	}

	cmd := exec.Command(execPath, serverArgs(cfg)...)
	if err := cmd.Start(); err != nil {
		conn.Close()
		return nil, errServerUnavailable{cause: fmt.Errorf("spawn %s: %w", execPath, err)}
	}

	b := &Bridge{
		cfg:           cfg,
		cmd:           cmd,
		conn:          conn,
		nodeIDs:       NewNodeIDAllocator(),
		bufIDs:        NewBufferIDAllocator(),
		log:           log,
		loadedSamples: make(map[*sample.Buffer]int32),
	}

	bootCtx, cancel := context.WithTimeout(ctx, bootTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(bootCtx)
	g.Go(func() error { return b.pollStatus(gctx) })
	if err := g.Wait(); err != nil {
		_ = b.shutdownProcess()
		conn.Close()
		return nil, errServerUnavailable{cause: err}
	}

	for _, gid := range []int32{SourceGroupID, FxGroupID, MonitorGroupID} {
		if err := conn.Send(newGroupMessage(gid)); err != nil {
			log.Warn().Err(err).Int32("group", gid).Msg("bridge: failed to create node group")
		}
	}

	defsDir := cfg.DefsDir
	if defsDir == "" {
		defsDir = filepath.Dir(execPath) // bundled directory convention: alongside the binary
	}
	if err := conn.Send(loadDirMessage(defsDir)); err != nil {
		log.Warn().Err(err).Msg("bridge: /d_loadDir send failed")
	}

	return b, nil
}

// pollStatus repeatedly sends `/status` until a `/status.reply` arrives
// or ctx is cancelled (the bootTimeout deadline expiring is a hard
// failure).
func (b *Bridge) pollStatus(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	if err := b.conn.Send(statusMessage()); err != nil {
		return err
	}
	for {
		select {
		case <-b.conn.StatusCh():
			return nil
		case <-ticker.C:
			_ = b.conn.Send(statusMessage())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Shutdown tears the bridge down: `/g_freeAll` both working groups,
// `/quit`, then kills the child process if it hasn't exited. Idempotent.
func (b *Bridge) Shutdown() error {
	if b.conn != nil {
		_ = b.conn.Send(groupFreeAllMessage(SourceGroupID))
		_ = b.conn.Send(groupFreeAllMessage(FxGroupID))
		_ = b.conn.Send(quitMessage())
		b.conn.Close()
	}
	return b.shutdownProcess()
}

func (b *Bridge) shutdownProcess() error {
	if b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()
	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		return b.cmd.Process.Kill()
	}
}

func serverArgs(cfg ServerConfig) []string {
	return []string{
		"-u", fmt.Sprintf("%d", cfg.Port),
		"-a", fmt.Sprintf("%d", cfg.MaxNodes),
		"-i", "0",
		"-o", fmt.Sprintf("%d", cfg.Outputs),
		"-b", fmt.Sprintf("%d", cfg.Buffers),
		"-m", fmt.Sprintf("%d", cfg.MemoryMB),
		"-R", "0",
		"-l", "1",
	}
}

// discoverServerBinary searches well-known install locations, then the
// executable search path, for the synthesis server (
// server's plugin and definition directories are supplied either by a
// bundled path (preferred) or by a system-installed path discovered by
// searching well-known install locations and the executable search
// path").
func discoverServerBinary() (string, error) {
	name := "scsynth"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidates := []string{
		filepath.Join("/usr", "local", "bin", name),
		filepath.Join("/usr", "bin", name),
		filepath.Join("/Applications", "SuperCollider.app", "Contents", "Resources", name),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%s not found in well-known locations or PATH", name)
}
