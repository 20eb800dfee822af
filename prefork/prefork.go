// Package prefork scales a gemini.Server across OS processes. A master
// process spawns a fixed pool of workers ahead of time; every worker binds
// its own listener on the shared port with the reuse-port socket option and
// serves connections one at a time, so N workers give N-way concurrency with
// no locking and no shared memory. The master only watches: it reaps dead
// workers on a fixed poll and exits once none remain. It never restarts a
// dead worker; keeping the pool full is an external process manager's job.
package prefork

import (
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gemkit/gemini"
)

// workerEnv marks a spawned process as a worker.
const workerEnv = "GEMINI_PREFORK_WORKER"

const (
	DefaultWorkers      = 4
	DefaultPollInterval = 100 * time.Millisecond
)

var ErrForkFailed = errors.New("prefork: no worker could be spawned")

// Config describes the pool and the listener every worker binds.
type Config struct {
	// Workers is the pool size. Zero or negative means DefaultWorkers.
	Workers int

	// PollInterval is the master's reap cadence. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// Listener settings, identical in every worker.
	Addr     string
	Port     int
	CertFile string
	KeyFile  string
}

// Supervisor runs the master/worker state machine. The worker registry is
// touched only by the goroutine inside Run, so it needs no lock; Stop is the
// one knob reachable from outside and is a bare atomic flag.
type Supervisor struct {
	Config  Config
	Handler gemini.Handler
	Logger  *zap.Logger

	workers []int // live worker pids, owned by the monitor loop
	stopped atomic.Bool

	// spawnWorker and reapOne are swappable in tests.
	spawnWorker func() (int, error)
	reapOne     func() (int, error)
}

// IsWorker reports whether this process was spawned as a prefork worker.
func IsWorker() bool {
	return os.Getenv(workerEnv) != ""
}

func (s *Supervisor) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Run serves. In a worker process it binds the shared port and serves
// connections forever; in the master it spawns the pool and monitors it
// until every worker has died or Stop was called.
func (s *Supervisor) Run() error {
	if IsWorker() {
		return s.runWorker()
	}
	return s.runMaster()
}

// Stop asks the master loop to wind down. The loop then signals the
// surviving workers and reaps them before Run returns, so a deliberate
// shutdown does not leave workers holding the port with no supervisor.
// Safe to call from a signal-handling goroutine.
func (s *Supervisor) Stop() {
	s.stopped.Store(true)
}

func (s *Supervisor) runMaster() error {
	log := s.logger()
	spawn := s.spawnWorker
	if spawn == nil {
		spawn = s.spawnSelf
	}
	reap := s.reapOne
	if reap == nil {
		reap = reapChild
	}

	n := s.Config.Workers
	if n <= 0 {
		n = DefaultWorkers
	}
	for i := 0; i < n; i++ {
		pid, err := spawn()
		if err != nil {
			// One failed spawn does not doom the rest of the pool, and
			// the attempt is not retried.
			log.Error("spawn worker failed", zap.Error(err))
			continue
		}
		s.workers = append(s.workers, pid)
		log.Info("worker started", zap.Int("pid", pid))
	}
	if len(s.workers) == 0 {
		return ErrForkFailed
	}

	// The Go runtime installs no SIGCHLD reaction, so this poll is the
	// sole detection mechanism for worker death.
	interval := s.Config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for len(s.workers) > 0 && !s.stopped.Load() {
		s.reapAll(reap, log)
		if len(s.workers) == 0 {
			break
		}
		time.Sleep(interval)
	}

	if s.stopped.Load() && len(s.workers) > 0 {
		s.terminate(reap, log)
	}
	log.Info("all workers gone, master exiting")
	return nil
}

// reapAll collects every child that has exited since the last poll, without
// blocking, and drops each from the registry.
func (s *Supervisor) reapAll(reap func() (int, error), log *zap.Logger) {
	for {
		pid, err := reap()
		if err != nil {
			// Reap bookkeeping is best effort; the next poll retries.
			return
		}
		if pid <= 0 {
			return
		}
		s.removeWorker(pid)
		log.Info("worker exited", zap.Int("pid", pid))
	}
}

// terminate signals every surviving worker and waits for the registry to
// drain. Workers blocked in accept die on SIGTERM through the default
// runtime handling.
func (s *Supervisor) terminate(reap func() (int, error), log *zap.Logger) {
	for _, pid := range s.workers {
		if proc, err := os.FindProcess(pid); err == nil {
			_ = proc.Signal(syscall.SIGTERM)
		}
	}
	for len(s.workers) > 0 {
		pid, err := reap()
		if err != nil {
			return
		}
		if pid <= 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		s.removeWorker(pid)
		log.Info("worker terminated", zap.Int("pid", pid))
	}
}

func (s *Supervisor) removeWorker(pid int) {
	for i, p := range s.workers {
		if p == pid {
			s.workers = append(s.workers[:i], s.workers[i+1:]...)
			return
		}
	}
}

// spawnSelf re-executes the current binary with the worker marker in its
// environment. The child inherits the standard files; it binds its own
// listener, so no descriptors are passed.
func (s *Supervisor) spawnSelf() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, errors.Wrap(err, "prefork: resolve executable")
	}
	proc, err := os.StartProcess(exe, os.Args, &os.ProcAttr{
		Env:   append(os.Environ(), workerEnv+"=1"),
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		return 0, errors.Wrap(err, "prefork: start worker process")
	}
	// The monitor loop reaps by pid; the handle itself is never waited on.
	_ = proc.Release()
	return proc.Pid, nil
}

func (s *Supervisor) runWorker() error {
	log := s.logger()
	listener, err := gemini.ListenTLS(s.Config.Addr, s.Config.Port, s.Config.CertFile, s.Config.KeyFile, true)
	if err != nil {
		return errors.Wrap(err, "prefork: worker listen")
	}
	defer listener.Close()

	log.Info("worker serving",
		zap.Int("pid", os.Getpid()),
		zap.String("addr", listener.Addr().String()),
	)
	srv := &gemini.Server{Handler: s.Handler, Logger: log}
	return srv.Serve(listener)
}
