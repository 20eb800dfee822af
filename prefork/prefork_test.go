package prefork

import (
	"os/exec"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWorker(t *testing.T) {
	assert.False(t, IsWorker())
	t.Setenv(workerEnv, "1")
	assert.True(t, IsWorker())
}

// The monitor loop must drop each reaped pid from the registry and end once
// the registry is empty, with the reap itself staying non-blocking.
func TestMasterReapsUntilEmpty(t *testing.T) {
	s := &Supervisor{Config: Config{Workers: 4, PollInterval: time.Millisecond}}

	pid := 100
	s.spawnWorker = func() (int, error) {
		pid++
		return pid, nil
	}

	// Scripted reap results: 0 means "no child exited yet".
	exits := []int{0, 101, 0, 102, 103, 0, 104}
	next := 0
	var sizesSeen []int
	s.reapOne = func() (int, error) {
		sizesSeen = append(sizesSeen, len(s.workers))
		if next >= len(exits) {
			return 0, nil
		}
		p := exits[next]
		next++
		return p, nil
	}

	require.NoError(t, s.Run())
	assert.Empty(t, s.workers, "registry must be empty at shutdown")
	assert.Equal(t, len(exits), next, "all scripted exits must be consumed")

	// The registry only ever shrinks, one worker per reaped pid.
	last := 4
	for _, n := range sizesSeen {
		assert.LessOrEqual(t, n, last)
		last = n
	}
}

func TestMasterSpawnFailures(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		s := &Supervisor{Config: Config{Workers: 4, PollInterval: time.Millisecond}}
		attempt := 0
		s.spawnWorker = func() (int, error) {
			attempt++
			if attempt%2 == 0 {
				return 0, errors.New("spawn blew up")
			}
			return 200 + attempt, nil
		}
		reaped := false
		s.reapOne = func() (int, error) {
			// Both surviving workers exit on the first poll.
			if reaped {
				return 0, nil
			}
			switch len(s.workers) {
			case 2:
				return 201, nil
			case 1:
				reaped = true
				return 203, nil
			}
			return 0, nil
		}

		require.NoError(t, s.Run())
		assert.Equal(t, 4, attempt, "a failed spawn must not stop the rest of the pool")
	})

	t.Run("total", func(t *testing.T) {
		s := &Supervisor{Config: Config{Workers: 3}}
		s.spawnWorker = func() (int, error) { return 0, errors.New("no processes for you") }
		err := s.Run()
		assert.ErrorIs(t, err, ErrForkFailed)
	})
}

// spawnSleeper starts a real child process for the master to supervise.
func spawnSleeper(t *testing.T, seconds string) func() (int, error) {
	t.Helper()
	sleepPath, err := exec.LookPath("sleep")
	require.NoError(t, err)
	return func() (int, error) {
		cmd := exec.Command(sleepPath, seconds)
		if err := cmd.Start(); err != nil {
			return 0, err
		}
		pid := cmd.Process.Pid
		// The monitor loop reaps by pid; drop the handle so os/exec does
		// not race it for the exit status.
		_ = cmd.Process.Release()
		return pid, nil
	}
}

func TestMasterWithRealProcesses(t *testing.T) {
	s := &Supervisor{
		Config: Config{Workers: 4, PollInterval: 10 * time.Millisecond},
	}
	s.spawnWorker = spawnSleeper(t, "0.1")

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("master did not exit after all workers died")
	}
	assert.Empty(t, s.workers)
}

func TestStopPropagatesToWorkers(t *testing.T) {
	s := &Supervisor{
		Config: Config{Workers: 3, PollInterval: 10 * time.Millisecond},
	}
	s.spawnWorker = spawnSleeper(t, "60")

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	time.Sleep(50 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("master did not wind down after Stop")
	}
	assert.Empty(t, s.workers, "stopped master must not leave workers behind")
}

func TestRunWorkerBadListener(t *testing.T) {
	t.Setenv(workerEnv, "1")
	s := &Supervisor{Config: Config{
		Addr:     "127.0.0.1",
		Port:     0,
		CertFile: "/does/not/exist.pem",
		KeyFile:  "/does/not/exist.pem",
	}}
	assert.Error(t, s.Run())
}

func TestReapChildNoChildren(t *testing.T) {
	// With no child of ours pending, the non-blocking reap must return
	// immediately, whatever the result.
	start := time.Now()
	pid, _ := reapChild()
	assert.Less(t, time.Since(start), time.Second)
	assert.LessOrEqual(t, pid, 0)
}
