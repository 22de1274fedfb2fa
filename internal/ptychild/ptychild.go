// Package ptychild manages one (master fd, child pid, TERM env) triple
// produced by opening a PTY pair and forking a child onto its slave.
package ptychild

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Term is the TERM value every child receives, per the host protocol.
const Term = "ishell-m"

// Child is a managed PTY child process: a non-blocking master fd and the
// pid of the process attached to its slave as controlling terminal.
type Child struct {
	Master *os.File
	Cmd    *exec.Cmd

	mu     sync.Mutex
	exited bool
}

// Spawn opens a PTY pair sized rows x cols and execs command/args onto the
// slave, with TERM=ishell-m and any extraEnv merged into the child's
// environment (overriding existing values of the same key).
func Spawn(command string, args []string, rows, cols int, extraEnv map[string]string) (*Child, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = mergeEnv(os.Environ(), extraEnv)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("start %s in pty: %w", command, err)
	}
	return &Child{Master: master, Cmd: cmd}, nil
}

func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra)+1)
	for _, kv := range base {
		key := kv
		for i, c := range kv {
			if c == '=' {
				key = kv[:i]
				break
			}
		}
		if _, overridden := extra[key]; !overridden && key != "TERM" {
			env = append(env, kv)
		}
	}
	env = append(env, "TERM="+Term)
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// Pid returns the child's process id, or 0 if it has not started.
func (c *Child) Pid() int {
	if c.Cmd == nil || c.Cmd.Process == nil {
		return 0
	}
	return c.Cmd.Process.Pid
}

// Resize pushes new dimensions to the child via TIOCSWINSZ and delivers
// SIGWINCH so the child's own resize handling fires.
func (c *Child) Resize(rows, cols int) error {
	if err := pty.Setsize(c.Master, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return fmt.Errorf("set pty size: %w", err)
	}
	if pid := c.Pid(); pid > 0 {
		if err := unix.Kill(pid, unix.SIGWINCH); err != nil {
			return fmt.Errorf("deliver SIGWINCH: %w", err)
		}
	}
	return nil
}

// Close closes the master fd. The child receives SIGHUP naturally.
func (c *Child) Close() error {
	return c.Master.Close()
}

// Wait blocks until the child exits, reaps it, and records the result so
// Exited reports true from then on. Intended to run in its own goroutine for
// the life of the child: the Multiplexer starts one per Child right after
// Spawn, which is also what reaps the process on shutdown, since Close only
// delivers SIGHUP and does not itself wait for exit.
func (c *Child) Wait() error {
	err := c.Cmd.Wait()
	c.mu.Lock()
	c.exited = true
	c.mu.Unlock()
	return err
}

// Exited reports whether the child process has been reaped.
func (c *Child) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited
}
