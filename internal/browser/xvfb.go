package browser

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// xvfb is a virtual X display for headful Chrome.
type xvfb struct {
	display string
	cmd     *exec.Cmd
}

// xSocket is the unix socket an X server on display listens on.
func xSocket(display string) string {
	n := strings.TrimPrefix(display, ":")
	if i := strings.IndexByte(n, '.'); i >= 0 {
		n = n[:i]
	}
	return "/tmp/.X11-unix/X" + n
}

func startXvfb(display string) (*xvfb, error) {
	cmd := exec.Command("Xvfb", display, "-screen", "0", "1366x768x24", "-nolisten", "tcp", "-ac")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start xvfb: %w", err)
	}
	x := &xvfb{display: display, cmd: cmd}

	sock := xSocket(display)
	for deadline := time.Now().Add(3 * time.Second); time.Now().Before(deadline); {
		if _, err := os.Stat(sock); err == nil {
			return x, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	x.stop()
	return nil, fmt.Errorf("xvfb %s: socket %s did not appear", display, sock)
}

func (x *xvfb) pid() int { return x.cmd.Process.Pid }

func (x *xvfb) stop() {
	if x == nil || x.cmd.Process == nil {
		return
	}
	_ = x.cmd.Process.Kill()
	_ = x.cmd.Wait()
}
