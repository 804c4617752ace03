package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// killGrace is how long a cancelled subprocess gets to exit after an
// interrupt before it is killed.
const killGrace = 100 * time.Millisecond

// command builds a subprocess that is interrupted, then killed, when ctx
// is done.
func command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = killGrace
	return cmd
}

// output runs name and returns its stdout. stderr is included in errors.
func output(ctx context.Context, name string, stdin []byte, args ...string) ([]byte, error) {
	cmd := command(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

func installed(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
