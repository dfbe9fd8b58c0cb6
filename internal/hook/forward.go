package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Active reports whether the current process was started as a compiler
// wrapper by a build that runs a Server.
func Active() bool {
	return os.Getenv(EnvAddr) != ""
}

// Forward sends the wrapped compiler command args (program first) to the
// Server named in the environment, copies the streamed output to stdout and
// stderr and returns the exit code the build tool should observe.
func Forward(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "hook: no compiler given")
		return 2
	}
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, "hook:", err)
		return 1
	}
	cmd := Command{
		Program: args[0],
		Args:    args[1:],
		Env:     wrappedEnv(os.Environ()),
		Dir:     dir,
	}
	code, err := forward(ctx, os.Getenv(EnvAddr), os.Getenv(EnvToken), &cmd, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "hook:", err)
		return 1
	}
	return code
}

func forward(ctx context.Context, addr, token string, cmd *Command, stdout, stderr io.Writer) (int, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr+execPath, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return 0, fmt.Errorf("server replied %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var f frame
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return 0, errors.New("connection closed before the command finished")
			}
			return 0, err
		}
		switch {
		case f.Done:
			if f.Error != "" && f.Exit != 0 {
				fmt.Fprintln(stderr, f.Error)
			}
			return f.Exit, nil
		case f.Stream == "stderr":
			fmt.Fprintln(stderr, f.Line)
		default:
			fmt.Fprintln(stdout, f.Line)
		}
	}
}

// wrappedEnv drops the hook variables so the compiler, and anything it
// spawns, does not see a live hook.
func wrappedEnv(environ []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		if strings.HasPrefix(kv, EnvAddr+"=") || strings.HasPrefix(kv, EnvToken+"=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}
