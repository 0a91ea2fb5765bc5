package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// runPostCommands runs the configured shell commands after the chunks and
// manifest are on disk. Commands run in order in the output directory and
// the first failure stops the rest.
func (a *App) runPostCommands(ctx context.Context, j *job, dir string) error {
	commands := cleanCommands(a.cfg.PostCommands)
	if len(commands) == 0 {
		return nil
	}

	env := append(os.Environ(),
		"BOOKPIPE_JOB_ID="+j.res.JobID,
		"BOOKPIPE_URL="+j.url,
		"BOOKPIPE_SOURCE="+j.res.Source,
		"BOOKPIPE_TITLE="+j.res.Title,
		"BOOKPIPE_MANIFEST="+j.res.ManifestPath,
		"BOOKPIPE_FILES="+strings.Join(j.res.Files, "\n"),
		"BOOKPIPE_CHUNKS="+strconv.Itoa(len(j.res.Files)),
	)
	for _, cmdStr := range commands {
		cmd, err := commandForShell(ctx, cmdStr)
		if err != nil {
			return err
		}
		cmd.Env = env
		cmd.Dir = dir
		cmd.Stdout = a.hookOutput
		cmd.Stderr = a.hookOutput

		j.logger.Info("running post command", zap.String("command", cmdStr))
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("post command failed %q: %w", cmdStr, err)
		}
	}
	return nil
}

// cleanCommands drops blank entries and # comments.
func cleanCommands(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || strings.HasPrefix(c, "#") {
			continue
		}
		out = append(out, c)
	}
	return out
}

func commandForShell(ctx context.Context, command string) (*exec.Cmd, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.New("empty command")
	}
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command), nil
	}
	return exec.CommandContext(ctx, "sh", "-c", command), nil
}
