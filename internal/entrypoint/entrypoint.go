package entrypoint

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"bookpipe/internal/cli"
)

// Execute runs the command line in args (args[0] is the program name) and
// returns the process exit code.
func Execute(args []string) (int, error) {
	return execute(args, cli.DefaultEnv())
}

func execute(args []string, env cli.Env) (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCommand(env)
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code, exitErr.Err
		}
		return 1, err
	}
	return 0, nil
}
