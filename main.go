package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"comic-market-watch/utils"
)

func main() {
	logger := utils.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, newRootCmd(os.Stdout, logger), logger)
	stop()

	os.Exit(code)
}

type executor interface {
	ExecuteContext(ctx context.Context) error
}

// run maps the command outcome to an exit code: 0 on success or graceful
// analysis failure, 2 on usage errors, 1 on anything else.
func run(ctx context.Context, cmd executor, logger *utils.Logger) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)

		var uerr usageError
		if errors.As(err, &uerr) {
			return 2
		}
		return 1
	}
	return 0
}
