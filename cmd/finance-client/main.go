// Command finance-client is the terminal front end of the finance assistant:
// voice or typed chat, transaction history, a dashboard and manual entry.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/carson-networks/finance-assistant/internal/config"
	"github.com/carson-networks/finance-assistant/internal/gateway"
	"github.com/carson-networks/finance-assistant/internal/logging"
	"github.com/carson-networks/finance-assistant/internal/present"
	"github.com/carson-networks/finance-assistant/internal/store"
)

// client holds what every command shares. It is filled in by the app's Before hook.
type client struct {
	env       *config.ClientConfig
	logger    *logrus.Logger
	api       *gateway.Client
	assistant *gateway.Client
	store     *store.Store
	refresher *store.Refresher
	stdin     io.Reader
}

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, present.ErrorMessage(err))
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	c := &client{stdin: stdin}

	return &cli.App{
		Name:      "finance-client",
		Usage:     "personal finance assistant",
		Writer:    stdout,
		ErrWriter: stderr,
		Before: func(ctx *cli.Context) error {
			config.LoadDotEnv()
			env, err := config.ProcessClientEnvironment()
			if err != nil {
				return err
			}

			c.env = env
			c.logger = logging.SetupLogging(env.LogLevel)
			c.logger.Out = stderr
			c.api = gateway.NewClient(env.APIBaseURL, env.RequestTimeout, c.logger)
			// assistant turns can run far longer than plain API calls
			c.assistant = gateway.NewClient(env.APIBaseURL, env.AssistantTimeout, c.logger)
			c.store = store.New()
			c.refresher = &store.Refresher{Source: c.api, Store: c.store, Logger: c.logger}
			return nil
		},
		Commands: []*cli.Command{
			c.chatCommand(),
			c.historyCommand(),
			c.dashboardCommand(),
			c.addCommand(),
		},
	}
}
