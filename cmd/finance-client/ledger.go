package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/carson-networks/finance-assistant/internal/aggregate"
	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/ledger"
	"github.com/carson-networks/finance-assistant/internal/present"
)

func (c *client) historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list every transaction with the running balance",
		Action: func(ctx *cli.Context) error {
			if err := c.refresher.Refresh(ctx.Context); err != nil {
				return err
			}
			present.History(ctx.App.Writer, c.store.Snapshot())
			return nil
		},
	}
}

func (c *client) dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "totals, the last seven days and expenses by category",
		Action: func(ctx *cli.Context) error {
			if err := c.refresher.Refresh(ctx.Context); err != nil {
				return err
			}
			present.Dashboard(ctx.App.Writer, aggregate.Summarize(c.store.Snapshot(), time.Now()))
			return nil
		},
	}
}

func (c *client) addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "record a transaction by hand",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "ingreso or gasto", Required: true},
			&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Usage: "amount in soles", Required: true},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Required: true},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Required: true},
			&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD, defaults to today on the server"},
		},
		Action: func(ctx *cli.Context) error {
			const op = "finance-client.add"

			draft, err := draftFromFlags(ctx)
			if err != nil {
				return apperr.Validation(op, err)
			}

			created, err := c.api.CreateTransaction(ctx.Context, draft)
			if err != nil {
				return err
			}
			c.store.Append(created)

			fmt.Fprintf(ctx.App.Writer, "Registrado: %s %s (%s) %s\n",
				present.KindLabel(created.Kind),
				present.SignedAmount(created),
				created.Category,
				present.LongDate(created.Date))
			return nil
		},
	}
}

func draftFromFlags(ctx *cli.Context) (ledger.Draft, error) {
	kind, err := ledger.ParseKind(ctx.String("type"))
	if err != nil {
		return ledger.Draft{}, err
	}
	amount, err := decimal.NewFromString(ctx.String("amount"))
	if err != nil {
		return ledger.Draft{}, fmt.Errorf("amount: %w", err)
	}
	return ledger.Draft{
		Kind:        kind,
		Amount:      amount,
		Description: ctx.String("description"),
		Category:    ctx.String("category"),
		Date:        ctx.String("date"),
	}, nil
}
