package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ranking-system",
		Usage: "seasonal player rankings from tournament results",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API, websocket feed and event bus",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "apply database migrations before serving"},
				},
				Action: serveCommand,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Action: migrateCommand,
			},
			{
				Name:      "standings",
				Usage:     "print the final placements of a tournament",
				ArgsUsage: "<tournament-id>",
				Action:    standingsCommand,
			},
			{
				Name:      "recompute",
				Usage:     "apply a tournament to the season rankings",
				ArgsUsage: "<tournament-id>",
				Action:    recomputeCommand,
			},
			{
				Name:  "leaderboard",
				Usage: "print the season leaderboard",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "season", Usage: "season to show (default: current)"},
					&cli.IntFlag{Name: "limit", Value: 10, Usage: "number of rows"},
				},
				Action: leaderboardCommand,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func migrateCommand(c *cli.Context) error {
	a, err := newApp(c.Context)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.migrate(c.Context)
}

func standingsCommand(c *cli.Context) error {
	tournamentID, err := tournamentArg(c)
	if err != nil {
		return err
	}
	a, err := newApp(c.Context)
	if err != nil {
		return err
	}
	defer a.Close()
	a.initServices(nil)

	standings, err := a.rankingService.GetStandings(c.Context, tournamentID)
	if err != nil {
		return err
	}
	return printJSON(standings)
}

func recomputeCommand(c *cli.Context) error {
	tournamentID, err := tournamentArg(c)
	if err != nil {
		return err
	}
	a, err := newApp(c.Context)
	if err != nil {
		return err
	}
	defer a.Close()
	a.initServices(nil)

	ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
	defer cancel()

	report, err := a.rankingService.UpdateRankingsForTournament(ctx, tournamentID)
	if report != nil {
		if printErr := printJSON(report); printErr != nil {
			return printErr
		}
	}
	return err
}

func leaderboardCommand(c *cli.Context) error {
	a, err := newApp(c.Context)
	if err != nil {
		return err
	}
	defer a.Close()
	a.initServices(nil)

	rows, err := a.rankingService.GetTopRankings(c.Context, c.String("season"), c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func tournamentArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 || c.Args().First() == "" {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s <tournament-id>", c.App.Name, c.Command.Name), 2)
	}
	return c.Args().First(), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
