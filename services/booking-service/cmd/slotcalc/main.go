// Command slotcalc runs the slot calculator against a JSON fixture without a
// database. It is meant for checking host setups and time zone edge cases.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("slotcalc failed", "err", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	common := []cli.Flag{
		&cli.PathFlag{Name: "fixture", Aliases: []string{"f"}, Required: true, Usage: "JSON fixture describing the host"},
		&cli.StringFlag{Name: "now", EnvVars: []string{"SLOTCALC_NOW"}, Usage: "evaluation instant (RFC3339), defaults to the current time"},
		&cli.StringFlag{Name: "tz", EnvVars: []string{"SLOTCALC_GUEST_TZ"}, Usage: "guest time zone for display"},
	}
	return &cli.App{
		Name:  "slotcalc",
		Usage: "Compute bookable slots from a fixture.",
		Commands: []*cli.Command{
			{
				Name:  "slots",
				Usage: "List the slots for one date.",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Required: true, Usage: "date in the host zone (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "all", Usage: "include unavailable candidates"},
				}, common...),
				Action: slotsAction,
			},
			{
				Name:   "dates",
				Usage:  "Summarize every date in the booking window.",
				Flags:  common,
				Action: datesAction,
			},
		},
	}
}

func load(c *cli.Context) (availability.DayInput, *time.Location, error) {
	now := time.Now().UTC()
	if raw := c.String("now"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return availability.DayInput{}, nil, fmt.Errorf("--now: %w", err)
		}
		now = t.UTC()
	}
	guest, err := policy.LoadLocation(c.String("tz"))
	if err != nil {
		return availability.DayInput{}, nil, err
	}

	file, err := os.Open(c.Path("fixture"))
	if err != nil {
		return availability.DayInput{}, nil, err
	}
	defer file.Close()
	f, err := readFixture(file)
	if err != nil {
		return availability.DayInput{}, nil, err
	}
	in, err := f.input(now)
	if err != nil {
		return availability.DayInput{}, nil, err
	}
	return in, guest, nil
}

func slotsAction(c *cli.Context) error {
	in, guest, err := load(c)
	if err != nil {
		return err
	}
	date, err := civil.ParseDate(c.String("date"))
	if err != nil {
		return fmt.Errorf("--date: %w", err)
	}
	in.Date = date
	slots := availability.CalculateSlotsForDate(in)
	if !c.Bool("all") {
		slots = availability.AvailableOnly(slots)
	}
	printSlots(c.App.Writer, in.Policy.Location(), guest, slots)
	return nil
}

func datesAction(c *cli.Context) error {
	in, _, err := load(c)
	if err != nil {
		return err
	}
	for _, d := range availability.SummarizeRange(in) {
		if d.HasAvailability {
			fmt.Fprintf(c.App.Writer, "%s  %d\n", d.Date, d.AvailableCount)
		}
	}
	return nil
}

func printSlots(w io.Writer, host, guest *time.Location, slots []availability.CalculatedSlot) {
	for _, s := range slots {
		mark := ""
		if !s.Available {
			mark = "  (taken)"
		}
		fmt.Fprintf(w, "%s  %s %s-%s  %s %s%s\n",
			s.StartUTC.Format(time.RFC3339),
			host, s.Start.Time.String()[:5], s.End.Time.String()[:5],
			guest, s.StartUTC.In(guest).Format("2006-01-02 15:04"),
			mark,
		)
	}
}
