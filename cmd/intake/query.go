package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/wolfman30/voice-intake/internal/app/bootstrap"
	"github.com/wolfman30/voice-intake/internal/availability"
)

func newEngine(ctx context.Context) (*availability.Engine, error) {
	cfg, logger := loadRuntime()
	hours, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}
	gw, err := bootstrap.BuildCalendar(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	return availability.NewEngine(gw, hours,
		availability.WithSearchHorizon(cfg.SearchHorizonDays),
		availability.WithLogger(logger),
	), nil
}

type slotsResult struct {
	Date    civil.Date  `json:"date"`
	Hours   []int       `json:"hours"`
	Closest *civil.Date `json:"closest_available_date,omitempty"`
}

func newSlotsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the open starting hours for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			day := engine.Today()
			if strings.TrimSpace(date) != "" {
				if day, err = civil.ParseDate(strings.TrimSpace(date)); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			res, err := slots(cmd.Context(), engine, day)
			if err != nil {
				return err
			}
			jsonMode, _ := cmd.Flags().GetBool("json")
			return printSlots(cmd.OutOrStdout(), res, jsonMode)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (defaults to today in the clinic timezone)")
	return cmd
}

func slots(ctx context.Context, engine *availability.Engine, day civil.Date) (slotsResult, error) {
	hours, err := engine.AvailableHours(ctx, day)
	if err != nil {
		return slotsResult{}, err
	}
	res := slotsResult{Date: day, Hours: hours}
	if len(hours) > 0 {
		return res, nil
	}
	closest, err := engine.ClosestAvailableDate(ctx, day)
	switch {
	case err == nil:
		res.Closest = &closest
	case !errors.Is(err, availability.ErrNoAvailabilityFound):
		return slotsResult{}, err
	}
	return res, nil
}

func printSlots(w io.Writer, res slotsResult, jsonMode bool) error {
	if jsonMode {
		if res.Hours == nil {
			res.Hours = []int{}
		}
		return json.NewEncoder(w).Encode(res)
	}
	if len(res.Hours) > 0 {
		parts := make([]string, len(res.Hours))
		for i, h := range res.Hours {
			parts[i] = fmt.Sprintf("%02d:00", h)
		}
		_, err := fmt.Fprintf(w, "%s (%s): %s\n", res.Date, res.Date.In(time.UTC).Weekday(), strings.Join(parts, ", "))
		return err
	}
	if res.Closest != nil {
		_, err := fmt.Fprintf(w, "%s: no open hours; closest available date is %s (%s)\n", res.Date, res.Closest, res.Closest.In(time.UTC).Weekday())
		return err
	}
	_, err := fmt.Fprintf(w, "%s: no open hours within the search horizon\n", res.Date)
	return err
}

func newResolveDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve-day <label>",
		Short: "Resolve a weekday label (English or French) to a date in the next seven days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			day, err := engine.ResolveWeekday(args[0])
			if err != nil {
				return err
			}
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"label": args[0], "date": day})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", day, day.In(time.UTC).Weekday())
			return err
		},
	}
}
