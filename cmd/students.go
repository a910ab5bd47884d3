package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/roster/internal/formatter"
	"github.com/desertthunder/roster/internal/roster"
	"github.com/desertthunder/roster/internal/shared"
	"github.com/urfave/cli/v3"
)

// queryState builds the roster state selected by --search and --track, along with the track's name.
func (r *Runner) queryState(ctx context.Context, cmd *cli.Command) (roster.State, string, error) {
	search, trackID := cmd.String("search"), cmd.String("track")
	state := roster.NewState()

	switch {
	case search != "" && trackID != "":
		return state, "", fmt.Errorf("%w: --search and --track cannot be combined", shared.ErrInvalidArgument)
	case search != "":
		return roster.Reduce(state, roster.SetSearchText{Text: search}), "", nil
	case trackID == "":
		return state, "", nil
	}

	store, _, err := r.open()
	if err != nil {
		return state, "", err
	}

	track, err := store.GetTrack(ctx, trackID)
	if err != nil {
		if errors.Is(err, shared.ErrTrackNotFound) {
			return state, "", err
		}
		return state, "", fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
	}

	return roster.Reduce(state, roster.SelectTrack{TrackID: track.ID}), track.Name, nil
}

// Students prints one page of the leaderboard.
func (r *Runner) Students(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	state, trackName, err := r.queryState(ctx, cmd)
	if err != nil {
		return err
	}
	state = roster.Reduce(state, roster.SetPage{Page: int(cmd.Int("page"))})

	_, router, err := r.open()
	if err != nil {
		return err
	}

	res := router.Fetch(ctx, router.Dispatch(state))
	if res.Failed() {
		return res.Err
	}

	data, err := formatter.Render(formatter.NewReport(state, trackName, res.Ranked()), format)
	if err != nil {
		return err
	}
	if err := r.writeBytes(data); err != nil {
		return err
	}

	if format == formatter.Text {
		return r.writePlain("\nPage %d%s\n", res.State.Page, pageHint(res))
	}
	return nil
}

func pageHint(res roster.Result) string {
	switch {
	case res.HasNext() && res.HasPrev():
		return fmt.Sprintf(" (--page %d for previous, --page %d for next)", res.State.Page-1, res.State.Page+1)
	case res.HasNext():
		return fmt.Sprintf(" (--page %d for more)", res.State.Page+1)
	case res.HasPrev():
		return fmt.Sprintf(" (--page %d for previous)", res.State.Page-1)
	}
	return ""
}

// Tracks lists the track catalog.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	_, router, err := r.open()
	if err != nil {
		return err
	}

	tracks, err := router.Tracks(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks found\n")
	}
	for _, t := range tracks {
		if err := r.writePlain("%-36s  %s\n", t.ID, t.Name); err != nil {
			return err
		}
	}
	return nil
}
