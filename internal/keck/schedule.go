package keck

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/keckobservatory/koa-daa/internal/reconcile"
)

const dateFormat = "2006-01-02"

// scheduleEntry is the schedule API's wire shape. Observer names and IDs
// arrive comma-joined; they are split here, at the boundary, so nothing
// downstream parses positional strings.
type scheduleEntry struct {
	Semester    string `json:"Semester"`
	ProjCode    string `json:"ProjCode"`
	PiEmail     string `json:"PiEmail"`
	PiFirstName string `json:"PiFirstName"`
	PiLastName  string `json:"PiLastName"`
	PiID        int    `json:"PiId"`
	Observers   string `json:"Observers"`
	ObsID       string `json:"ObsId"`
	SchedID     int    `json:"SchedId"`
	Instrument  string `json:"Instrument"`
}

// Schedule returns the telescope schedule entries for the window. An empty
// schedule is ErrNoData: the run cannot proceed without it.
func (c *Client) Schedule(ctx context.Context, date time.Time, numDays int) ([]reconcile.ScheduleEntry, error) {
	params := url.Values{}
	params.Set("date", date.Format(dateFormat))
	params.Set("numdays", strconv.Itoa(numDays))

	var wire []scheduleEntry
	if err := c.getJSON(ctx, c.endpoints.Schedule, params, &wire); err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}
	if len(wire) == 0 {
		return nil, fmt.Errorf("%w: schedule empty for %s", ErrNoData, date.Format(dateFormat))
	}

	entries := make([]reconcile.ScheduleEntry, 0, len(wire))
	for _, w := range wire {
		entries = append(entries, reconcile.ScheduleEntry{
			Semester:      w.Semester,
			ProjCode:      w.ProjCode,
			PiEmail:       w.PiEmail,
			PiFirstName:   w.PiFirstName,
			PiLastName:    w.PiLastName,
			PiKeckID:      w.PiID,
			ObserverNames: splitNames(w.Observers),
			ObserverIDs:   splitIDs(w.ObsID),
			SchedID:       w.SchedID,
			Instrument:    w.Instrument,
		})
	}
	return entries, nil
}

func splitNames(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func splitIDs(joined string) []int {
	if joined == "" {
		return nil
	}
	var ids []int
	for _, p := range strings.Split(joined, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
