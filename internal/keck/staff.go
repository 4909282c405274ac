package keck

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/keckobservatory/koa-daa/internal/reconcile"
)

// staffEmailDomain is appended to an employee alias to form their address.
const staffEmailDomain = "keck.hawaii.edu"

type employee struct {
	Alias     string `json:"Alias"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
}

type observerInfo struct {
	ID        int    `json:"Id"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	Username  string `json:"username"`
}

// StaffRoster returns the current support astronomers as roster entries.
// The employee directory carries no keckid, so each one is resolved through
// the observer-info service by name; an unresolved keckid stays zero, which
// the matcher treats as absent.
func (c *Client) StaffRoster(ctx context.Context) ([]reconcile.Person, error) {
	params := url.Values{}
	params.Set("role", "SA")

	var wire []employee
	if err := c.getJSON(ctx, c.endpoints.Employee, params, &wire); err != nil {
		return nil, fmt.Errorf("fetching employees: %w", err)
	}

	staff := make([]reconcile.Person, 0, len(wire))
	for _, emp := range wire {
		p := reconcile.Person{
			UserID:    emp.Alias,
			Email:     fmt.Sprintf("%s@%s", emp.Alias, staffEmailDomain),
			FirstName: emp.FirstName,
			LastName:  emp.LastName,
			Role:      reconcile.RoleSA,
		}
		if det, err := c.observerByName(ctx, emp.FirstName, emp.LastName); err == nil {
			p.KeckID = det.ID
		}
		staff = append(staff, p)
	}
	return staff, nil
}

// ObserverByID resolves one observer identity by numeric ID. A lookup that
// returns nothing is ErrNoData; callers treat it as valid empty state.
func (c *Client) ObserverByID(ctx context.Context, id int) (reconcile.ObserverDetail, error) {
	params := url.Values{}
	params.Set("obsid", strconv.Itoa(id))

	var wire []observerInfo
	if err := c.getJSON(ctx, c.endpoints.Observer, params, &wire); err != nil {
		return reconcile.ObserverDetail{}, fmt.Errorf("fetching observer %d: %w", id, err)
	}
	if len(wire) == 0 {
		return reconcile.ObserverDetail{}, fmt.Errorf("%w: observer %d", ErrNoData, id)
	}
	return toDetail(wire[0]), nil
}

// ObserversInRange lists every observer scheduled between start and end.
func (c *Client) ObserversInRange(ctx context.Context, start, end time.Time) ([]reconcile.ObserverDetail, error) {
	params := url.Values{}
	params.Set("startdate", start.Format(dateFormat))
	params.Set("enddate", end.Format(dateFormat))

	var wire []observerInfo
	if err := c.getJSON(ctx, c.endpoints.UserInfo, params, &wire); err != nil {
		return nil, fmt.Errorf("fetching observers in range: %w", err)
	}
	details := make([]reconcile.ObserverDetail, 0, len(wire))
	for _, w := range wire {
		details = append(details, toDetail(w))
	}
	return details, nil
}

func (c *Client) observerByName(ctx context.Context, first, last string) (reconcile.ObserverDetail, error) {
	params := url.Values{}
	params.Set("first", first)
	params.Set("last", last)

	var wire []observerInfo
	if err := c.getJSON(ctx, c.endpoints.Observer, params, &wire); err != nil {
		return reconcile.ObserverDetail{}, err
	}
	if len(wire) == 0 {
		return reconcile.ObserverDetail{}, fmt.Errorf("%w: observer %s %s", ErrNoData, first, last)
	}
	return toDetail(wire[0]), nil
}

func toDetail(w observerInfo) reconcile.ObserverDetail {
	return reconcile.ObserverDetail{
		ID:        w.ID,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Username:  w.Username,
	}
}
