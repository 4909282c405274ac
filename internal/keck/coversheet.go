package keck

import (
	"context"
	"fmt"
	"net/url"

	"github.com/keckobservatory/koa-daa/internal/reconcile"
)

type coiResponse struct {
	Data struct {
		COIs []coiRecord `json:"COIs"`
	} `json:"data"`
}

type coiRecord struct {
	KTN       string `json:"KTN"`
	Type      string `json:"Type"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	ObsID     int    `json:"ObsId"`
}

// COIs returns the co-investigators from a program's coversheet.
func (c *Client) COIs(ctx context.Context, semid string) ([]reconcile.COI, error) {
	params := url.Values{}
	params.Set("ktn", semid)

	var wire coiResponse
	if err := c.getJSON(ctx, c.endpoints.COI, params, &wire); err != nil {
		return nil, fmt.Errorf("fetching COIs for %s: %w", semid, err)
	}

	cois := make([]reconcile.COI, 0, len(wire.Data.COIs))
	for _, w := range wire.Data.COIs {
		cois = append(cois, reconcile.COI{
			Type:      w.Type,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			Email:     w.Email,
			ObsID:     w.ObsID,
		})
	}
	return cois, nil
}

type koaFlag struct {
	KoaAccess int `json:"KoaAccess"`
}

type kpfFlag struct {
	KpfAccess int `json:"KpfAccess"`
}

// AccessFlags returns a program's coversheet access flags. A failed
// koaAccess query is an error; the kpfAccess endpoint postdates most
// semesters, so a failed kpf query yields nil rather than an error.
func (c *Client) AccessFlags(ctx context.Context, semid string) (bool, *bool, error) {
	params := url.Values{}
	params.Set("ktn", semid)

	var koa koaFlag
	if err := c.getJSON(ctx, c.endpoints.KOA, params, &koa); err != nil {
		return false, nil, fmt.Errorf("fetching koaAccess for %s: %w", semid, err)
	}

	var kpf *bool
	var kpfWire kpfFlag
	if err := c.getJSON(ctx, c.endpoints.KPF, params, &kpfWire); err == nil {
		v := kpfWire.KpfAccess != 0
		kpf = &v
	}

	return koa.KoaAccess != 0, kpf, nil
}
