package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/keckobservatory/koa-daa/internal/reconcile"
)

type accessListResponse struct {
	Response struct {
		Detail []accessGrant `json:"detail"`
	} `json:"response"`
}

type accessGrant struct {
	KeckID int    `json:"keckid"`
	UserID string `json:"userid"`
	Email  string `json:"email"`
}

// UsersWithAccess returns the people currently granted access to a program.
// Errors propagate so the caller can decide; the engine treats them as
// "nobody has access yet", which is valid state for new programs.
func (c *Client) UsersWithAccess(ctx context.Context, semid string) ([]reconcile.Grant, error) {
	params := url.Values{}
	params.Set("request", "GET_USERS_WITH_ACCESS")
	params.Set("semid", semid)

	body, err := c.get(ctx, c.endpoints.Access, params, true)
	if err != nil {
		return nil, fmt.Errorf("access list for %s: %w", semid, err)
	}

	var wire accessListResponse
	if err := decode(body, &wire); err != nil {
		return nil, fmt.Errorf("access list for %s: %w", semid, err)
	}

	grants := make([]reconcile.Grant, 0, len(wire.Response.Detail))
	for _, g := range wire.Response.Detail {
		grants = append(grants, reconcile.Grant{
			KeckID: g.KeckID,
			UserID: g.UserID,
			Email:  g.Email,
		})
	}
	return grants, nil
}

// userCheckResponse is the account lookup wire shape. The access field is a
// list of access rows on success but degrades to a bare string on partner
// faults, so it stays raw until inspected.
type userCheckResponse struct {
	Status string          `json:"status"`
	Access json.RawMessage `json:"access"`
}

type userAccessRow struct {
	SemID  string `json:"semid"`
	KeckID int    `json:"keckid"`
	UserID string `json:"userid"`
}

// LookupAccount asks the partner what it knows about an identity and tags
// the answer: no account, account without a keckid on file, or full
// account. An unexpected response shape is ErrAmbiguous.
func (c *Client) LookupAccount(ctx context.Context, email string) (reconcile.AccountLookup, error) {
	params := url.Values{}
	params.Set("user", email)

	body, err := c.get(ctx, c.endpoints.UserCheck, params, false)
	if err != nil {
		return reconcile.AccountLookup{}, fmt.Errorf("account lookup for %s: %w", email, err)
	}

	var wire userCheckResponse
	if err := decode(body, &wire); err != nil {
		return reconcile.AccountLookup{}, fmt.Errorf("account lookup for %s: %w", email, err)
	}

	if wire.Status == "UNSUCCESSFUL" {
		return reconcile.AccountLookup{Status: reconcile.AccountNone}, nil
	}

	var rows []userAccessRow
	if err := json.Unmarshal(wire.Access, &rows); err != nil {
		// Partner faults arrive as a string in the access field.
		return reconcile.AccountLookup{}, fmt.Errorf("%w: access field for %s: %s", ErrAmbiguous, email, truncate(wire.Access))
	}

	lookup := reconcile.AccountLookup{Programs: len(rows)}
	if len(rows) == 0 {
		// Account exists but has no program rows yet; nothing to
		// correct beyond the grant itself.
		lookup.Status = reconcile.AccountComplete
		return lookup, nil
	}

	lookup.UserID = rows[0].UserID
	lookup.KeckID = rows[0].KeckID
	if rows[0].KeckID == 0 {
		lookup.Status = reconcile.AccountMissingID
	} else {
		lookup.Status = reconcile.AccountComplete
	}
	return lookup, nil
}

// GrantAccess requests program access for an existing account.
func (c *Client) GrantAccess(ctx context.Context, semid string, p reconcile.Person) error {
	return c.submit(ctx, "GRANT_ACCESS", semid, p)
}

// AddKeckID corrects the numeric identifier on the partner account and
// grants program access.
func (c *Client) AddKeckID(ctx context.Context, semid string, p reconcile.Person) error {
	return c.submit(ctx, "ADD_KECKID", semid, p)
}

// CreateAccount creates a partner account and grants program access.
// Refused for non-PI roles regardless of what the caller decided.
func (c *Client) CreateAccount(ctx context.Context, semid string, p reconcile.Person) error {
	if p.Role != reconcile.RolePI {
		return fmt.Errorf("%w: %s is %s", ErrCreateRestricted, p.Email, p.Role)
	}
	return c.submit(ctx, "CREATE_ACCOUNT", semid, p)
}

type submitResponse struct {
	Response struct {
		Status string `json:"status"`
	} `json:"response"`
}

func (c *Client) submit(ctx context.Context, request, semid string, p reconcile.Person) error {
	params := url.Values{}
	params.Set("request", request)
	params.Set("semid", semid)
	params.Set("email", p.Email)
	params.Set("userid", p.UserID)
	if p.KeckID != 0 {
		params.Set("keckid", strconv.Itoa(p.KeckID))
	}

	body, err := c.get(ctx, c.endpoints.Access, params, true)
	if err != nil {
		return fmt.Errorf("%s for %s: %w", request, semid, err)
	}

	var wire submitResponse
	if err := decode(body, &wire); err != nil {
		return fmt.Errorf("%s for %s: %w", request, semid, err)
	}
	if wire.Response.Status != "SUCCESSFUL" {
		return fmt.Errorf("%s for %s: partner status %q", request, semid, wire.Response.Status)
	}
	return nil
}
