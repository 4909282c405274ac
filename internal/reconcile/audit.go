package reconcile

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// AuditRecord is one observer account examined by AuditObservers, shaped to
// the partner registry's account fields.
type AuditRecord struct {
	Email     string `json:"email"`
	KeckID    int    `json:"keckid"`
	UserID    string `json:"userid"`
	FirstName string `json:"first"`
	LastName  string `json:"last"`
}

// AuditBuckets groups every scheduled observer in a date range by the state
// of their partner account.
type AuditBuckets struct {
	// Valid accounts exist with a matching keckid.
	Valid []AuditRecord
	// NoAccount observers have no partner account at all.
	NoAccount []AuditRecord
	// InvalidKeckID accounts exist but the keckid on file differs from
	// the observatory's; these carry the partner userid for correction.
	InvalidKeckID []AuditRecord
	// NoProgramAccess accounts exist but have no program assigned yet.
	NoProgramAccess []AuditRecord
	// Ignored addresses are on the configured ignore list (segment
	// exchange and engineering accounts).
	Ignored []AuditRecord
	// NeedsAttention accounts returned an ambiguous lookup response.
	NeedsAttention []AuditRecord
}

// AuditObservers examines every observer scheduled in [start, end] against
// the partner registry and buckets each account. A failed range query is
// fatal; a failed per-person lookup skips that person.
func (e *Engine) AuditObservers(ctx context.Context, start, end time.Time, ignore []string) (*AuditBuckets, error) {
	observers, err := e.Observers.ObserversInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("observers in range: %w", err)
	}
	e.log().Info("observer accounts found", "count", len(observers))

	buckets := &AuditBuckets{}
	for _, obs := range observers {
		rec := AuditRecord{
			Email:     obs.Email,
			KeckID:    obs.ID,
			FirstName: obs.FirstName,
			LastName:  obs.LastName,
		}

		acct, err := e.Registry.LookupAccount(ctx, obs.Email)
		if err != nil {
			e.log().Warn("account lookup ambiguous", "email", obs.Email, "err", err)
			buckets.NeedsAttention = append(buckets.NeedsAttention, rec)
			continue
		}

		// A nonexistent account outranks the ignore list: an ignored
		// address only lands in Ignored when the partner knows it.
		switch {
		case acct.Status == AccountNone:
			buckets.NoAccount = append(buckets.NoAccount, rec)
		case slices.Contains(ignore, obs.Email):
			buckets.Ignored = append(buckets.Ignored, rec)
		case acct.Programs == 0:
			buckets.NoProgramAccess = append(buckets.NoProgramAccess, rec)
		case acct.KeckID != obs.ID:
			rec.UserID = acct.UserID
			buckets.InvalidKeckID = append(buckets.InvalidKeckID, rec)
		default:
			rec.UserID = acct.UserID
			buckets.Valid = append(buckets.Valid, rec)
		}
	}
	return buckets, nil
}
