// Package report assembles reconciliation results into the run report,
// renders it for terminal or mail, and dispatches it.
package report

import (
	"sort"
	"time"

	"github.com/keckobservatory/koa-daa/internal/reconcile"
)

// Record is one serialized action. Field order is fixed for human-diffable
// output; the trailing access-mode flags appear only on pi records
// (koa_access, kpf_access) and admin records (kpf_access), reflecting
// program-level state rather than per-person state.
type Record struct {
	SemID     string `json:"semid"`
	UserType  string `json:"usertype"`
	KeckID    int    `json:"keckid"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	UserID    string `json:"userid"`
	Access    string `json:"access"`
	Action    string `json:"action"`
	Pending   bool   `json:"pending,omitempty"`
	KoaAccess *bool  `json:"koa_access,omitempty"`
	KpfAccess *bool  `json:"kpf_access,omitempty"`
}

// ProgramReport is the ordered action list for one program.
type ProgramReport struct {
	SemID   string
	Records []Record
}

// Report is the run's complete output.
type Report struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Days     int
	Programs []ProgramReport
}

// Assemble builds the report from per-program results, imposing the one
// deterministic ordering the output carries: programs ascending by semid.
// No action is dropped; suppressed creations keep their decided access
// state for visibility.
func Assemble(runID string, start time.Time, days int, results []reconcile.ProgramResult) *Report {
	rep := &Report{
		RunID: runID,
		Start: start,
		End:   start.AddDate(0, 0, days-1),
		Days:  days,
	}
	for _, res := range results {
		pr := ProgramReport{SemID: res.Program.SemID()}
		for _, a := range res.Actions {
			pr.Records = append(pr.Records, toRecord(a))
		}
		rep.Programs = append(rep.Programs, pr)
	}
	sort.Slice(rep.Programs, func(i, j int) bool {
		return rep.Programs[i].SemID < rep.Programs[j].SemID
	})
	return rep
}

func toRecord(a reconcile.Action) Record {
	rec := Record{
		SemID:     a.Program.SemID(),
		UserType:  string(a.Person.Role),
		KeckID:    a.Person.KeckID,
		Email:     a.Person.Email,
		FirstName: a.Person.FirstName,
		LastName:  a.Person.LastName,
		UserID:    a.Person.UserID,
		Access:    string(a.Access),
		Action:    string(a.Type),
		Pending:   a.Pending,
	}
	switch a.Person.Role {
	case reconcile.RolePI:
		koa := a.Program.KoaAccess
		rec.KoaAccess = &koa
		rec.KpfAccess = a.Program.KpfAccess
	case reconcile.RoleAdmin:
		rec.KpfAccess = a.Program.KpfAccess
	}
	return rec
}

// Counts tallies the report's decided access states.
type Counts struct {
	Granted  int
	Required int
	Pending  int
}

// Summary counts access states across all programs.
func (r *Report) Summary() Counts {
	var c Counts
	for _, pr := range r.Programs {
		for _, rec := range pr.Records {
			switch {
			case rec.Pending:
				c.Pending++
			case rec.Access == string(reconcile.AccessGranted):
				c.Granted++
			default:
				c.Required++
			}
		}
	}
	return c
}
