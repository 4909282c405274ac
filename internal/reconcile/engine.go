package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// ErrNoStaff indicates the employee source returned no staff. A roster built
// without the staff set would be unsafe to report on, so the whole run
// aborts.
var ErrNoStaff = errors.New("employee source returned no staff")

// Policy carries the run's configurable inclusion rules.
type Policy struct {
	// AdminHandles are the fixed admin accounts appended to every roster.
	AdminHandles []string

	// KPFAdminHandle is additionally appended when a program's kpfAccess
	// flag is set.
	KPFAdminHandle string

	// IgnoredPIEmails are segment-exchange and generic addresses whose PI
	// slot is skipped.
	IgnoredPIEmails []string

	// SkipInstruments excludes schedule entries for non-relevant
	// instrument channels before roster building.
	SkipInstruments []string

	// PIOnly restricts rosters to the PI alone, dropping staff and admin
	// entries.
	PIOnly bool
}

func (p Policy) ignoresPI(email string) bool {
	return email != "" && slices.Contains(p.IgnoredPIEmails, email)
}

func (p Policy) skipsInstrument(instrument string) bool {
	return slices.Contains(p.SkipInstruments, instrument)
}

// adminHandles returns the admin accounts applicable to a program.
func (p Policy) adminHandles(prog Program) []string {
	handles := slices.Clone(p.AdminHandles)
	if p.KPFAdminHandle != "" && prog.KpfAccess != nil && *prog.KpfAccess {
		handles = append(handles, p.KPFAdminHandle)
	}
	return handles
}

// Engine reconciles the observatory registries against the partner archive.
// Programs are processed one at a time; all state is per-program values
// discarded at the end of each iteration.
type Engine struct {
	Schedule    ScheduleSource
	Staff       StaffSource
	Observers   ObserverSource
	CoverSheets CoverSheetSource
	Registry    AccessRegistry
	Policy      Policy
	Log         *slog.Logger
}

func (e *Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// Run reconciles every program scheduled in the window and returns the
// per-program results in semid order.
//
// A failed or empty schedule or employee response aborts the run: a report
// built from a partial source would be misleading. A failed per-program
// partner access query is treated as "nobody has access yet" and the run
// continues.
func (e *Engine) Run(ctx context.Context, start time.Time, numDays int) ([]ProgramResult, error) {
	staff, err := e.Staff.StaffRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("staff roster: %w", err)
	}
	if len(staff) == 0 {
		return nil, ErrNoStaff
	}

	entries, err := e.Schedule.Schedule(ctx, start, numDays)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	byProgram := make(map[string][]ScheduleEntry)
	for _, entry := range entries {
		if e.Policy.skipsInstrument(entry.Instrument) {
			continue
		}
		byProgram[entry.SemID()] = append(byProgram[entry.SemID()], entry)
	}

	semids := make([]string, 0, len(byProgram))
	for semid := range byProgram {
		semids = append(semids, semid)
	}
	slices.Sort(semids)
	e.log().Info("programs found", "count", len(semids))

	var results []ProgramResult
	for _, semid := range semids {
		progEntries := byProgram[semid]
		res, err := e.reconcileProgram(ctx, progEntries, staff)
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", semid, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) reconcileProgram(ctx context.Context, entries []ScheduleEntry, staff []Person) (ProgramResult, error) {
	first := entries[0]
	semid := first.SemID()
	log := e.log().With("semid", semid)

	koa, kpf, err := e.CoverSheets.AccessFlags(ctx, semid)
	if err != nil {
		return ProgramResult{}, fmt.Errorf("access flags: %w", err)
	}
	prog := Program{
		Semester:  first.Semester,
		ProjCode:  first.ProjCode,
		KoaAccess: koa,
		KpfAccess: kpf,
	}

	roster, err := e.BuildRoster(ctx, prog, entries, staff)
	if err != nil {
		return ProgramResult{}, err
	}

	grants, err := e.Registry.UsersWithAccess(ctx, semid)
	if err != nil {
		// A program with no partner response legitimately has zero
		// grantees (brand-new programs); reconcile against an empty
		// index rather than aborting.
		log.Warn("partner access list unavailable, assuming empty", "err", err)
		grants = nil
	}
	ix := BuildIndex(grants)

	result := ProgramResult{Program: prog}
	for _, p := range roster.People {
		matched := HasAccess(p, ix)

		// Admin entries carry only an account handle. An identity with no
		// email has nothing to look up; leave the status unknown so the
		// requirement is reported with no automated action attached.
		var acct AccountLookup
		if !matched && p.Email != "" {
			acct, err = e.Registry.LookupAccount(ctx, p.Email)
			if err != nil {
				// Ambiguous partner response: neither granted nor
				// required can be asserted, so skip the person for
				// this cycle.
				log.Warn("account lookup failed, skipping person",
					"role", p.Role, "email", p.Email, "err", err)
				continue
			}
		}

		action := Classify(prog, p, matched, acct)
		if action.Pending {
			log.Warn("account creation pending manual handling",
				"role", p.Role, "email", p.Email)
		}
		result.Actions = append(result.Actions, action)
	}

	log.Debug("program reconciled",
		"roster", len(roster.People),
		"actions", len(result.Actions),
		"indexed", ix.Size())
	return result, nil
}

// Apply submits the corrective actions from a run to the partner registry.
// Account creation is only ever executed for PIs; Classify never emits it
// for other roles, and Apply rechecks before calling out. Individual
// submission failures are logged and counted, not fatal.
func (e *Engine) Apply(ctx context.Context, w AccessWriter, results []ProgramResult) (applied, failed int) {
	for _, res := range results {
		semid := res.Program.SemID()
		for _, a := range res.Actions {
			var err error
			switch a.Type {
			case ActionGrant:
				err = w.GrantAccess(ctx, semid, a.Person)
			case ActionAddKeckID:
				err = w.AddKeckID(ctx, semid, a.Person)
			case ActionCreateAccount:
				if a.Person.Role != RolePI {
					continue
				}
				err = w.CreateAccount(ctx, semid, a.Person)
			default:
				continue
			}
			if err != nil {
				e.log().Error("apply failed", "semid", semid,
					"action", a.Type, "email", a.Person.Email, "err", err)
				failed++
				continue
			}
			applied++
		}
	}
	return applied, failed
}
