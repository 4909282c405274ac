package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoSchedule indicates the schedule source had no entries for a program
// the caller asked to reconcile.
var ErrNoSchedule = errors.New("no schedule entries for program")

// BuildRoster assembles the required-access roster for one program from its
// schedule entries and the pre-fetched staff roster.
//
// Roles are precedence-ordered pi > coi > observer: a candidate COI or
// observer that resolves to the PI is dropped, and an observer that resolves
// to an already-added COI is dropped, so each person appears under exactly
// one role. COIs and observers are only considered when the program's
// koaAccess flag is set. Staff and admin entries are appended to every
// program unless the engine runs in PI-only mode.
func (e *Engine) BuildRoster(ctx context.Context, prog Program, entries []ScheduleEntry, staff []Person) (Roster, error) {
	if len(entries) == 0 {
		return Roster{}, fmt.Errorf("%w: %s", ErrNoSchedule, prog.SemID())
	}

	roster := Roster{Program: prog}
	semid := prog.SemID()

	pi := piFromEntry(entries[0])
	havePI := !e.Policy.ignoresPI(pi.Email)
	if havePI {
		roster.People = append(roster.People, pi)
	} else {
		e.log().Info("ignoring PI", "semid", semid, "email", pi.Email)
	}

	var cois []Person
	if prog.KoaAccess {
		sheet, err := e.CoverSheets.COIs(ctx, semid)
		if err != nil {
			return Roster{}, fmt.Errorf("coversheet COIs for %s: %w", semid, err)
		}
		for _, c := range sheet {
			p := Person{
				KeckID:    c.ObsID,
				UserID:    emailLocalPart(c.Email),
				Email:     c.Email,
				FirstName: c.FirstName,
				LastName:  c.LastName,
				Role:      RoleCOI,
			}
			if havePI && samePerson(p, pi) {
				continue
			}
			cois = append(cois, p)
		}
		roster.People = append(roster.People, cois...)

		names := scheduledObserverNames(entries)
		for _, id := range observerIDs(entries) {
			det, err := e.Observers.ObserverByID(ctx, id)
			if err != nil {
				// A lookup returning nothing for a scheduled
				// observer is valid empty state.
				e.log().Warn("observer lookup failed",
					"semid", semid, "obsid", id, "name", names[id], "err", err)
				continue
			}
			p := Person{
				KeckID:    det.ID,
				UserID:    det.Username,
				Email:     det.Email,
				FirstName: det.FirstName,
				LastName:  det.LastName,
				Role:      RoleObserver,
			}
			if havePI && samePerson(p, pi) {
				continue
			}
			if matchesAny(p, cois) {
				continue
			}
			roster.People = append(roster.People, p)
		}
	}

	if !e.Policy.PIOnly {
		roster.People = append(roster.People, staff...)
		for _, adm := range e.Policy.adminHandles(prog) {
			roster.People = append(roster.People, Person{UserID: adm, Role: RoleAdmin})
		}
	}

	return roster, nil
}

// piFromEntry builds the PI identity from a schedule entry. The schedule
// carries no PI account handle; derive first-initial+lastname, the
// observatory's handle convention, when both names are present.
func piFromEntry(entry ScheduleEntry) Person {
	var userid string
	if entry.PiFirstName != "" && entry.PiLastName != "" {
		userid = strings.ToLower(entry.PiFirstName[:1] + entry.PiLastName)
	}
	return Person{
		KeckID:    entry.PiKeckID,
		UserID:    userid,
		Email:     entry.PiEmail,
		FirstName: entry.PiFirstName,
		LastName:  entry.PiLastName,
		Role:      RolePI,
	}
}

// observerIDs returns the union of observer IDs across a program's schedule
// entries, sorted. Multi-night programs repeat observers; set semantics keep
// each one once.
func observerIDs(entries []ScheduleEntry) []int {
	seen := make(map[int]struct{})
	for _, e := range entries {
		for _, id := range e.ObserverIDs {
			if id != 0 {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// scheduledObserverNames pairs the schedule's observer names with their IDs
// so diagnostics can name an observer whose lookup resolved to nothing. The
// two fields arrive as parallel lists; entries where they disagree in length
// contribute nothing.
func scheduledObserverNames(entries []ScheduleEntry) map[int]string {
	names := make(map[int]string)
	for _, e := range entries {
		if len(e.ObserverNames) != len(e.ObserverIDs) {
			continue
		}
		for i, id := range e.ObserverIDs {
			if id != 0 {
				names[id] = e.ObserverNames[i]
			}
		}
	}
	return names
}

// samePerson reports whether two identity records refer to the same person:
// matching keckid, matching first and last name, or matching account handle.
// An absent key on either side never matches.
func samePerson(a, b Person) bool {
	if a.KeckID != 0 && a.KeckID == b.KeckID {
		return true
	}
	if a.FirstName != "" && a.LastName != "" &&
		a.FirstName == b.FirstName && a.LastName == b.LastName {
		return true
	}
	if a.UserID != "" && a.UserID == b.UserID {
		return true
	}
	return false
}

func matchesAny(p Person, others []Person) bool {
	for _, o := range others {
		if samePerson(p, o) {
			return true
		}
	}
	return false
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
