package reconcile

import (
	"context"
	"testing"
)

func rosterProgram(semid string, koa bool) Program {
	sem, code, _ := splitSemID(semid)
	return Program{Semester: sem, ProjCode: code, KoaAccess: koa}
}

func rolesOf(r Roster) map[Role]int {
	counts := make(map[Role]int)
	for _, p := range r.People {
		counts[p.Role]++
	}
	return counts
}

func TestBuildRosterKoaAccessFalse(t *testing.T) {
	e, _, staff, obs, sheets, _ := newTestEngine()
	prog := rosterProgram("2024B_C002", false)
	en := entry("2024B_C002")
	en.ObserverIDs = []int{301}
	sheets.cois["2024B_C002"] = []COI{
		{FirstName: "Carl", LastName: "Osei", Email: "cosei@uni.edu", ObsID: 200},
	}
	obs.byID[301] = ObserverDetail{ID: 301, Email: "opark@uni.edu"}

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{en}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}

	counts := rolesOf(roster)
	if counts[RoleCOI] != 0 || counts[RoleObserver] != 0 {
		t.Errorf("roster has %d coi, %d observer entries with koaAccess false", counts[RoleCOI], counts[RoleObserver])
	}
	if counts[RolePI] != 1 || counts[RoleSA] != 1 || counts[RoleAdmin] != 2 {
		t.Errorf("roster counts = %v, want exactly PI + staff + admins", counts)
	}
}

func TestBuildRosterDeduplicatesPI(t *testing.T) {
	e, _, staff, obs, sheets, _ := newTestEngine()
	prog := rosterProgram("2024B_C001", true)
	en := entry("2024B_C001")
	en.ObserverIDs = []int{100}
	// The PI is also on the observer list under their keckid.
	obs.byID[100] = ObserverDetail{ID: 100, FirstName: "Jane", LastName: "Doe", Email: "jdoe@keck.hawaii.edu", Username: "jdoe"}
	sheets.cois["2024B_C001"] = nil

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{en}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	counts := rolesOf(roster)
	if counts[RolePI] != 1 {
		t.Errorf("pi entries = %d, want 1", counts[RolePI])
	}
	if counts[RoleObserver] != 0 {
		t.Errorf("observer entries = %d, want 0 (PI deduplicated)", counts[RoleObserver])
	}
}

func TestBuildRosterObserverListedAsCOI(t *testing.T) {
	e, _, staff, obs, sheets, _ := newTestEngine()
	prog := rosterProgram("2024B_C001", true)
	en := entry("2024B_C001")
	en.ObserverIDs = []int{200, 301}
	sheets.cois["2024B_C001"] = []COI{
		{FirstName: "Sam", LastName: "Smith", Email: "ssmith@uni.edu", ObsID: 200},
	}
	obs.byID[200] = ObserverDetail{ID: 200, FirstName: "Sam", LastName: "Smith", Email: "ssmith@uni.edu", Username: "ssmith"}
	obs.byID[301] = ObserverDetail{ID: 301, FirstName: "Jo", LastName: "Jones", Email: "jjones@uni.edu", Username: "jjones"}

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{en}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}

	var smithRoles []Role
	for _, p := range roster.People {
		if p.LastName == "Smith" && p.FirstName == "Sam" {
			smithRoles = append(smithRoles, p.Role)
		}
	}
	if len(smithRoles) != 1 || smithRoles[0] != RoleCOI {
		t.Errorf("smith appears as %v, want exactly one coi entry", smithRoles)
	}
	if _, ok := findPerson(roster, RoleObserver, "jjones@uni.edu"); !ok {
		t.Error("jones missing from observer entries")
	}
}

func TestBuildRosterAbsentKeysNeverMatch(t *testing.T) {
	e, _, staff, obs, sheets, _ := newTestEngine()
	prog := rosterProgram("2024B_C001", true)
	en := entry("2024B_C001")
	en.PiKeckID = 0
	en.ObserverIDs = []int{301}
	// Observer shares the PI's zero keckid and empty userid but is a
	// different person; absence of a key must not count as a match.
	obs.byID[301] = ObserverDetail{ID: 0, FirstName: "Olive", LastName: "Park", Email: "opark@uni.edu"}
	sheets.cois["2024B_C001"] = nil

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{en}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	if _, ok := findPerson(roster, RoleObserver, "opark@uni.edu"); !ok {
		t.Error("observer dropped by a zero-key match against the PI")
	}
}

func TestBuildRosterPIOnly(t *testing.T) {
	e, _, staff, _, sheets, _ := newTestEngine()
	e.Policy.PIOnly = true
	prog := rosterProgram("2024B_C001", true)
	sheets.cois["2024B_C001"] = nil

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{entry("2024B_C001")}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	counts := rolesOf(roster)
	if counts[RoleSA] != 0 || counts[RoleAdmin] != 0 {
		t.Errorf("pi-only roster counts = %v, want no staff or admin entries", counts)
	}
}

func TestBuildRosterIgnoredPI(t *testing.T) {
	e, _, staff, _, sheets, _ := newTestEngine()
	e.Policy.IgnoredPIEmails = []string{"keck@hawaii.edu"}
	prog := rosterProgram("2024B_E001", false)
	en := entry("2024B_E001")
	en.PiEmail = "keck@hawaii.edu"
	sheets.cois["2024B_E001"] = nil

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{en}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	if counts := rolesOf(roster); counts[RolePI] != 0 {
		t.Errorf("pi entries = %d, want 0 for ignored address", counts[RolePI])
	}
}

func TestBuildRosterKPFAdminHandle(t *testing.T) {
	e, _, staff, _, _, _ := newTestEngine()
	kpf := true
	prog := rosterProgram("2024B_K001", false)
	prog.KpfAccess = &kpf

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{entry("2024B_K001")}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	if _, ok := findPersonByUserID(roster, RoleAdmin, "cpsadmin"); !ok {
		t.Error("cpsadmin missing from kpf program roster")
	}

	prog.KpfAccess = nil
	roster, err = e.BuildRoster(context.Background(), prog, []ScheduleEntry{entry("2024B_K001")}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	if _, ok := findPersonByUserID(roster, RoleAdmin, "cpsadmin"); ok {
		t.Error("cpsadmin present without a kpf flag")
	}
}

func TestBuildRosterMultiNightObserversOnce(t *testing.T) {
	e, _, staff, obs, sheets, _ := newTestEngine()
	prog := rosterProgram("2024B_C001", true)
	night1 := entry("2024B_C001")
	night1.ObserverIDs = []int{301}
	night2 := entry("2024B_C001")
	night2.ObserverIDs = []int{301}
	obs.byID[301] = ObserverDetail{ID: 301, FirstName: "Olive", LastName: "Park", Email: "opark@uni.edu", Username: "opark"}
	sheets.cois["2024B_C001"] = nil

	roster, err := e.BuildRoster(context.Background(), prog, []ScheduleEntry{night1, night2}, staff.staff)
	if err != nil {
		t.Fatalf("BuildRoster: %v", err)
	}
	var count int
	for _, p := range roster.People {
		if p.Email == "opark@uni.edu" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("observer appears %d times across nights, want 1", count)
	}
}

func TestScheduledObserverNames(t *testing.T) {
	entries := []ScheduleEntry{
		{ObserverNames: []string{"smith", "jones"}, ObserverIDs: []int{301, 302}},
		{ObserverNames: []string{"park"}, ObserverIDs: []int{304, 305}},
		{ObserverNames: []string{"diaz"}, ObserverIDs: []int{306}},
	}

	names := scheduledObserverNames(entries)
	if names[301] != "smith" || names[302] != "jones" || names[306] != "diaz" {
		t.Errorf("names = %v, want paired smith/jones/diaz", names)
	}
	if _, ok := names[304]; ok {
		t.Errorf("names = %v, mismatched-length entry should contribute nothing", names)
	}
}

func findPerson(r Roster, role Role, email string) (Person, bool) {
	for _, p := range r.People {
		if p.Role == role && p.Email == email {
			return p, true
		}
	}
	return Person{}, false
}

func findPersonByUserID(r Roster, role Role, userid string) (Person, bool) {
	for _, p := range r.People {
		if p.Role == role && p.UserID == userid {
			return p, true
		}
	}
	return Person{}, false
}
