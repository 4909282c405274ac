// Package reconcile implements the access reconciliation engine: for each
// observing program in a date window it builds the roster of people who need
// archive access, matches them against the partner registry's current access
// list, and classifies each person into a corrective action.
package reconcile

import "fmt"

// Role tags a roster entry with how the person relates to the program.
type Role string

const (
	RolePI       Role = "pi"
	RoleCOI      Role = "coi"
	RoleObserver Role = "observer"
	RoleSA       Role = "sa"
	RoleAdmin    Role = "admin"
)

// Person is a role-tagged identity record. Any of the three identity keys
// (KeckID, UserID, Email) may be absent; zero or empty means unknown.
type Person struct {
	KeckID    int
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      Role
}

// Program is one observing allocation, keyed by semester and project code.
// KpfAccess is nil when the coversheet endpoint had no answer for the
// program; that is a valid state, not an error.
type Program struct {
	Semester  string
	ProjCode  string
	KoaAccess bool
	KpfAccess *bool
}

// SemID returns the program's unique key, e.g. "2024B_C001".
func (p Program) SemID() string {
	return fmt.Sprintf("%s_%s", p.Semester, p.ProjCode)
}

// Roster is the complete set of people who should have archive access to a
// program. Built once by BuildRoster and never mutated afterward.
type Roster struct {
	Program Program
	People  []Person
}

// Access is the decided access state for one person on one program.
type Access string

const (
	AccessGranted  Access = "granted"
	AccessRequired Access = "required"
)

// ActionType is the corrective action needed to satisfy a required access.
type ActionType string

const (
	ActionNone          ActionType = "none"
	ActionGrant         ActionType = "grant_access"
	ActionAddKeckID     ActionType = "add_keckid_and_grant_access"
	ActionCreateAccount ActionType = "create_account_and_grant_access"
)

// Action is the decision record for one person on one program. Pending marks
// a suppressed account creation (non-PI role) awaiting manual handling.
type Action struct {
	Program Program
	Person  Person
	Access  Access
	Type    ActionType
	Pending bool
}

// ProgramResult collects the actions decided for a single program.
type ProgramResult struct {
	Program Program
	Actions []Action
}
