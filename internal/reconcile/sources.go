package reconcile

import (
	"context"
	"time"
)

// ScheduleEntry is one night's telescope schedule row, with the source's
// comma-joined observer fields already split into slices.
type ScheduleEntry struct {
	Semester      string
	ProjCode      string
	PiEmail       string
	PiFirstName   string
	PiLastName    string
	PiKeckID      int
	ObserverNames []string
	ObserverIDs   []int
	SchedID       int
	Instrument    string
}

// SemID returns the program key this entry belongs to.
func (e ScheduleEntry) SemID() string {
	return e.Semester + "_" + e.ProjCode
}

// COI is a co-investigator record from the program coversheet. Type carries
// the coversheet's own sub-role label; roster entries always use RoleCOI.
type COI struct {
	Type      string
	FirstName string
	LastName  string
	Email     string
	ObsID     int
}

// ObserverDetail is an identity record from the observer-info service.
type ObserverDetail struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
	Username  string
}

// Grant is one entry in the partner registry's access list for a program.
type Grant struct {
	KeckID int
	UserID string
	Email  string
}

// AccountStatus tags the outcome of a partner account lookup.
type AccountStatus int

const (
	// AccountUnknown means no lookup was performed or it failed.
	AccountUnknown AccountStatus = iota
	// AccountNone means the partner has no account for the identity.
	AccountNone
	// AccountMissingID means an account exists but lacks the numeric
	// identifier on file.
	AccountMissingID
	// AccountComplete means a full account exists.
	AccountComplete
)

// String returns the status name for logs.
func (s AccountStatus) String() string {
	switch s {
	case AccountNone:
		return "no_account"
	case AccountMissingID:
		return "account_missing_keckid"
	case AccountComplete:
		return "account_complete"
	default:
		return "unknown"
	}
}

// AccountLookup is the partner registry's answer for a candidate identity.
// UserID and KeckID carry what the partner has on file; Programs counts the
// access rows returned for the account.
type AccountLookup struct {
	Status   AccountStatus
	UserID   string
	KeckID   int
	Programs int
}

// ScheduleSource provides the telescope schedule for a date window.
type ScheduleSource interface {
	Schedule(ctx context.Context, date time.Time, numDays int) ([]ScheduleEntry, error)
}

// StaffSource provides the current staff roster, identity keys resolved.
type StaffSource interface {
	StaffRoster(ctx context.Context) ([]Person, error)
}

// ObserverSource resolves observer identities.
type ObserverSource interface {
	ObserverByID(ctx context.Context, id int) (ObserverDetail, error)
	ObserversInRange(ctx context.Context, start, end time.Time) ([]ObserverDetail, error)
}

// CoverSheetSource provides program coversheet data.
type CoverSheetSource interface {
	COIs(ctx context.Context, semid string) ([]COI, error)
	AccessFlags(ctx context.Context, semid string) (koa bool, kpf *bool, err error)
}

// AccessRegistry is the partner archive's access-control registry.
type AccessRegistry interface {
	UsersWithAccess(ctx context.Context, semid string) ([]Grant, error)
	LookupAccount(ctx context.Context, email string) (AccountLookup, error)
}

// AccessWriter submits corrective actions to the partner registry.
type AccessWriter interface {
	GrantAccess(ctx context.Context, semid string, p Person) error
	AddKeckID(ctx context.Context, semid string, p Person) error
	CreateAccount(ctx context.Context, semid string, p Person) error
}
