package reconcile

// Classify decides the corrective action for one person. It is pure: the
// partner account lookup result is supplied by the caller, and identical
// inputs always yield identical actions.
//
// Automatic account creation is restricted to PIs. For any other role a
// would-be creation is suppressed rather than emitted: the action stays in
// the report with access "required" so the case is visible, but no automated
// step is taken.
func Classify(prog Program, p Person, matched bool, acct AccountLookup) Action {
	if matched {
		return Action{Program: prog, Person: p, Access: AccessGranted, Type: ActionNone}
	}

	a := Action{Program: prog, Person: p, Access: AccessRequired}
	switch acct.Status {
	case AccountComplete:
		a.Type = ActionGrant
	case AccountMissingID:
		a.Type = ActionAddKeckID
	case AccountNone:
		if p.Role == RolePI {
			a.Type = ActionCreateAccount
		} else {
			a.Type = ActionNone
			a.Pending = true
		}
	default:
		// Lookup unavailable; leave the requirement visible with no
		// automated action attached.
		a.Type = ActionNone
	}
	return a
}
