package reconcile

// HasAccess reports whether the person already appears in the partner
// registry's access list for the program.
//
// The two registries are independently operated and drift: emails change,
// aliases change, numeric IDs go missing. No single key is trustworthy, so a
// match on any one of the three key spaces is treated as sufficient proof of
// existing access. The check order is short-circuit efficiency only, not
// precedence. An absent key (zero keckid, empty userid or email) never
// matches.
func HasAccess(p Person, ix Index) bool {
	if p.KeckID != 0 && ix.HasKeckID(p.KeckID) {
		return true
	}
	if p.UserID != "" && ix.HasUserID(p.UserID) {
		return true
	}
	if p.Email != "" && ix.HasEmail(p.Email) {
		return true
	}
	return false
}
