package reconcile

// Index holds the partner registry's known identities for one program,
// keyed by each of the three identity spaces. Rebuilt per program per run;
// keys are program-scoped, never shared across programs.
type Index struct {
	keckids map[int]struct{}
	userids map[string]struct{}
	emails  map[string]struct{}
}

// BuildIndex builds the lookup index from a program's access list. An empty
// grant list yields an empty index: nobody currently has access, which is a
// valid state for a new program.
func BuildIndex(grants []Grant) Index {
	ix := Index{
		keckids: make(map[int]struct{}, len(grants)),
		userids: make(map[string]struct{}, len(grants)),
		emails:  make(map[string]struct{}, len(grants)),
	}
	for _, g := range grants {
		if g.KeckID != 0 {
			ix.keckids[g.KeckID] = struct{}{}
		}
		if g.UserID != "" {
			ix.userids[g.UserID] = struct{}{}
		}
		if g.Email != "" {
			ix.emails[g.Email] = struct{}{}
		}
	}
	return ix
}

// HasKeckID reports whether the numeric identifier is in the access list.
func (ix Index) HasKeckID(id int) bool {
	_, ok := ix.keckids[id]
	return ok
}

// HasUserID reports whether the account handle is in the access list.
func (ix Index) HasUserID(userid string) bool {
	_, ok := ix.userids[userid]
	return ok
}

// HasEmail reports whether the email address is in the access list.
func (ix Index) HasEmail(email string) bool {
	_, ok := ix.emails[email]
	return ok
}

// Size returns the number of distinct account handles indexed.
func (ix Index) Size() int {
	return len(ix.userids)
}
