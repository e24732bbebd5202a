package targets

// SelectMain returns the target name closest to the module identifier by edit
// distance. Ties go to the lexically smallest name. ok is false for an empty set.
func SelectMain(set Set, moduleIdent string) (name string, ok bool) {
	best := -1
	for _, n := range set.Names() {
		d := Distance(n, moduleIdent)
		if best < 0 || d < best {
			name, best = n, d
		}
	}
	return name, best >= 0
}
