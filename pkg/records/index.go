package records

// Index maps canonical identifiers to platform records.
type Index struct {
	byKey      map[string]Remote
	duplicates int
	unkeyed    int
}

// NewIndex builds an index from a listing. The first record seen for an
// identifier wins; later ones are counted as duplicates.
func NewIndex(list []Remote) *Index {
	idx := &Index{byKey: make(map[string]Remote, len(list))}
	for _, r := range list {
		key := r.Key()
		if key == "" {
			idx.unkeyed++
			continue
		}
		if _, exists := idx.byKey[key]; exists {
			idx.duplicates++
			continue
		}
		idx.byKey[key] = r
	}
	return idx
}

// Lookup returns the platform record for a canonical identifier.
func (i *Index) Lookup(key string) (Remote, bool) {
	if i == nil {
		return nil, false
	}
	r, ok := i.byKey[key]
	return r, ok
}

// Len returns the number of indexed identifiers.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byKey)
}

// Duplicates returns how many listed records repeated an indexed identifier.
func (i *Index) Duplicates() int {
	return i.duplicates
}

// Unkeyed returns how many listed records carried no usable identifier.
func (i *Index) Unkeyed() int {
	return i.unkeyed
}
