package vectorstore

// presenceVector returns v, substituting a unit basis vector when v is all
// zeros. Presence and purge queries use a zero vector because the match
// score is irrelevant, but cosine distance is undefined for a zero query.
func presenceVector(v []float32) []float32 {
	for _, x := range v {
		if x != 0 {
			return v
		}
	}
	if len(v) == 0 {
		return v
	}
	unit := make([]float32, len(v))
	unit[0] = 1
	return unit
}
