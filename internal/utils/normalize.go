package utils

// CreateRankList returns the ranks 1..count of an already sorted list, as
// sent on the wire.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := range ranks {
		ranks[i] = uint16(min(i+1, 65535))
	}
	return ranks
}
