package ring

// Search returns the index of key in vec, or -1 if absent. vec must be
// sorted ascending except for at most one rotation point, the ordering both
// reconstructed slot times and interchange times produced from them carry.
// One half around the midpoint is always sorted, so the sorted half decides
// which side can hold the key.
func Search(vec []int32, key int32) int {
	lo, hi := 0, len(vec)-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if vec[mid] == key {
			return mid
		}

		if vec[lo] <= vec[mid] {
			// Left half sorted.
			if key >= vec[lo] && key < vec[mid] {
				hi = mid - 1
			} else {
				lo = mid + 1
			}
			continue
		}

		// Right half sorted.
		if key > vec[mid] && key <= vec[hi] {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	return -1
}
