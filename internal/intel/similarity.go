package intel

// Ratio returns the Ratcliff/Obershelp similarity of two strings: twice the
// number of matching characters divided by the total length. 1.0 means
// identical, 0.0 means nothing in common. Deterministic for identical inputs.
func Ratio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(totalMatching(ar, br)) / float64(total)
}

// totalMatching sums the lengths of all matching blocks found by repeatedly
// taking the longest common run and recursing on the pieces to its left and
// right.
func totalMatching(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type chunk struct{ alo, ahi, blo, bhi int }
	queue := []chunk{{0, len(a), 0, len(b)}}
	matched := 0

	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, c.alo, c.ahi, c.blo, c.bhi, b2j)
		if k == 0 {
			continue
		}
		matched += k
		queue = append(queue,
			chunk{c.alo, i, c.blo, j},
			chunk{i + k, c.ahi, j + k, c.bhi})
	}
	return matched
}

// longestMatch finds the longest run a[i:i+k] == b[j:j+k] within the given
// bounds. Ties resolve to the earliest i, then the earliest j, so repeated
// runs yield identical results.
func longestMatch(a []rune, alo, ahi, blo, bhi int, b2j map[rune][]int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
