package model

import (
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and test sets with the
// requested test fraction, preserving the class balance of y. Shuffling is
// seeded so the split is reproducible.
func StratifiedSplit(y []int, testFrac float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	byClass := indicesByClass(y)

	for _, class := range []int{0, 1} {
		idx := byClass[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		cut := int(testFrac * float64(len(idx)))
		if cut < 1 && len(idx) > 1 {
			cut = 1
		}
		test = append(test, idx[:cut]...)
		train = append(train, idx[cut:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// StratifiedKFold assigns rows to k shuffled folds preserving class
// balance, and returns the test indices per fold.
func StratifiedKFold(y []int, k int, seed int64) [][]int {
	if k < 2 {
		k = 2
	}
	rng := rand.New(rand.NewSource(seed))
	byClass := indicesByClass(y)

	folds := make([][]int, k)
	for _, class := range []int{0, 1} {
		idx := byClass[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for pos, i := range idx {
			folds[pos%k] = append(folds[pos%k], i)
		}
	}
	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds
}

func indicesByClass(y []int) [2][]int {
	var byClass [2][]int
	for i, label := range y {
		if label == 1 {
			byClass[1] = append(byClass[1], i)
		} else {
			byClass[0] = append(byClass[0], i)
		}
	}
	return byClass
}
