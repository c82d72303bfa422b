package search

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// A Collator keeps scratch buffers and is not safe for concurrent use.
var collators = sync.Pool{
	New: func() any { return collate.New(language.Japanese) },
}

func acquireCollator() *collate.Collator {
	return collators.Get().(*collate.Collator)
}

func releaseCollator(c *collate.Collator) {
	collators.Put(c)
}

// Compare orders a and b the way Japanese readers expect names to sort.
// It returns -1, 0 or 1.
func Compare(a, b string) int {
	c := acquireCollator()
	defer releaseCollator(c)
	return c.CompareString(a, b)
}
