package dom

// Index maps the ids handed to the model onto structural selectors.
// An Index is valid only for the extraction it was built from.
type Index struct {
	generation uint64
	paths      []string
}

// NewIndex assigns ids 0..len(elements)-1 in inventory order.
func NewIndex(generation uint64, elements []Element) *Index {
	paths := make([]string, len(elements))
	for i, el := range elements {
		paths[i] = el.DomPath
	}
	return &Index{generation: generation, paths: paths}
}

// Lookup returns the selector for id.
func (x *Index) Lookup(id int) (string, bool) {
	if x == nil || id < 0 || id >= len(x.paths) {
		return "", false
	}
	return x.paths[id], true
}

// Len is the number of addressable ids.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.paths)
}

// Generation is the page generation the index was extracted from.
func (x *Index) Generation() uint64 {
	if x == nil {
		return 0
	}
	return x.generation
}
