package schema

import "go.mongodb.org/mongo-driver/bson"

// fieldStat accumulates statistics for one field path.
type fieldStat struct {
	name  string
	path  string
	count int64

	kinds     []*kindStat
	kindIndex [len(kindNames)]int8 // position in kinds plus one, zero when absent
}

// kindStat accumulates statistics for one (path, kind) pair.
type kindStat struct {
	kind    Kind
	path    string
	count   int64
	samples *Sample
}

func newFieldStat(name, path string) *fieldStat {
	return &fieldStat{name: name, path: path}
}

// resolveKind returns the kindStat for k, creating it at the end of the
// first-seen order when k has not been observed for this path.
func (f *fieldStat) resolveKind(k Kind, sampleSize int) *kindStat {
	if pos := f.kindIndex[k]; pos > 0 {
		return f.kinds[pos-1]
	}
	ks := &kindStat{
		kind:    k,
		path:    f.path,
		samples: NewSample(sampleSize),
	}
	f.kinds = append(f.kinds, ks)
	f.kindIndex[k] = int8(len(f.kinds))
	return ks
}

// observe records one leaf value of kind k. v must be normalized and owned by the caller.
func (f *fieldStat) observe(k Kind, v any, sampleSize int) {
	ks := f.resolveKind(k, sampleSize)
	ks.count++
	ks.samples.insert(v)
}

// observeElements records one array occurrence, offering each element to the
// Array sample. Elements are not classified on their own.
func (f *fieldStat) observeElements(arr bson.A, sampleSize int) {
	ks := f.resolveKind(KindArray, sampleSize)
	ks.count++
	for _, e := range arr {
		if ks.samples.Full() {
			return
		}
		ks.samples.insert(e)
	}
}

func (f *fieldStat) kindCountSum() int64 {
	var sum int64
	for _, ks := range f.kinds {
		sum += ks.count
	}
	return sum
}
