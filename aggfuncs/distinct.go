package aggfuncs

import (
	"bytes"

	"github.com/squareup/shardmerge/common"
	"github.com/twmb/murmur3"
)

// valueSet holds the distinct non-null values seen by a DISTINCT aggregate, keyed by their canonical encoding.
type valueSet struct {
	buckets map[uint64][][]byte
	count   int
	sum     common.Value
}

func newValueSet() *valueSet {
	return &valueSet{buckets: map[uint64][][]byte{}}
}

// add returns true if v was not already in the set. ok is false if v has no canonical encoding.
func (s *valueSet) add(v common.Value) (added bool, ok bool) {
	enc, ok := common.KeyEncodeValue(nil, v, false)
	if !ok {
		return false, false
	}
	h := murmur3.Sum64(enc)
	bucket := s.buckets[h]
	for _, existing := range bucket {
		if bytes.Equal(existing, enc) {
			return false, true
		}
	}
	s.buckets[h] = append(bucket, enc)
	s.count++
	return true, true
}

func (s *valueSet) size() int {
	return s.count
}
