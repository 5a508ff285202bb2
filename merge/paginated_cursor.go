package merge

import (
	"github.com/squareup/shardmerge/common"
	"github.com/squareup/shardmerge/pagination"
)

// paginatedSource skips the window offset on the first next, then stops after the window row count. It wraps the
// fully merged sequence, so the window applies to the final order.
type paginatedSource struct {
	src     source
	window  pagination.Window
	skipped bool
	emitted int64
}

func newPaginatedSource(src source, window pagination.Window) *paginatedSource {
	return &paginatedSource{src: src, window: window}
}

func (p *paginatedSource) next() (bool, error) {
	if !p.window.IsUnbounded() && p.emitted >= p.window.RowCount {
		return false, nil
	}
	if !p.skipped {
		p.skipped = true
		for i := int64(0); i < p.window.Offset; i++ {
			ok, err := p.src.next()
			if err != nil || !ok {
				return false, err
			}
		}
	}
	ok, err := p.src.next()
	if err != nil || !ok {
		return false, err
	}
	p.emitted++
	return true, nil
}

func (p *paginatedSource) ValueAt(colIndex int) (common.Value, error) {
	return p.src.ValueAt(colIndex)
}

func (p *paginatedSource) close() {
	p.src.close()
}
