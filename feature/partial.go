package feature

// partialCache keeps raw samples that didn't make a full pixel during the
// previous pass. Values are popped from the front by advancing the head
// index, storage is compacted on append.
type partialCache struct {
	values []float64
	head   int
}

// Append adds samples to the back.
func (p *partialCache) Append(v ...float64) {
	if len(v) == 0 {
		return
	}
	if p.head > 0 && len(p.values)+len(v) > cap(p.values) {
		n := copy(p.values, p.values[p.head:])
		p.values = p.values[:n]
		p.head = 0
	}
	p.values = append(p.values, v...)
}

// PopFront removes the oldest sample.
func (p *partialCache) PopFront() (float64, bool) {
	if p.head == len(p.values) {
		return 0, false
	}
	v := p.values[p.head]
	p.head++
	if p.head == len(p.values) {
		p.Reset()
	}
	return v, true
}

// Len returns number of cached samples.
func (p *partialCache) Len() int {
	return len(p.values) - p.head
}

// Reset drops all samples and keeps the storage.
func (p *partialCache) Reset() {
	p.values = p.values[:0]
	p.head = 0
}
