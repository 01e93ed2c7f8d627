package prettydiff

// pending holds the removed and added lines of a hunk that have not been written yet. Removed lines are only accepted while no added line is buffered, so the
// buffer always reads as one run of removals followed by one run of additions.
type pending struct {
	removed [][]byte
	added   [][]byte
}

func (p *pending) empty() bool {
	return len(p.removed) == 0 && len(p.added) == 0
}

// canRemove reports whether a removed line extends the current run.
func (p *pending) canRemove() bool {
	return len(p.added) == 0
}

func (p *pending) remove(line []byte) {
	p.removed = append(p.removed, line)
}

func (p *pending) add(line []byte) {
	p.added = append(p.added, line)
}

// paired reports whether the runs pair line i with line i. That only happens when both runs have the same, nonzero length.
func (p *pending) paired() bool {
	return len(p.removed) > 0 && len(p.removed) == len(p.added)
}

// flush appends every buffered line to dst, removed lines first, highlighting each against its pair when the runs are paired. The buffer is empty afterwards.
func (p *pending) flush(dst []byte) []byte {
	paired := p.paired()
	for i, line := range p.removed {
		var pair []byte
		if paired {
			pair = p.added[i]
		}
		dst = appendLine(dst, line, computeSpans(line, pair), true)
	}
	for i, line := range p.added {
		var pair []byte
		if paired {
			pair = p.removed[i]
		}
		dst = appendLine(dst, line, computeSpans(line, pair), true)
	}

	clear(p.removed)
	clear(p.added)
	p.removed = p.removed[:0]
	p.added = p.added[:0]
	return dst
}
