package dedup

// Entry is one row of the frequency table.
type Entry struct {
	Digest string
	Count  int64
	// Size is the length of the first block seen with this digest. It only
	// differs from the block size for a file's trailing block.
	Size int64
	// Stored is the compressed size of that block, zero when no compression
	// estimate was requested.
	Stored int64
}

// Table maps block digests to hit counts and remembers first-seen order
// for display.
type Table struct {
	index   map[string]int
	entries []Entry
	total   int64
}

func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add counts one block and reports whether its digest was new.
func (t *Table) Add(digest string, size int) bool {
	t.total++
	if i, ok := t.index[digest]; ok {
		t.entries[i].Count++
		return false
	}
	t.index[digest] = len(t.entries)
	t.entries = append(t.entries, Entry{Digest: digest, Count: 1, Size: int64(size)})
	return true
}

// SetStored records the compressed size for a digest already in the table.
func (t *Table) SetStored(digest string, n int64) {
	if i, ok := t.index[digest]; ok {
		t.entries[i].Stored = n
	}
}

// Merge folds other into t. Digests new to t are appended in other's order,
// so merging per-file tables in input order keeps the sequential first-seen
// order.
func (t *Table) Merge(other *Table) {
	for _, e := range other.entries {
		t.total += e.Count
		if i, ok := t.index[e.Digest]; ok {
			t.entries[i].Count += e.Count
			continue
		}
		t.index[e.Digest] = len(t.entries)
		t.entries = append(t.entries, e)
	}
}

func (t *Table) Count(digest string) int64 {
	if i, ok := t.index[digest]; ok {
		return t.entries[i].Count
	}
	return 0
}

// Unique is the number of distinct digests.
func (t *Table) Unique() int64 {
	return int64(len(t.entries))
}

// Total is the number of blocks counted.
func (t *Table) Total() int64 {
	return t.total
}

// Entries returns a copy of the rows in first-seen order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// UniqueBytes sums the real length of every distinct block.
func (t *Table) UniqueBytes() int64 {
	var n int64
	for _, e := range t.entries {
		n += e.Size
	}
	return n
}

// StoredBytes sums the compressed size of every distinct block.
func (t *Table) StoredBytes() int64 {
	var n int64
	for _, e := range t.entries {
		n += e.Stored
	}
	return n
}
