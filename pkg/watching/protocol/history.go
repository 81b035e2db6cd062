package protocol

// historySize is the number of recent change paths remembered for repetition
// suppression.
const historySize = 2

// History is a small ring buffer of recently reported change paths, used to
// suppress bursts of identical change notifications (e.g. during bulk writes
// to a single file). It is not safe for concurrent usage.
type History struct {
	// paths are the remembered paths.
	paths [historySize]string
	// valid tracks which slots of paths are populated.
	valid [historySize]bool
	// next is the slot that will be overwritten next.
	next int
}

// IsRepetition returns whether or not the path is in the history. If it isn't,
// then it's recorded.
func (h *History) IsRepetition(path string) bool {
	for i := 0; i < historySize; i++ {
		if h.valid[i] && h.paths[i] == path {
			return true
		}
	}
	h.paths[h.next] = path
	h.valid[h.next] = true
	h.next = (h.next + 1) % historySize
	return false
}

// Reset clears the history.
func (h *History) Reset() {
	*h = History{}
}
