package engine

// JournalCap bounds the player-facing log.
const JournalCap = 60

// WelcomeLine opens every run.
const WelcomeLine = "You awaken inside a cell with failing energy balance. Restore ATP and reach the nuclear exit."

// Journal is the player-facing log, most recent entry first.
type Journal struct {
	entries []string
}

// NewJournal starts a journal with the welcome line.
func NewJournal() *Journal {
	return &Journal{entries: []string{WelcomeLine}}
}

// Push prepends a line and drops the oldest entries beyond JournalCap.
func (j *Journal) Push(line string) {
	next := make([]string, 0, min(len(j.entries)+1, JournalCap))
	next = append(next, line)
	next = append(next, j.entries...)
	if len(next) > JournalCap {
		next = next[:JournalCap]
	}
	j.entries = next
}

// Entries returns a copy of the log, newest first.
func (j *Journal) Entries() []string {
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	return len(j.entries)
}
