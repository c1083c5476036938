package output

import "slices"

type Tag string

const (
	TagPlayer Tag = "player"
	TagAI     Tag = "ai"
	TagSystem Tag = "system"
)

type Entry struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Tag  Tag    `json:"tag"`
}

// Log is the terminal's append-only message history. Clear drops the visible
// entries but IDs keep increasing so a typewriter holding an old ID cannot
// write into a newer line.
type Log struct {
	entries []Entry
	nextID  int
}

func NewLog() *Log { return &Log{} }

func (l *Log) Append(text string, tag Tag) int {
	id := l.nextID
	l.nextID++
	l.entries = append(l.entries, Entry{ID: id, Text: text, Tag: tag})
	return id
}

// Begin appends an empty placeholder that Grow fills in.
func (l *Log) Begin(tag Tag) int {
	return l.Append("", tag)
}

func (l *Log) Grow(id int, r rune) bool {
	i := l.find(id)
	if i < 0 {
		return false
	}
	l.entries[i].Text += string(r)
	return true
}

func (l *Log) Clear() {
	l.entries = nil
}

func (l *Log) Len() int { return len(l.entries) }

func (l *Log) Entries() []Entry {
	return slices.Clone(l.entries)
}

// Tail returns up to n of the most recent entries.
func (l *Log) Tail(n int) []Entry {
	if n <= 0 || n >= len(l.entries) {
		return l.Entries()
	}
	return slices.Clone(l.entries[len(l.entries)-n:])
}

func (l *Log) find(id int) int {
	// Growing entries are almost always the last one.
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}
