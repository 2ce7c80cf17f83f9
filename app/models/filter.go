package models

// BookFilter narrows a catalogue listing. Zero values mean "no filter";
// Category "all" is treated the same as empty.
type BookFilter struct {
	Search   string // case-insensitive substring match on title or author
	Category string
	MinPrice *int64
	MaxPrice *int64
}
