package paged

// Mode selects how a paged file is opened.
type Mode int

const (
	// ModeAppend opens the file writable and grows it as data is appended.
	ModeAppend Mode = iota
	// ModeRead opens the file read-only. The committed extent is fixed at open
	// time until Refresh is called.
	ModeRead
	// ModeBulk opens the file read-only for large sequential scans. Pages are
	// mapped ahead of the read position and advised as sequential.
	ModeBulk
)

// Writable reports whether the mode permits writes.
func (m Mode) Writable() bool {
	return m == ModeAppend
}

func (m Mode) String() string {
	switch m {
	case ModeAppend:
		return "append"
	case ModeRead:
		return "read"
	case ModeBulk:
		return "bulk"
	default:
		return "unknown"
	}
}
