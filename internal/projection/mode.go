package projection

// Mode is the evaluation strategy of one binding pass.
type Mode int

const (
	ModeServerOnly Mode = iota
	ModeMixed
)

// String returns the mode's name.
func (m Mode) String() string {
	switch m {
	case ModeServerOnly:
		return "server_only"
	case ModeMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "server_only":
		return ModeServerOnly, true
	case "mixed":
		return ModeMixed, true
	default:
		return 0, false
	}
}
