package xwm

type Mode int

const (
	ModeNormal Mode = iota
	ModeMoving
	ModeResizing
	ModeAuxiliary
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeMoving:
		return "moving"
	case ModeResizing:
		return "resizing"
	case ModeAuxiliary:
		return "auxiliary"
	default:
		return "unknown"
	}
}
