package wager

// Status is the lifecycle state of a squad entry.
//
// Transitions only ever move forward:
//
//	ToBeValidated -> Validated -> Win -> Redeemed
//	ToBeValidated -> Validated -> Lose
//	ToBeValidated -> any Invalid* reason
type Status uint8

const (
	StatusToBeValidated Status = iota
	StatusValidated
	StatusWin
	StatusLose
	StatusRedeemed

	// Invalidation reasons assigned by the oracle. All terminal.
	StatusInvalidSeason
	StatusInvalidLeague
	StatusInvalidRound
	StatusInvalidSameClubCount
	StatusInvalidPlayerLeague
	StatusInvalidPointTotal
	StatusInvalidFormation
	StatusInvalidDeadline
)

var statusNames = map[Status]string{
	StatusToBeValidated:        "to_be_validated",
	StatusValidated:            "validated",
	StatusWin:                  "win",
	StatusLose:                 "lose",
	StatusRedeemed:             "redeemed",
	StatusInvalidSeason:        "invalid_season",
	StatusInvalidLeague:        "invalid_league",
	StatusInvalidRound:         "invalid_round",
	StatusInvalidSameClubCount: "invalid_same_club_count",
	StatusInvalidPlayerLeague:  "invalid_player_league",
	StatusInvalidPointTotal:    "invalid_point_total",
	StatusInvalidFormation:     "invalid_formation",
	StatusInvalidDeadline:      "invalid_deadline",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStatus maps a wire name back to a Status.
func ParseStatus(name string) (Status, bool) {
	for status, n := range statusNames {
		if n == name {
			return status, true
		}
	}
	return Status(0), false
}

// IsInvalidReason reports whether s is one of the recognized oracle
// invalidation reasons.
func (s Status) IsInvalidReason() bool {
	return s >= StatusInvalidSeason && s <= StatusInvalidDeadline
}

// IsTerminal reports whether no further oracle-driven transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusToBeValidated, StatusValidated:
		return false
	default:
		return true
	}
}
