package vault

import "fmt"

// Stat names one SPECIAL attribute.
type Stat string

const (
	Strength     Stat = "strength"
	Perception   Stat = "perception"
	Endurance    Stat = "endurance"
	Charisma     Stat = "charisma"
	Intelligence Stat = "intelligence"
	Agility      Stat = "agility"
	Luck         Stat = "luck"
)

// Stats lists SPECIAL in canonical order.
var Stats = [7]Stat{Strength, Perception, Endurance, Charisma, Intelligence, Agility, Luck}

const (
	MinStat = 1
	MaxStat = 10
)

// Special is the seven-attribute character stat set.
type Special struct {
	Strength     int `json:"strength"`
	Perception   int `json:"perception"`
	Endurance    int `json:"endurance"`
	Charisma     int `json:"charisma"`
	Intelligence int `json:"intelligence"`
	Agility      int `json:"agility"`
	Luck         int `json:"luck"`
}

// Get returns the value of one stat. Unknown stats read as zero.
func (s Special) Get(stat Stat) int {
	switch stat {
	case Strength:
		return s.Strength
	case Perception:
		return s.Perception
	case Endurance:
		return s.Endurance
	case Charisma:
		return s.Charisma
	case Intelligence:
		return s.Intelligence
	case Agility:
		return s.Agility
	case Luck:
		return s.Luck
	}
	return 0
}

// With returns a copy with one stat replaced, clamped to [MinStat, MaxStat].
func (s Special) With(stat Stat, v int) Special {
	v = clampInt(v, MinStat, MaxStat)
	switch stat {
	case Strength:
		s.Strength = v
	case Perception:
		s.Perception = v
	case Endurance:
		s.Endurance = v
	case Charisma:
		s.Charisma = v
	case Intelligence:
		s.Intelligence = v
	case Agility:
		s.Agility = v
	case Luck:
		s.Luck = v
	}
	return s
}

// String renders the stats as "S3 P4 E5 C6 I7 A8 L9".
func (s Special) String() string {
	return fmt.Sprintf("S%d P%d E%d C%d I%d A%d L%d",
		s.Strength, s.Perception, s.Endurance, s.Charisma, s.Intelligence, s.Agility, s.Luck)
}

// Best returns the highest stat, earliest in SPECIAL order on ties.
func (s Special) Best() Stat {
	best := Stats[0]
	for _, st := range Stats[1:] {
		if s.Get(st) > s.Get(best) {
			best = st
		}
	}
	return best
}

// Validate checks every stat is within [MinStat, MaxStat].
func (s Special) Validate() error {
	for _, st := range Stats {
		if v := s.Get(st); v < MinStat || v > MaxStat {
			return fmt.Errorf("%s %d out of range [%d, %d]", st, v, MinStat, MaxStat)
		}
	}
	return nil
}

// ParseStat converts a stat name to a Stat.
func ParseStat(name string) (Stat, bool) {
	for _, st := range Stats {
		if string(st) == name {
			return st, true
		}
	}
	return "", false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
