package vault

import "time"

type PregnancyStatus string

const (
	Pregnant  PregnancyStatus = "pregnant"
	Delivered PregnancyStatus = "delivered"
	Lost      PregnancyStatus = "lost"
)

// Pregnancy links two parents to a child that is on the way.
type Pregnancy struct {
	ID          string          `json:"id"`
	VaultID     string          `json:"vault_id"`
	MotherID    string          `json:"mother_id"`
	FatherID    string          `json:"father_id"`
	ConceivedAt time.Time       `json:"conceived_at"`
	DueAt       time.Time       `json:"due_at"`
	Status      PregnancyStatus `json:"status"`
	ChildID     *string         `json:"child_id,omitempty"`
}

// Due reports whether the pregnancy can deliver at now.
func (p *Pregnancy) Due(now time.Time) bool {
	return p.Status == Pregnant && !now.Before(p.DueAt)
}

// Relationship is the affinity between two dwellers. A is always the
// lexically smaller id.
type Relationship struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Affinity int    `json:"affinity"` // 0–100
}

// PairKey orders two ids so each unordered pair has one key.
func PairKey(x, y string) (string, string) {
	if x > y {
		return y, x
	}
	return x, y
}
