package vault

import "time"

// Status is a dweller's lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusWorking   Status = "working"
	StatusExploring Status = "exploring"
	StatusTraining  Status = "training"
	StatusResting   Status = "resting"
	StatusDead      Status = "dead"
)

// Gender is used for couple eligibility.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// AgeGroup separates children, who cannot work, explore or breed.
type AgeGroup string

const (
	Child AgeGroup = "child"
	Adult AgeGroup = "adult"
)

// Dweller is a vault inhabitant.
type Dweller struct {
	ID        string    `json:"id"`
	VaultID   string    `json:"vault_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Gender    Gender    `json:"gender"`
	AgeGroup  AgeGroup  `json:"age_group"`
	BornAt    time.Time `json:"born_at"`
	MotherID  *string   `json:"mother_id,omitempty"`
	FatherID  *string   `json:"father_id,omitempty"`

	Status       Status  `json:"status"`
	Special      Special `json:"special"`
	RoomID       *string `json:"room_id,omitempty"`
	ReturnRoomID *string `json:"return_room_id,omitempty"` // restored after exploration or revival

	Level      int     `json:"level"`
	Experience int     `json:"experience"`
	Health     float64 `json:"health"`
	MaxHealth  float64 `json:"max_health"`
	Happiness  float64 `json:"happiness"` // 0–100

	TrainingProgress time.Duration `json:"training_progress"`

	IsDead            bool       `json:"is_dead"`
	IsPermanentlyDead bool       `json:"is_permanently_dead"`
	DeathTimestamp    *time.Time `json:"death_timestamp,omitempty"`
	DeathCause        string     `json:"death_cause,omitempty"`
}

// Name returns the display name.
func (d *Dweller) Name() string {
	if d.LastName == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// Alive reports whether the dweller can take part in gameplay.
func (d *Dweller) Alive() bool {
	return !d.IsDead && !d.IsPermanentlyDead
}

// InVault reports whether the dweller is physically inside the vault.
func (d *Dweller) InVault() bool {
	return d.Alive() && d.Status != StatusExploring
}

// IsAdult reports whether the dweller is grown up.
func (d *Dweller) IsAdult() bool {
	return d.AgeGroup == Adult
}

// Related reports whether two dwellers are parent/child or share a parent.
func Related(a, b *Dweller) bool {
	if eqPtr(a.MotherID, &b.ID) || eqPtr(a.FatherID, &b.ID) ||
		eqPtr(b.MotherID, &a.ID) || eqPtr(b.FatherID, &a.ID) {
		return true
	}
	if a.MotherID != nil && eqPtr(a.MotherID, b.MotherID) {
		return true
	}
	if a.FatherID != nil && eqPtr(a.FatherID, b.FatherID) {
		return true
	}
	return false
}

// ExperienceForLevel is the cumulative experience needed to reach level+1.
func ExperienceForLevel(level int) int {
	return 100 * level * (level + 1) / 2
}

// MaxLevel caps dweller progression.
const MaxLevel = 50

// AddExperience grants experience and applies level-ups. Returns the number
// of levels gained. Each level raises MaxHealth by 2.5 + Endurance/2.
func (d *Dweller) AddExperience(xp int) int {
	if xp <= 0 {
		return 0
	}
	d.Experience += xp
	gained := 0
	for d.Level < MaxLevel && d.Experience >= ExperienceForLevel(d.Level) {
		d.Level++
		gained++
		d.MaxHealth += 2.5 + float64(d.Special.Endurance)/2
	}
	return gained
}

// Damage lowers health, never below floor. Returns the health actually lost.
func (d *Dweller) Damage(amount, floor float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := d.Health
	d.Health -= amount
	if d.Health < floor {
		d.Health = floor
	}
	if d.Health > before {
		d.Health = before
	}
	return before - d.Health
}

// Heal raises health up to MaxHealth.
func (d *Dweller) Heal(amount float64) {
	d.Health += amount
	if d.Health > d.MaxHealth {
		d.Health = d.MaxHealth
	}
}

// AdjustHappiness shifts happiness within [0, 100].
func (d *Dweller) AdjustHappiness(delta float64) {
	d.Happiness += delta
	if d.Happiness < 0 {
		d.Happiness = 0
	}
	if d.Happiness > 100 {
		d.Happiness = 100
	}
}

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
