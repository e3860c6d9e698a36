package vault

import (
	"time"

	"github.com/talgya/vaultsim/internal/entropy"
)

// Spawner creates dwellers: wasteland arrivals and children born in the vault.
type Spawner struct {
	rng entropy.Source
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng entropy.Source) *Spawner {
	return &Spawner{rng: rng}
}

// Arrival creates an adult with random SPECIAL between 1 and 5 per stat.
func (s *Spawner) Arrival(vaultID string, now time.Time) *Dweller {
	gender := Male
	if s.rng.Float64() < 0.5 {
		gender = Female
	}
	var sp Special
	for _, st := range Stats {
		sp = sp.With(st, entropy.Between(s.rng, 1, 5))
	}
	d := s.base(vaultID, gender, sp, now)
	d.AgeGroup = Adult
	d.FirstName = s.firstName(gender)
	d.LastName = lastNames[s.rng.Intn(len(lastNames))]
	return d
}

// Child creates a newborn. Each stat is the floored mean of the parents'.
func (s *Spawner) Child(mother, father *Dweller, now time.Time) *Dweller {
	gender := Male
	if s.rng.Float64() < 0.5 {
		gender = Female
	}
	var sp Special
	for _, st := range Stats {
		sp = sp.With(st, (mother.Special.Get(st)+father.Special.Get(st))/2)
	}
	d := s.base(mother.VaultID, gender, sp, now)
	d.AgeGroup = Child
	d.FirstName = s.firstName(gender)
	d.LastName = father.LastName
	if d.LastName == "" {
		d.LastName = mother.LastName
	}
	d.MotherID = StrPtr(mother.ID)
	d.FatherID = StrPtr(father.ID)
	return d
}

func (s *Spawner) base(vaultID string, gender Gender, sp Special, now time.Time) *Dweller {
	maxHealth := 105 + float64(sp.Endurance)
	return &Dweller{
		ID:        NewID(),
		VaultID:   vaultID,
		Gender:    gender,
		BornAt:    now.UTC(),
		Status:    StatusIdle,
		Special:   sp,
		Level:     1,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		Happiness: 50,
	}
}

func (s *Spawner) firstName(g Gender) string {
	pool := femaleNames
	if g == Male {
		pool = maleNames
	}
	return pool[s.rng.Intn(len(pool))]
}

var maleNames = []string{
	"Albert", "Barney", "Clyde", "Dusty", "Elmer", "Floyd", "Gus",
	"Harold", "Irving", "Jasper", "Lyle", "Marvin", "Norris", "Otis",
	"Percy", "Rex", "Sherman", "Tucker", "Vernon", "Walt",
}

var femaleNames = []string{
	"Alma", "Betty", "Clara", "Dot", "Edna", "Faye", "Gloria",
	"Hazel", "Irma", "June", "Lois", "Mabel", "Nell", "Opal",
	"Pearl", "Rosie", "Sadie", "Trudy", "Vera", "Wanda",
}

var lastNames = []string{
	"Abernathy", "Baker", "Calloway", "Dawson", "Ellison", "Fletcher",
	"Garrison", "Hollister", "Ingram", "Jennings", "Kowalski", "Lancaster",
	"McCready", "Nolan", "Oakley", "Prescott", "Quarles", "Rutledge",
	"Sullivan", "Thornton", "Underwood", "Wexler",
}
