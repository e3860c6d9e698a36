// Room incidents: fires, infestations and raids.
package engine

import (
	"fmt"
	"time"

	"github.com/talgya/vaultsim/internal/vault"
)

// processIncidents advances active incidents, then maybe starts a new one.
func (s *Simulation) processIncidents(t *turn) {
	for _, inc := range t.st.Incidents {
		if inc.Active() && inc.StartTime.Before(t.at) {
			s.fightIncident(t, inc)
		}
	}
	s.maybeSpawnIncident(t)
}

// ContainChance is the per-tick probability dwellers with combined power beat
// back an incident.
func ContainChance(power, threshold float64) float64 {
	if power <= 0 {
		return 0
	}
	return power / (power + threshold)
}

func (s *Simulation) fightIncident(t *turn, inc *vault.Incident) {
	cfg := s.cfg.Incidents
	stat := inc.Type.Stat()
	var present []*vault.Dweller
	power := 0.0
	for _, d := range t.st.Occupants(inc.RoomID) {
		if d.InVault() {
			present = append(present, d)
			power += float64(d.Special.Get(stat))
		}
	}

	if len(present) > 0 && t.rng.Float64() < ContainChance(power, cfg.ContainmentThreshold) {
		inc.Strength -= power
		inc.LastSpreadTime = t.at
		if inc.Strength <= 0 {
			reward := cfg.ContainedReward * inc.Severity
			t.ledger.Credit(vault.Caps, float64(reward))
			s.resolveIncident(t, inc, vault.Contained,
				fmt.Sprintf("the %s was put down, earning %d caps", inc.Type, reward))
			return
		}
	}

	for _, d := range present {
		s.injure(t, d, float64(2*inc.Severity), string(inc.Type))
	}

	if t.at.Sub(inc.StartTime) >= cfg.MaxDuration {
		res, amount := inc.Type.BurnoutLoss()
		lost := t.ledger.Debit(res, amount*float64(inc.Severity))
		s.resolveIncident(t, inc, vault.Burnout,
			fmt.Sprintf("the %s burned out after costing %.0f %s", inc.Type, lost, res))
		return
	}

	if t.at.Sub(inc.LastSpreadTime) < cfg.SpreadInterval {
		return
	}
	inc.LastSpreadTime = t.at
	if inc.Severity < cfg.MaxSeverity {
		inc.Severity++
		inc.Strength += cfg.StrengthPerSeverity
		t.st.Emit(t.at, "incident", fmt.Sprintf("the %s is getting worse (severity %d)", inc.Type, inc.Severity),
			map[string]any{"incident_id": inc.ID, "room_id": inc.RoomID, "severity": inc.Severity})
		return
	}

	room := t.st.Room(inc.RoomID)
	if room == nil {
		return
	}
	for _, next := range t.st.Rooms {
		if next.Category == vault.Misc || !room.Adjacent(next) || t.st.ActiveIncident(next.ID) != nil {
			continue
		}
		spread := s.startIncident(t, next, inc.Type)
		t.st.Emit(t.at, "incident", fmt.Sprintf("the %s spread to the %s", inc.Type, next.Kind),
			map[string]any{"incident_id": spread.ID, "from_incident_id": inc.ID, "room_id": next.ID})
		return
	}
}

func (s *Simulation) resolveIncident(t *turn, inc *vault.Incident, outcome vault.Outcome, desc string) {
	inc.EndTime = vault.TimePtr(t.at)
	inc.Outcome = outcome
	t.res.IncidentsResolved++
	t.st.Emit(t.at, "incident", desc,
		map[string]any{"incident_id": inc.ID, "room_id": inc.RoomID, "outcome": string(outcome)})
}

// maybeSpawnIncident rolls for a new incident, respecting the minimum spacing
// since the most recent one. The roll is shaped by the vault's threat field.
func (s *Simulation) maybeSpawnIncident(t *turn) {
	cfg := s.cfg.Incidents
	if cfg.BaseChancePerTick <= 0 {
		return
	}
	if last := t.st.MostRecentIncident(); last != nil && t.at.Sub(last.StartTime) < cfg.MinSpacing {
		return
	}
	if t.rng.Float64() >= cfg.BaseChancePerTick*t.threat.At(t.at) {
		return
	}

	var targets []*vault.Room
	for _, room := range t.st.Rooms {
		if room.Category == vault.Misc || t.st.ActiveIncident(room.ID) != nil {
			continue
		}
		if len(t.st.Occupants(room.ID)) == 0 {
			continue
		}
		targets = append(targets, room)
	}
	if len(targets) == 0 {
		return
	}
	room := targets[t.rng.Intn(len(targets))]
	kind := vault.IncidentTypes[t.rng.Intn(len(vault.IncidentTypes))]
	inc := s.startIncident(t, room, kind)
	t.st.Emit(t.at, "incident", fmt.Sprintf("%s broke out in the %s", kind, room.Kind),
		map[string]any{"incident_id": inc.ID, "room_id": room.ID})
}

func (s *Simulation) startIncident(t *turn, room *vault.Room, kind vault.IncidentType) *vault.Incident {
	inc := newIncident(t.st.Vault.ID, room.ID, kind, s.cfg.Incidents.StrengthPerSeverity, t.at)
	t.st.Incidents = append(t.st.Incidents, inc)
	t.res.IncidentsStarted++
	return inc
}

func newIncident(vaultID, roomID string, kind vault.IncidentType, strength float64, at time.Time) *vault.Incident {
	return &vault.Incident{
		ID:             vault.NewID(),
		VaultID:        vaultID,
		RoomID:         roomID,
		Type:           kind,
		Severity:       1,
		Strength:       strength,
		StartTime:      at,
		LastSpreadTime: at,
	}
}
