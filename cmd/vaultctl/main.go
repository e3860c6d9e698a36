// Command vaultctl issues player and operator commands against the vault
// database that vaultsim ticks. Each invocation runs one command and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/vaultsim/internal/config"
	"github.com/talgya/vaultsim/internal/engine"
	"github.com/talgya/vaultsim/internal/persistence"
	"github.com/talgya/vaultsim/internal/vault"
)

type app struct {
	sim *engine.Simulation
	db  *persistence.DB
	now time.Time
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"found":            {"found -name NAME -number N [-settlers N]", cmdFound},
	"list":             {"list", cmdList},
	"status":           {"status VAULT_ID", cmdStatus},
	"events":           {"events VAULT_ID [-n N]", cmdEvents},
	"assign":           {"assign DWELLER_ID ROOM_ID", cmdAssign},
	"unassign":         {"unassign DWELLER_ID", cmdUnassign},
	"explore":          {"explore DWELLER_ID -hours H", cmdExplore},
	"progress":         {"progress EXPLORATION_ID", cmdProgress},
	"recall":           {"recall EXPLORATION_ID", cmdRecall},
	"complete":         {"complete EXPLORATION_ID", cmdComplete},
	"event":            {"event EXPLORATION_ID", cmdEvent},
	"revive":           {"revive DWELLER_ID", cmdRevive},
	"graveyard":        {"graveyard VAULT_ID", cmdGraveyard},
	"pause":            {"pause VAULT_ID", cmdPause},
	"resume":           {"resume VAULT_ID", cmdResume},
	"rush":             {"rush ROOM_ID", cmdRush},
	"tick":             {"tick VAULT_ID", cmdTick},
	"force-conception": {"force-conception MOTHER_ID FATHER_ID", cmdForceConception},
	"accelerate":       {"accelerate PREGNANCY_ID", cmdAccelerate},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	env, tunables, err := config.Load()
	if err != nil {
		config.Exitf("vaultctl: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: env.SlogLevel()}))
	slog.SetDefault(logger)

	db, err := persistence.Open(env.DBPath)
	if err != nil {
		config.Exitf("vaultctl: %v", err)
	}
	defer db.Close()

	sim, err := engine.New(tunables, db, engine.WithLogger(logger))
	if err != nil {
		config.Exitf("vaultctl: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{sim: sim, db: db, now: time.Now().UTC()}
	if err := cmd.run(ctx, a, os.Args[2:]); err != nil {
		db.Close()
		config.Exitf("vaultctl %s: %v", os.Args[1], err)
	}
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: vaultctl COMMAND [ARGS]")
	fmt.Fprintln(os.Stderr)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

// positional parses flags and requires exactly n positional arguments.
func positional(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	// Allow flags after positional ids: "events ID -n 5".
	var pos []string
	for len(args) > 0 {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
	if len(pos) != n {
		return nil, fmt.Errorf("expected %d argument(s), got %d", n, len(pos))
	}
	return pos, nil
}

func ids(name string, args []string, n int) ([]string, error) {
	return positional(flag.NewFlagSet(name, flag.ContinueOnError), args, n)
}

func cmdFound(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("found", flag.ContinueOnError)
	name := fs.String("name", "", "vault name")
	number := fs.Int("number", 0, "vault number")
	settlers := fs.Int("settlers", 6, "starting dwellers")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}
	if *name == "" || *number <= 0 {
		return fmt.Errorf("-name and a positive -number are required")
	}
	st, err := a.sim.FoundVault(ctx, *name, *number, *settlers)
	if err != nil {
		return err
	}
	fmt.Printf("Vault %d (%s) founded: %s\n", st.Vault.Number, st.Vault.Name, st.Vault.ID)
	printDwellers(a, st)
	return nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	vaultIDs, err := a.sim.VaultIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range vaultIDs {
		st, err := a.sim.Vault(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s  Vault %d %-20s %d dwellers, last tick %s\n",
			id, st.Vault.Number, st.Vault.Name, len(st.Living()),
			humanize.RelTime(st.Vault.GameState.LastTickTime, a.now, "ago", "from now"))
	}
	return nil
}

func cmdStatus(ctx context.Context, a *app, args []string) error {
	pos, err := ids("status", args, 1)
	if err != nil {
		return err
	}
	st, err := a.sim.Vault(ctx, pos[0])
	if err != nil {
		return err
	}
	v := st.Vault
	state := "running"
	if v.GameState.IsPaused {
		state = "paused"
	}
	fmt.Printf("Vault %d (%s) %s, %s\n", v.Number, v.Name, state, engine.GameTime(v.GameState.TotalGameTime))
	fmt.Printf("Founded %s, last tick %s\n", humanize.Time(v.CreatedAt), humanize.Time(v.GameState.LastTickTime))
	for _, kind := range vault.ResourceKinds {
		c := v.Resources.Counter(kind)
		fmt.Printf("  %-10s %s / %s\n", kind, humanize.CommafWithDigits(c.Current, 1), humanize.CommafWithDigits(c.Max, 0))
	}
	fmt.Printf("Storage %d / %d, population %d / %d\n",
		st.Storage.UsedSpace(), st.Storage.MaxSpace, len(st.Living()), st.PopulationCapacity())

	fmt.Println("Rooms:")
	for _, r := range st.Rooms {
		line := fmt.Sprintf("  %s  %-16s floor %d col %d size %d tier %d, %d/%d staff",
			r.ID, r.Kind, r.Floor, r.Column, r.Size, r.Tier, len(st.Occupants(r.ID)), r.Capacity())
		if inc := st.ActiveIncident(r.ID); inc != nil {
			line += fmt.Sprintf(" [%s severity %d]", inc.Type, inc.Severity)
		}
		fmt.Println(line)
	}
	printDwellers(a, st)

	for _, x := range st.Explorations {
		if x.Active() {
			fmt.Printf("Exploring: %s (%s) %d%%, back %s\n",
				x.ID, st.Dweller(x.DwellerID).Name(), x.ProgressPercentage(a.now), humanize.Time(x.DueAt()))
		}
	}
	for _, p := range st.Pregnancies {
		if p.Status == vault.Pregnant {
			fmt.Printf("Pregnancy: %s (%s) due %s\n", p.ID, st.Dweller(p.MotherID).Name(), humanize.Time(p.DueAt))
		}
	}
	return nil
}

func printDwellers(a *app, st *vault.State) {
	fmt.Println("Dwellers:")
	for _, d := range st.Living() {
		room := "-"
		if d.RoomID != nil {
			if r := st.Room(*d.RoomID); r != nil {
				room = string(r.Kind)
			}
		}
		fmt.Printf("  %s  %-22s %-6s %-9s L%-2d HP %3.0f/%3.0f  %-16s %s\n",
			d.ID, d.Name(), d.AgeGroup, d.Status, d.Level, d.Health, d.MaxHealth, room, d.Special)
	}
}

func cmdEvents(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	n := fs.Int("n", 20, "number of events")
	pos, err := positional(fs, args, 1)
	if err != nil {
		return err
	}
	events, err := a.db.RecentEvents(ctx, pos[0], *n)
	if err != nil {
		return err
	}
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		fmt.Printf("%-14s %-12s %s\n", humanize.RelTime(e.At, a.now, "ago", "ahead"), e.Category, e.Description)
	}
	return nil
}

func cmdAssign(ctx context.Context, a *app, args []string) error {
	pos, err := ids("assign", args, 2)
	if err != nil {
		return err
	}
	d, err := a.sim.AssignRoom(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", d.Name(), d.Status)
	return nil
}

func cmdUnassign(ctx context.Context, a *app, args []string) error {
	pos, err := ids("unassign", args, 1)
	if err != nil {
		return err
	}
	d, err := a.sim.UnassignRoom(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", d.Name(), d.Status)
	return nil
}

func cmdExplore(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("explore", flag.ContinueOnError)
	hours := fs.Int("hours", 4, "trip length in hours")
	pos, err := positional(fs, args, 1)
	if err != nil {
		return err
	}
	x, err := a.sim.DispatchExploration(ctx, pos[0], *hours)
	if err != nil {
		return err
	}
	fmt.Printf("Exploration %s started, back %s\n", x.ID, humanize.Time(x.DueAt()))
	return nil
}

func cmdProgress(ctx context.Context, a *app, args []string) error {
	pos, err := ids("progress", args, 1)
	if err != nil {
		return err
	}
	p, err := a.sim.GetExplorationProgress(ctx, pos[0])
	if err != nil {
		return err
	}
	remaining := time.Duration(p.TimeRemainingSeconds) * time.Second
	fmt.Printf("%s: %d%%, %s remaining, %s caps, %d enemies defeated, %d items\n",
		p.Status, p.ProgressPercentage, remaining, humanize.Comma(int64(p.Caps)), p.EnemiesDefeated, len(p.Loot))
	for _, e := range p.Events {
		fmt.Printf("  %s  %s\n", e.At.Format(time.Kitchen), e.Payload.Describe())
	}
	return nil
}

func printRewards(r vault.RewardsSummary) {
	verb := "returned"
	if r.RecalledEarly {
		verb = fmt.Sprintf("recalled at %d%%", r.ProgressPercentage)
	}
	fmt.Printf("Dweller %s: %d distance, %s XP, %s caps, %d enemies defeated\n",
		verb, r.Distance, humanize.Comma(int64(r.Experience)), humanize.Comma(int64(r.Caps)), r.EnemiesDefeated)
	if r.LevelsGained > 0 {
		fmt.Printf("Gained %d level(s)\n", r.LevelsGained)
	}
	for _, it := range r.TransferredItems {
		fmt.Printf("  stored   %s (%s %s)\n", it.Name, it.Rarity, it.Kind)
	}
	for _, it := range r.OverflowItems {
		fmt.Printf("  dropped  %s (%s %s)\n", it.Name, it.Rarity, it.Kind)
	}
}

func cmdRecall(ctx context.Context, a *app, args []string) error {
	pos, err := ids("recall", args, 1)
	if err != nil {
		return err
	}
	r, err := a.sim.RecallExploration(ctx, pos[0])
	if err != nil {
		return err
	}
	printRewards(r)
	return nil
}

func cmdComplete(ctx context.Context, a *app, args []string) error {
	pos, err := ids("complete", args, 1)
	if err != nil {
		return err
	}
	r, err := a.sim.CompleteExploration(ctx, pos[0])
	if err != nil {
		return err
	}
	printRewards(r)
	return nil
}

func cmdEvent(ctx context.Context, a *app, args []string) error {
	pos, err := ids("event", args, 1)
	if err != nil {
		return err
	}
	res, err := a.sim.GenerateEvent(ctx, pos[0])
	if err != nil {
		return err
	}
	if res.Completed {
		printRewards(*res.Rewards)
		return nil
	}
	fmt.Println(res.Entry.Payload.Describe())
	return nil
}

func cmdRevive(ctx context.Context, a *app, args []string) error {
	pos, err := ids("revive", args, 1)
	if err != nil {
		return err
	}
	d, err := a.sim.Revive(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s is back on their feet (%s)\n", d.Name(), d.Status)
	return nil
}

func cmdGraveyard(ctx context.Context, a *app, args []string) error {
	pos, err := ids("graveyard", args, 1)
	if err != nil {
		return err
	}
	dead, err := a.sim.Graveyard(ctx, pos[0])
	if err != nil {
		return err
	}
	for _, d := range dead {
		window := "permanent"
		if !d.IsPermanentlyDead {
			window = fmt.Sprintf("%d day(s) to revive for %s caps",
				a.sim.DaysUntilPermanent(&d, a.now), humanize.Comma(int64(a.sim.RevivalCost(&d))))
		}
		died := "-"
		if d.DeathTimestamp != nil {
			died = humanize.Time(*d.DeathTimestamp)
		}
		fmt.Printf("  %s  %-22s %-12s died %-16s %s\n", d.ID, d.Name(), d.DeathCause, died, window)
	}
	return nil
}

func cmdPause(ctx context.Context, a *app, args []string) error {
	pos, err := ids("pause", args, 1)
	if err != nil {
		return err
	}
	gs, err := a.sim.PauseVault(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Printf("Paused at %s\n", gs.PausedAt.Format(time.RFC3339))
	return nil
}

func cmdResume(ctx context.Context, a *app, args []string) error {
	pos, err := ids("resume", args, 1)
	if err != nil {
		return err
	}
	gs, err := a.sim.ResumeVault(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Printf("Resumed at %s\n", gs.ResumedAt.Format(time.RFC3339))
	return nil
}

func cmdRush(ctx context.Context, a *app, args []string) error {
	pos, err := ids("rush", args, 1)
	if err != nil {
		return err
	}
	r, err := a.sim.RushRoom(ctx, pos[0])
	if err != nil {
		return err
	}
	if r.Success {
		fmt.Printf("Rush succeeded: +%s (%.0f%% risk)\n", humanize.CommafWithDigits(r.Credited, 1), r.FailureChance*100)
		return nil
	}
	fmt.Printf("Rush failed (%.0f%% risk): %s broke out\n", r.FailureChance*100, r.Incident.Type)
	return nil
}

func cmdTick(ctx context.Context, a *app, args []string) error {
	pos, err := ids("tick", args, 1)
	if err != nil {
		return err
	}
	r, err := a.sim.Tick(ctx, pos[0], a.now)
	if err != nil {
		return err
	}
	fmt.Printf("%s tick(s) up to %s\n", humanize.Comma(int64(r.ElapsedTicks)), r.LastTickTime.Format(time.RFC3339))
	var parts []string
	for _, kind := range vault.ResourceKinds {
		if p, c := r.Produced[kind], r.Consumed[kind]; p != 0 || c != 0 {
			parts = append(parts, fmt.Sprintf("%s +%.1f/-%.1f", kind, p, c))
		}
	}
	if len(parts) > 0 {
		fmt.Println("  " + strings.Join(parts, ", "))
	}
	fmt.Printf("  births %d, deaths %d, incidents %d started %d resolved, %d returns\n",
		r.Births, r.Deaths, r.IncidentsStarted, r.IncidentsResolved, len(r.Returns))
	for _, f := range r.Failures {
		fmt.Printf("  failed %s %s: %s\n", f.Entity, f.ID, f.Error)
	}
	return nil
}

func cmdForceConception(ctx context.Context, a *app, args []string) error {
	pos, err := ids("force-conception", args, 2)
	if err != nil {
		return err
	}
	p, err := a.sim.ForceConception(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Printf("Pregnancy %s due %s\n", p.ID, humanize.Time(p.DueAt))
	return nil
}

func cmdAccelerate(ctx context.Context, a *app, args []string) error {
	pos, err := ids("accelerate", args, 1)
	if err != nil {
		return err
	}
	p, err := a.sim.AcceleratePregnancy(ctx, pos[0])
	if err != nil {
		return err
	}
	fmt.Printf("Pregnancy %s now due %s\n", p.ID, p.DueAt.Format(time.RFC3339))
	return nil
}
