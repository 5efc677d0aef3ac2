package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/config"
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/pkg/logger"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// mapFlags are shared by every subcommand that builds a battle.
type mapFlags struct {
	seed     int64
	radius   int
	logLevel string
}

func (f *mapFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "Map seed")
	cmd.Flags().IntVar(&f.radius, "radius", 10, "Map radius in hexes")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "Log level")
}

func (f *mapFlags) session(tweak func(cfg *config.BattleConfig)) *battle.Session {
	cfg := config.Default().Battle
	cfg.MapSeed = f.seed
	cfg.MapRadius = f.radius
	if tweak != nil {
		tweak(&cfg)
	}
	log := logger.New(f.logLevel, "text")
	log.SetOutput(os.Stderr)
	return battle.NewGeneratedSession("hexsim", cfg, nil, log)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hexsim",
		Short: "Inspect generated battle maps, paths and fog of war",
	}

	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(fogCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func pathCmd() *cobra.Command {
	var (
		mf        mapFlags
		from, to  string
		openWorld bool
		enemies   []string
	)

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Find the cheapest path between two hexes and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseAxial(from)
			if err != nil {
				return err
			}
			goal, err := parseAxial(to)
			if err != nil {
				return err
			}

			s := mf.session(nil)
			mover := models.NewUnit("mover", s.PlayerSide(), start, 0, 0)
			if err := s.AddUnit(mover); err != nil {
				return err
			}
			if err := addEnemies(s, enemies); err != nil {
				return err
			}

			if openWorld {
				res, ok := s.FindOpenWorldPath(start, goal)
				return printPath(cmd, s, res.Steps, res.Cost, ok)
			}
			res, ok := s.PathFor(mover, goal)
			return printPath(cmd, s, res.Steps, res.Cost, ok)
		},
	}

	mf.register(cmd)
	cmd.Flags().StringVar(&from, "from", "0,0", "Start hex as q,r")
	cmd.Flags().StringVar(&to, "to", "", "Goal hex as q,r")
	cmd.Flags().BoolVar(&openWorld, "open-world", false, "Use the open-world policy (uniform cost, no zone of control)")
	cmd.Flags().StringArrayVar(&enemies, "enemy", nil, "Place a hostile unit at q,r (repeatable)")
	cmd.MarkFlagRequired("to")
	return cmd
}

func fogCmd() *cobra.Command {
	var (
		mf        mapFlags
		at        string
		sight     int
		occlusion bool
		enemies   []string
	)

	cmd := &cobra.Command{
		Use:   "fog",
		Short: "Place a scout and print its side's fog of war",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pos, err := parseAxial(at)
			if err != nil {
				return err
			}

			s := mf.session(func(cfg *config.BattleConfig) { cfg.Occlusion = occlusion })
			if err := s.AddUnit(models.NewUnit("scout", s.PlayerSide(), pos, sight, 0)); err != nil {
				return err
			}
			if err := addEnemies(s, enemies); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, Render(s, nil))
			fmt.Fprintln(out, terrainSummary(s.Tiles()))
			snap := s.Fog().Snapshot()
			fmt.Fprintf(out, "visible=%d explored=%d sensed=%d\n", len(snap.Visible), len(snap.Explored), len(snap.Sensed))
			return nil
		},
	}

	mf.register(cmd)
	cmd.Flags().StringVar(&at, "at", "0,0", "Scout position as q,r")
	cmd.Flags().IntVar(&sight, "sight", 6, "Scout sight range")
	cmd.Flags().BoolVar(&occlusion, "occlusion", false, "Let walls and obstacles block line of sight")
	cmd.Flags().StringArrayVar(&enemies, "enemy", nil, "Place a hostile unit at q,r (repeatable)")
	return cmd
}

func addEnemies(s *battle.Session, coords []string) error {
	for i, c := range coords {
		a, err := parseAxial(c)
		if err != nil {
			return err
		}
		u := models.NewUnit(fmt.Sprintf("enemy-%d", i+1), models.FactionEnemy, a, 0, 0)
		if err := s.AddUnit(u); err != nil {
			return err
		}
	}
	return nil
}

func printPath(cmd *cobra.Command, s *battle.Session, steps []hex.Axial, cost int, found bool) error {
	out := cmd.OutOrStdout()
	if !found {
		fmt.Fprintln(out, "no path")
		return nil
	}
	fmt.Fprint(out, Render(s, steps))
	fmt.Fprintf(out, "steps=%d cost=%d\n", len(steps), cost)
	fmt.Fprintln(out, terrainSummary(s.Tiles()))
	for _, a := range steps {
		fmt.Fprintf(out, "  %s\n", a)
	}
	return nil
}
