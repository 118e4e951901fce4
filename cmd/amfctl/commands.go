package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/amfctl/internal/client"
	"github.com/danmuck/amfctl/internal/config"
	"github.com/danmuck/amfctl/internal/game"
	"github.com/danmuck/amfctl/internal/logging"
	"github.com/urfave/cli/v2"
)

var errArgs = errors.New("missing arguments")

var qualityUpCmd = &cli.Command{
	Name:      "quality-up",
	Usage:     "roll plant quality until a target is reached or --repeat rolls are spent",
	ArgsUsage: "PLANT...",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "until", Usage: "stop once this quality (name or index) is rolled"},
		&cli.BoolFlag{Name: "moshen", Usage: "use the moshen refinement"},
	},
	Action: func(c *cli.Context) error {
		plants, err := parseIDs(c.Args().Slice())
		if err != nil {
			return err
		}
		if len(plants) == 0 {
			return fmt.Errorf("%w: PLANT", errArgs)
		}
		typ := game.QualityUpGeneral
		if c.Bool("moshen") {
			typ = game.QualityUpMoshen
		}
		stop := stopAfter(int(c.Uint("repeat")))
		if raw := c.String("until"); raw != "" {
			want, err := game.ParseQuality(raw)
			if err != nil {
				return err
			}
			stop = func(_ int, q game.Quality) bool { return q >= want }
		}

		cl, err := newClient(c)
		if err != nil {
			return err
		}
		ctx := runContext()
		out := c.App.Writer
		for i, plant := range plants {
			if i > 0 {
				if err := cl.Pause(ctx); err != nil {
					return err
				}
			}
			q, err := cl.QualityUpUntil(ctx, typ, plant, stop, func(s client.QualityStep) {
				if s.Changed || s.Attempt == 1 {
					fmt.Fprintf(out, "plant %v roll %d: %s\n", plant, s.Attempt, s.Quality)
				}
			})
			if err != nil {
				return fmt.Errorf("plant %v: %w", plant, err)
			}
			fmt.Fprintf(out, "plant %v finished at %s\n", plant, q)
		}
		return nil
	},
}

func stopAfter(n int) func(int, game.Quality) bool {
	return func(attempt int, _ game.Quality) bool { return attempt >= n }
}

var skillUpCmd = &cli.Command{
	Name:      "skill-up",
	Usage:     "use skill books on a plant",
	ArgsUsage: "PLANT SKILL",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "up", Usage: "stop after this many level ups instead of --repeat attempts"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("%w: PLANT SKILL", errArgs)
		}
		ids, err := parseIDs(c.Args().Slice())
		if err != nil {
			return err
		}
		plant, skill := ids[0], ids[1]

		repeat := int(c.Uint("repeat"))
		stop := func(attempts, _ int) bool { return attempts >= repeat }
		if c.IsSet("up") {
			want := int(c.Uint("up"))
			stop = func(_, ups int) bool { return ups >= want }
		}

		cl, err := newClient(c)
		if err != nil {
			return err
		}
		out := c.App.Writer
		final, err := cl.SkillUpUntil(runContext(), plant, skill, stop, func(s client.SkillStep) {
			if s.From != s.To {
				fmt.Fprintf(out, "attempt %d: skill %v -> %v (%d up)\n", s.Attempt, s.From, s.To, s.Ups)
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "plant %v skill is now %v\n", plant, final)
		return nil
	},
}

var openCmd = &cli.Command{
	Name:      "open",
	Usage:     "open boxes, up to 10 per call",
	ArgsUsage: "BOX [AMOUNT]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 || c.NArg() > 2 {
			return fmt.Errorf("%w: BOX [AMOUNT]", errArgs)
		}
		box, err := parseID(c.Args().Get(0))
		if err != nil {
			return err
		}
		amount := 1
		if c.NArg() == 2 {
			amount, err = strconv.Atoi(c.Args().Get(1))
			if err != nil || amount < 1 || amount > 10 {
				return fmt.Errorf("amount must be between 1 and 10, got %q", c.Args().Get(1))
			}
		}

		cl, err := newClient(c)
		if err != nil {
			return err
		}
		out := c.App.Writer
		opened, err := cl.OpenBoxRepeat(runContext(), box, amount, int(c.Uint("repeat")), func(round int) {
			fmt.Fprintf(out, "round %d: opened %d\n", round, amount)
		})
		fmt.Fprintf(out, "opened %d boxes\n", opened)
		return err
	},
}

var challengeCmd = &cli.Command{
	Name:      "challenge",
	Usage:     "fight a dungeon with the given plants",
	ArgsUsage: "FUBEN PLANT...",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "stone", Usage: "fight a stone dungeon"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return fmt.Errorf("%w: FUBEN PLANT...", errArgs)
		}
		ids, err := parseIDs(c.Args().Slice())
		if err != nil {
			return err
		}
		typ := game.ChallengeFuben
		if c.Bool("stone") {
			typ = game.ChallengeStone
		}

		cl, err := newClient(c)
		if err != nil {
			return err
		}
		out := c.App.Writer
		repeat := int(c.Uint("repeat"))
		wins, err := cl.ChallengeRepeat(runContext(), typ, ids[0], ids[1:], repeat, func(round int, win bool) {
			result := "lost"
			if win {
				result = "won"
			}
			fmt.Fprintf(out, "round %d: %s\n", round, result)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "won %d of %d\n", wins, repeat)
		return nil
	},
}

var dutyCmd = &cli.Command{
	Name:      "duty",
	Usage:     "collect duty rewards",
	ArgsUsage: "ID...",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "category", Value: game.DutyCategoryDaily, Usage: "duty category"},
	},
	Action: func(c *cli.Context) error {
		ids, err := parseIDs(c.Args().Slice())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("%w: ID", errArgs)
		}

		cl, err := newClient(c)
		if err != nil {
			return err
		}
		out := c.App.Writer
		collected, err := cl.DutyRewards(runContext(), ids, float64(c.Uint("category")), func(id float64, err error) {
			if err != nil {
				fmt.Fprintf(out, "duty %v: %v\n", id, err)
				return
			}
			fmt.Fprintf(out, "duty %v: collected\n", id)
		})
		fmt.Fprintf(out, "collected %d of %d\n", collected, len(ids))
		return err
	},
}

var fubenCmd = &cli.Command{
	Name:      "fuben",
	Usage:     "reset dungeon rewards and reclaim medal awards --repeat times",
	ArgsUsage: "FUBEN",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "reset", Usage: "reset once without reclaiming awards"},
		&cli.BoolFlag{Name: "show", Usage: "only print the current integral and medals"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("%w: FUBEN", errArgs)
		}
		if c.Bool("reset") && c.Bool("show") {
			return errors.New("--reset and --show are exclusive")
		}
		fuben, err := parseID(c.Args().First())
		if err != nil {
			return err
		}

		cl, err := newClient(c)
		if err != nil {
			return err
		}
		out := c.App.Writer
		ctx := runContext()
		switch {
		case c.Bool("show"):
			reward, err := cl.FubenReward(ctx, fuben)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "integral %d, medals %d\n", reward.Integral, reward.Medals)
			return nil
		case c.Bool("reset"):
			if c.IsSet("repeat") {
				logger := logging.Component("cli")
				logger.Warn().Msg("--repeat is ignored with --reset")
			}
			if err := cl.ResetFubenReward(ctx, fuben); err != nil {
				return err
			}
			fmt.Fprintf(out, "fuben %v reset\n", fuben)
			return nil
		}
		start, err := cl.ResetAndCollectFuben(ctx, fuben, int(c.Uint("repeat")), func(s client.FubenStep) {
			fmt.Fprintf(out, "round %d claim %d: next %v\n", s.Round, s.Claim, s.Next)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "started with integral %d, medals %d\n", start.Integral, start.Medals)
		return nil
	},
}

var lookupCmd = &cli.Command{
	Name:      "lookup",
	Usage:     "look up static game data loaded with --registry",
	ArgsUsage: "organism|tool ID",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("%w: organism|tool ID", errArgs)
		}
		reg, err := game.CurrentRegistry()
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", c.Args().Get(1))
		}
		id := game.ID(n)
		out := c.App.Writer
		switch kind := c.Args().First(); kind {
		case "organism":
			o, err := game.UserOrganism{TargetID: id}.Organism(reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d %s (%s)\n", o.ID, o.Name, o.Attribute)
		case "tool":
			t, err := game.UserTool{ID: id}.Tool(reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d %s (%s)\n", t.ToolID, t.Name, t.TypeName)
		default:
			return fmt.Errorf("unknown kind %q", kind)
		}
		return nil
	},
}

var initCmd = &cli.Command{
	Name:      "init",
	Usage:     "write a starter account file",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("%w: PATH", errArgs)
		}
		path := c.Args().First()
		if err := config.WriteTemplate(path, c.Bool("force")); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
		return nil
	},
}

func parseID(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return v, nil
}

func parseIDs(raw []string) ([]float64, error) {
	ids := make([]float64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
