package client

import (
	"context"
	"fmt"

	"github.com/danmuck/amfctl/internal/game"
	"github.com/hashicorp/go-multierror"
)

// SkillStep reports one skill book use.
type SkillStep struct {
	Attempt int
	From    float64
	To      float64
	Ups     int
}

// SkillUpUntil keeps using skill books until stop reports true. stop sees the
// number of attempts made and the levels gained so far and is consulted
// before every attempt. It returns the final skill id.
func (c *Client) SkillUpUntil(ctx context.Context, plant, skill float64, stop func(attempts, ups int) bool, report func(SkillStep)) (float64, error) {
	attempts, ups := 0, 0
	for !stop(attempts, ups) {
		if attempts > 0 {
			if err := c.Pause(ctx); err != nil {
				return skill, err
			}
		}
		next, err := c.SkillUp(ctx, plant, skill)
		if err != nil {
			return skill, err
		}
		attempts++
		step := SkillStep{Attempt: attempts, From: skill, To: next}
		if next != skill {
			ups++
			skill = next
		}
		step.Ups = ups
		if report != nil {
			report(step)
		}
	}
	return skill, nil
}

// QualityStep reports one quality roll.
type QualityStep struct {
	Attempt int
	Quality game.Quality
	Changed bool
}

// QualityUpUntil rolls the quality of plant until stop reports true for the
// latest roll.
func (c *Client) QualityUpUntil(ctx context.Context, typ game.QualityUpType, plant float64, stop func(attempt int, q game.Quality) bool, report func(QualityStep)) (game.Quality, error) {
	var prev game.Quality
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if err := c.Pause(ctx); err != nil {
				return prev, err
			}
		}
		q, err := c.QualityUp(ctx, typ, plant)
		if err != nil {
			return prev, err
		}
		if report != nil {
			report(QualityStep{Attempt: attempt, Quality: q, Changed: attempt > 1 && q != prev})
		}
		prev = q
		if stop(attempt, q) {
			return q, nil
		}
	}
}

// OpenBoxRepeat opens amount boxes repeat times and returns how many boxes
// were opened.
func (c *Client) OpenBoxRepeat(ctx context.Context, box float64, amount, repeat int, report func(round int)) (int, error) {
	opened := 0
	for round := 1; round <= repeat; round++ {
		if round > 1 {
			if err := c.Pause(ctx); err != nil {
				return opened, err
			}
		}
		if err := c.OpenBox(ctx, box, amount); err != nil {
			return opened, err
		}
		opened += amount
		if report != nil {
			report(round)
		}
	}
	return opened, nil
}

// DutyRewards collects every duty in ids. A failed duty does not stop the
// rest; all failures are returned together.
func (c *Client) DutyRewards(ctx context.Context, ids []float64, category float64, report func(id float64, err error)) (int, error) {
	var (
		errs      *multierror.Error
		collected int
	)
	for i, id := range ids {
		if i > 0 {
			if err := c.Pause(ctx); err != nil {
				return collected, multierror.Append(errs, err).ErrorOrNil()
			}
		}
		err := c.DutyReward(ctx, id, category)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("duty %v: %w", id, err))
		} else {
			collected++
		}
		if report != nil {
			report(id, err)
		}
	}
	return collected, errs.ErrorOrNil()
}

// FubenStep reports one medal claim after a reset.
type FubenStep struct {
	Round int
	Claim int
	Next  float64
	Done  bool
}

// ResetAndCollectFuben resets the dungeon rewards times times, reclaiming
// medal awards after each reset until the next threshold passes the medals
// held at the start.
func (c *Client) ResetAndCollectFuben(ctx context.Context, fuben float64, times int, report func(FubenStep)) (FubenReward, error) {
	start, err := c.FubenReward(ctx, fuben)
	if err != nil {
		return FubenReward{}, err
	}
	for round := 1; round <= times; round++ {
		if round > 1 {
			if err := c.Pause(ctx); err != nil {
				return start, err
			}
		}
		if err := c.ResetFubenReward(ctx, fuben); err != nil {
			return start, err
		}
		for claim := 1; ; claim++ {
			if err := c.Pause(ctx); err != nil {
				return start, err
			}
			next, err := c.FubenAward(ctx, game.MedalAward, fuben)
			if err != nil {
				return start, err
			}
			done := next == 0 || next > float64(start.Medals)
			if report != nil {
				report(FubenStep{Round: round, Claim: claim, Next: next, Done: done})
			}
			if done {
				break
			}
		}
	}
	return start, nil
}

// ChallengeRepeat fights the same dungeon times times and returns the wins.
func (c *Client) ChallengeRepeat(ctx context.Context, typ game.ChallengeType, id float64, plants []float64, times int, report func(round int, win bool)) (int, error) {
	wins := 0
	for round := 1; round <= times; round++ {
		if round > 1 {
			if err := c.Pause(ctx); err != nil {
				return wins, err
			}
		}
		win, err := c.Challenge(ctx, typ, id, plants)
		if err != nil {
			return wins, err
		}
		if win {
			wins++
		}
		if report != nil {
			report(round, win)
		}
	}
	return wins, nil
}
