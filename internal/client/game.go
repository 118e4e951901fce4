package client

import (
	"context"
	"errors"
	"strconv"

	"github.com/danmuck/amfctl/internal/game"
	"github.com/danmuck/amfctl/internal/protocol/amf"
)

// FubenReward is the dungeon progress returned by api.fuben.reward.
type FubenReward struct {
	Integral int
	Medals   int
}

var (
	qualitySchema = amf.Schema{Fields: []amf.FieldSpec{
		{Key: "quality_name", Kind: amf.KindString, Required: true},
	}}
	fubenRewardSchema = amf.Schema{Fields: []amf.FieldSpec{
		{Key: "integral", Kind: amf.KindNumber, Required: true},
		{Key: "medal", Kind: amf.KindObject, Required: true},
	}}
	medalSchema = amf.Schema{Fields: []amf.FieldSpec{
		{Key: "amount", Kind: amf.KindNumber, Required: true},
	}}
	challengeSchema = amf.Schema{Fields: []amf.FieldSpec{
		{Key: "is_winning", Kind: amf.KindBoolean, Required: true},
		{Key: "awards_key", Kind: amf.KindString, Required: true},
	}}
)

// refused builds the error for a reply missing its expected field. Objects
// that carry neither field nor description are still reported as refusals.
func refused(target string, data amf.Value, reason string) error {
	desc := ""
	for _, key := range []string{"description", "desctiption"} {
		if v, err := amf.Lookup(data, key); err == nil {
			if s, err := amf.AsString(v); err == nil {
				desc = s
				break
			}
		}
	}
	return &ServerError{Target: target, Reason: reason, Description: desc}
}

// parse runs ParseObject and turns a missing field into a ServerError,
// keeping wrong kinds and non-objects as codec-level failures.
func parse(target string, data amf.Value, schema amf.Schema) (*amf.Record, error) {
	rec, err := amf.ParseObject(data, schema)
	var missing amf.MissingFieldError
	if errors.As(err, &missing) {
		return nil, refused(target, data, "reply has no "+missing.Key)
	}
	return rec, err
}

// SkillUp spends one skill book and returns the skill id now held.
func (c *Client) SkillUp(ctx context.Context, plant, skill float64) (float64, error) {
	var now float64
	err := c.invoke(ctx, game.TargetSkillUp, amf.Numbers(plant, skill), func(data amf.Value) error {
		if err := expectKey(game.TargetSkillUp, data, "now_id"); err != nil {
			return err
		}
		v, _ := amf.Lookup(data, "now_id")
		if s, err := amf.AsString(v); err == nil {
			now, err = strconv.ParseFloat(s, 64)
			return err
		}
		var err error
		now, err = amf.AsNumber(v)
		return err
	})
	return now, err
}

// QualityUp spends one refresh book and returns the resulting grade.
func (c *Client) QualityUp(ctx context.Context, typ game.QualityUpType, plant float64) (game.Quality, error) {
	var q game.Quality
	target := typ.Target()
	err := c.invoke(ctx, target, amf.Numbers(plant), func(data amf.Value) error {
		rec, err := parse(target, data, qualitySchema)
		if err != nil {
			return err
		}
		name, err := rec.String("quality_name")
		if err != nil {
			return err
		}
		q, err = game.ParseQuality(name)
		return err
	})
	return q, err
}

// OpenBox opens amount boxes of the given kind.
func (c *Client) OpenBox(ctx context.Context, box float64, amount int) error {
	return c.invoke(ctx, game.TargetOpenBox, amf.Numbers(box, float64(amount)), func(data amf.Value) error {
		return expectKey(game.TargetOpenBox, data, "tools")
	})
}

func (c *Client) DutyReward(ctx context.Context, duty, category float64) error {
	return c.invoke(ctx, game.TargetDutyReward, amf.Numbers(duty, category), func(data amf.Value) error {
		return expectKey(game.TargetDutyReward, data, "user_exp")
	})
}

// FubenAward claims an award of awardType and returns the next threshold;
// zero means nothing is left.
func (c *Client) FubenAward(ctx context.Context, awardType string, fuben float64) (float64, error) {
	var next float64
	args := amf.NewArray(amf.String(awardType), amf.Number(fuben))
	err := c.invoke(ctx, game.TargetFubenAward, args, func(data amf.Value) error {
		if err := expectKey(game.TargetFubenAward, data, "next"); err != nil {
			return err
		}
		v, _ := amf.Lookup(data, "next")
		var err error
		next, err = amf.AsNumber(v)
		return err
	})
	return next, err
}

// FubenReward reads the dungeon integral and medal count.
func (c *Client) FubenReward(ctx context.Context, fuben float64) (FubenReward, error) {
	return c.fubenReward(ctx, amf.Number(fuben))
}

func (c *Client) fubenReward(ctx context.Context, fuben amf.Value) (FubenReward, error) {
	var out FubenReward
	err := c.invoke(ctx, game.TargetFubenReward, amf.NewArray(fuben), func(data amf.Value) error {
		rec, err := parse(game.TargetFubenReward, data, fubenRewardSchema)
		if err != nil {
			return err
		}
		integral, err := rec.Number("integral")
		if err != nil {
			return err
		}
		medal, err := rec.Object("medal", medalSchema)
		if err != nil {
			return err
		}
		amount, err := medal.Number("amount")
		if err != nil {
			return err
		}
		out = FubenReward{Integral: int(integral), Medals: int(amount)}
		return nil
	})
	return out, err
}

// ResetFubenReward asks for the reward with a crafted id string, which the
// server treats as a reset of the collected awards.
func (c *Client) ResetFubenReward(ctx context.Context, fuben float64) error {
	id := strconv.FormatFloat(fuben, 'f', -1, 64) + ".9999999999111"
	_, err := c.fubenReward(ctx, amf.String(id))
	return err
}

// Lottery redeems an awards key from a won challenge.
func (c *Client) Lottery(ctx context.Context, awardsKey string) error {
	_, err := c.Call(ctx, game.TargetLottery, ResponseURI, amf.NewArray(amf.String(awardsKey)))
	return err
}

// Challenge fights one dungeon with the given plants and collects the
// lottery when the reply carries an awards key.
func (c *Client) Challenge(ctx context.Context, typ game.ChallengeType, id float64, plants []float64) (bool, error) {
	var (
		win bool
		key string
	)
	target := typ.Target()
	args := amf.NewArray(amf.Number(id), amf.Numbers(plants...))
	err := c.invoke(ctx, target, args, func(data amf.Value) error {
		rec, err := parse(target, data, challengeSchema)
		if err != nil {
			return err
		}
		if win, err = rec.Bool("is_winning"); err != nil {
			return err
		}
		key, err = rec.String("awards_key")
		return err
	})
	if err != nil {
		return false, err
	}
	if key == "" {
		return win, nil
	}
	return win, c.Lottery(ctx, key)
}

func expectKey(target string, data amf.Value, key string) error {
	_, err := amf.Lookup(data, key)
	var missing amf.MissingFieldError
	if errors.As(err, &missing) {
		return refused(target, data, "reply has no "+key)
	}
	return err
}
