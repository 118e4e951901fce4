package game

// QualityUpType selects the refresh book used for a quality roll.
type QualityUpType int

const (
	QualityUpGeneral QualityUpType = iota
	QualityUpMoshen
)

func (t QualityUpType) Target() string {
	if t == QualityUpMoshen {
		return "api.apiorganism.quality12Up"
	}
	return "api.apiorganism.qualityUp"
}

func (t QualityUpType) String() string {
	if t == QualityUpMoshen {
		return "moshen"
	}
	return "general"
}

// ChallengeType selects the dungeon family being challenged.
type ChallengeType int

const (
	ChallengeFuben ChallengeType = iota
	ChallengeStone
)

func (t ChallengeType) Target() string {
	if t == ChallengeStone {
		return "api.stone.challenge"
	}
	return "api.fuben.challenge"
}

func (t ChallengeType) String() string {
	if t == ChallengeStone {
		return "stone"
	}
	return "fuben"
}

// Remaining call targets.
const (
	TargetSkillUp     = "api.apiorganism.skillUp"
	TargetOpenBox     = "api.reward.openbox"
	TargetDutyReward  = "api.duty.reward"
	TargetFubenAward  = "api.fuben.award"
	TargetFubenReward = "api.fuben.reward"
	TargetLottery     = "api.reward.lottery"
)

// DutyCategoryDaily is the duty category the reward loop collects from.
const DutyCategoryDaily = 3

// MedalAward is the award type for fuben medal collection.
const MedalAward = "medal"
