package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownQuality = errors.New("game: unknown quality")

// Quality is an organism grade. Higher values are better.
type Quality uint8

const (
	QualityInferior Quality = iota
	QualityCommon
	QualityExcellent
	QualityFine
	QualitySuperior
	QualityEpic
	QualityLegendary
	QualityArtifact
	QualityDemonKing
	QualityWarGod
	QualitySupreme
	QualityDemonGod
	QualityRadiant
	QualityImmortal
	QualityEternal
	QualityTaishang
	QualityBoundless
	QualityChaos
)

// Display names as the server sends them in quality_name.
var qualityNames = [...]string{
	QualityInferior:  "劣质",
	QualityCommon:    "普通",
	QualityExcellent: "优秀",
	QualityFine:      "精良",
	QualitySuperior:  "极品",
	QualityEpic:      "史诗",
	QualityLegendary: "传说",
	QualityArtifact:  "神器",
	QualityDemonKing: "魔王",
	QualityWarGod:    "战神",
	QualitySupreme:   "至尊",
	QualityDemonGod:  "魔神",
	QualityRadiant:   "耀世",
	QualityImmortal:  "不朽",
	QualityEternal:   "永恒",
	QualityTaishang:  "太上",
	QualityBoundless: "无极",
	QualityChaos:     "混沌",
}

func (q Quality) String() string {
	if int(q) < len(qualityNames) {
		return qualityNames[q]
	}
	return fmt.Sprintf("quality(%d)", uint8(q))
}

// ParseQuality accepts a display name or a decimal grade index.
func ParseQuality(s string) (Quality, error) {
	s = strings.TrimSpace(s)
	for i, name := range qualityNames {
		if name == s {
			return Quality(i), nil
		}
	}
	if idx, err := strconv.Atoi(s); err == nil && idx >= 0 && idx < len(qualityNames) {
		return Quality(idx), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

func (q Quality) MarshalText() ([]byte, error) {
	if int(q) >= len(qualityNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQuality, uint8(q))
	}
	return []byte(qualityNames[q]), nil
}

func (q *Quality) UnmarshalText(b []byte) error {
	parsed, err := ParseQuality(string(b))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
