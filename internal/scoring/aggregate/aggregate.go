// Package aggregate combines per-signal scores into the final 0-100 score,
// applying the performance-mode weight policy and domain focus boosts.
package aggregate

import (
	_ "embed"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/hirelens/matchengine/internal/domain"
	"github.com/hirelens/matchengine/internal/scoring/textproc"
)

// modeWeights is the nominal weight policy per performance mode. Weights of
// absent signals are redistributed proportionally, never treated as zero
// scores.
var modeWeights = map[domain.PerformanceMode]map[domain.Signal]float64{
	domain.ModeFast: {
		domain.SignalKeyword: 0.60,
		domain.SignalVector:  0.40,
	},
	domain.ModeBalanced: {
		domain.SignalKeyword:   0.35,
		domain.SignalVector:    0.25,
		domain.SignalEmbedding: 0.25,
		domain.SignalSemantic:  0.15,
	},
	domain.ModeThorough: {
		domain.SignalKeyword:   0.25,
		domain.SignalVector:    0.20,
		domain.SignalEmbedding: 0.25,
		domain.SignalSemantic:  0.30,
	},
}

//go:embed boosts.yaml
var boostsYAML []byte

type boostRule struct {
	Factor float64  `yaml:"factor"`
	Skills []string `yaml:"skills"`
}

var focusBoosts map[domain.DomainFocus]boostRule

func init() {
	var raw map[string]boostRule
	if err := yaml.Unmarshal(boostsYAML, &raw); err != nil {
		panic(fmt.Sprintf("aggregate: invalid embedded boost table: %v", err))
	}
	focusBoosts = make(map[domain.DomainFocus]boostRule, len(raw))
	for focus, rule := range raw {
		for i, s := range rule.Skills {
			rule.Skills[i] = textproc.NormalizeToken(s)
		}
		focusBoosts[domain.DomainFocus(focus)] = rule
	}
}

// Weights returns the effective weight per signal present in breakdown:
// the nominal mode weights restricted to present signals and renormalized to
// sum to 1. An empty breakdown returns an empty map.
func Weights(mode domain.PerformanceMode, breakdown domain.SignalBreakdown) map[domain.Signal]float64 {
	nominal := modeWeights[mode]
	out := make(map[domain.Signal]float64, len(breakdown))

	var total float64
	for sig := range breakdown {
		total += nominal[sig]
	}
	if total == 0 {
		// Signals outside the mode's policy split evenly. Reachable only if a
		// caller hands the aggregator a breakdown the mode never produces.
		for sig := range breakdown {
			out[sig] = 1.0 / float64(len(breakdown))
		}
		return out
	}
	for sig := range breakdown {
		out[sig] = nominal[sig] / total
	}
	return out
}

// FinalScore computes the weighted aggregate of all present signals, rounded
// and clamped to [0,100]. An empty breakdown yields 0.
func FinalScore(mode domain.PerformanceMode, breakdown domain.SignalBreakdown) int {
	if len(breakdown) == 0 {
		return 0
	}
	weights := Weights(mode, breakdown)
	var sum float64
	for sig, score := range breakdown {
		sum += weights[sig] * score
	}
	score := int(math.Round(sum))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Adjust applies the domain focus boost to the keyword signal in place.
// matchedSkills are the normalized skill forms the keyword scorer matched.
// The boosted score is capped at 100.
func Adjust(breakdown domain.SignalBreakdown, focus domain.DomainFocus, matchedSkills []string) {
	rule, ok := focusBoosts[focus]
	if !ok {
		return
	}
	kw, ok := breakdown[domain.SignalKeyword]
	if !ok {
		return
	}
	if !anyBoostable(rule.Skills, matchedSkills) {
		return
	}
	breakdown[domain.SignalKeyword] = math.Min(100, math.Round(kw*rule.Factor))
}

func anyBoostable(boostable, matched []string) bool {
	for _, m := range matched {
		for _, b := range boostable {
			if m == b {
				return true
			}
		}
	}
	return false
}
