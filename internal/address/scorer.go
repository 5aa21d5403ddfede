// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"strings"

	"docscrub/internal/validators/postalcode"
)

// Score thresholds. Addresses under the review threshold are flagged
// but still emitted; at or above the auto threshold they are safe for
// unattended redaction.
const (
	ReviewThreshold        = 0.60
	AutoAnonymizeThreshold = 0.85
)

// Factor weights. The expected component count excludes COUNTRY, which
// most domestic mail omits.
const (
	expectedComponents = 4

	weightComponentRatio = 0.45
	weightPostalKnown    = 0.25
	weightPatternFull    = 0.20
	weightPositionBoost  = 0.10

	headerZoneRatio = 0.20
	footerZoneRatio = 0.10
)

// Scorer computes composite confidence for grouped addresses.
type Scorer struct {
	ReviewThreshold float64
	AutoThreshold   float64
}

// NewScorer returns a scorer with the default thresholds.
func NewScorer() *Scorer {
	return &Scorer{ReviewThreshold: ReviewThreshold, AutoThreshold: AutoAnonymizeThreshold}
}

// Score fills the confidence, factors and review/auto flags of g.
// docLen is the byte length of the whole document, used for the
// header/footer position boost.
func (s *Scorer) Score(g *Grouped, docLen int) {
	var conf float64
	g.Factors = g.Factors[:0]
	add := func(name string, value float64) {
		if value == 0 {
			return
		}
		conf += value
		g.Factors = append(g.Factors, Factor{Name: name, Value: value})
	}

	present := componentCount(g.Components)
	ratio := float64(present) / float64(expectedComponents)
	if ratio > 1 {
		ratio = 1
	}
	add("component_ratio", ratio*weightComponentRatio)

	add("postal_known", postalFactor(g.Components))

	if present >= expectedComponents {
		add("pattern_full", weightPatternFull)
	} else if present >= 3 {
		add("pattern_partial", weightPatternFull / 2)
	}

	if docLen > 0 {
		header := int(float64(docLen) * headerZoneRatio)
		footer := docLen - int(float64(docLen)*footerZoneRatio)
		if g.Start <= header || g.End >= footer {
			add("position_boost", weightPositionBoost)
		}
	}

	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	g.Confidence = conf
	g.FlaggedForReview = conf < s.ReviewThreshold
	g.AutoAnonymize = conf >= s.AutoThreshold
}

// postalFactor rewards a postal code that resolves in the embedded
// Swiss table, more so when the resolved locality matches the grouped
// city component.
func postalFactor(c Components) float64 {
	if c.Postal == "" {
		return 0
	}
	if city, ok := postalcode.CityFor(c.Postal); ok {
		if c.City != "" && strings.EqualFold(city, c.City) {
			return weightPostalKnown
		}
		return weightPostalKnown * 0.6
	}
	if postalcode.InSwissRange(c.Postal) {
		return weightPostalKnown * 0.4
	}
	return 0
}

func componentCount(c Components) int {
	n := 0
	for _, v := range []string{c.Street, c.Number, c.Postal, c.City, c.Country} {
		if v != "" {
			n++
		}
	}
	return n
}
