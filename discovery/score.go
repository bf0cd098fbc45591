package discovery

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/grantscout/grantscout/grant"
)

// Factor weights. These sum to 100, but the score is renormalized over the
// weights actually applied, so unsupplied criteria never drag a grant down
const (
	weightIndustry = 25
	weightLocation = 20
	weightAmount   = 15
	weightDeadline = 15
	weightKeywords = 15
	weightCategory = 10
)

// factorScores keeps the per-factor sub-scores so that reasons are generated
// from exactly the numbers used for ranking
type factorScores struct {
	industry float64
	location float64
	amount   float64
	deadline float64
	keywords float64
	category float64

	hasIndustry bool
	hasLocation bool
	hasKeywords bool
	hasCategory bool
}

// matchScore computes the weighted 0-100 score of a grant against the
// criteria. Industry, location, keyword and category factors are skipped when
// the criteria leave them empty; amount and deadline always apply. The weights
// of the applied factors form the denominator, so the result stays in range
// however few factors were supplied
func matchScore(g grant.Grant, c grant.Criteria, now time.Time) (int, factorScores) {
	var f factorScores
	var total, applied float64

	if len(c.Industries) > 0 {
		f.hasIndustry = true
		f.industry = industryScore(g.Industries, c.Industries)
		total += f.industry * weightIndustry
		applied += weightIndustry
	}

	if len(c.Locations) > 0 {
		f.hasLocation = true
		f.location = locationScore(g.Locations, c.Locations)
		total += f.location * weightLocation
		applied += weightLocation
	}

	f.amount = amountScore(g.Amount, c.Amount)
	total += f.amount * weightAmount
	applied += weightAmount

	f.deadline = deadlineScore(g.Deadline, now)
	total += f.deadline * weightDeadline
	applied += weightDeadline

	if len(c.Keywords) > 0 {
		f.hasKeywords = true
		f.keywords = keywordScore(g, c.Keywords)
		total += f.keywords * weightKeywords
		applied += weightKeywords
	}

	if c.Category != "" {
		f.hasCategory = true
		if strings.EqualFold(g.Category, c.Category) {
			f.category = 1
		}
		total += f.category * weightCategory
		applied += weightCategory
	}

	score := int(math.Round(100 * total / applied))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, f
}

// industryScore is the Jaccard similarity of the two industry tag sets,
// case-insensitive
func industryScore(grantIndustries, wanted []string) float64 {
	grantSet := lowerSet(grantIndustries)
	wantedSet := lowerSet(wanted)

	intersection := 0
	for industry := range wantedSet {
		if _, ok := grantSet[industry]; ok {
			intersection++
		}
	}

	union := len(grantSet) + len(wantedSet) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// locationScore rewards exact coverage first, then national programs, then
// regional ones
func locationScore(grantLocations, wanted []string) float64 {
	grantSet := lowerSet(grantLocations)

	for _, loc := range wanted {
		if _, ok := grantSet[strings.ToLower(loc)]; ok {
			return 1.0
		}
	}

	if _, ok := grantSet["national"]; ok {
		return 0.8
	}
	if _, ok := grantSet["australia"]; ok {
		return 0.8
	}
	if _, ok := grantSet["regional"]; ok {
		return 0.6
	}

	return 0
}

// amountScore is 1.0 when the grant's funding range overlaps the wanted range
// at all, decaying with midpoint distance otherwise. The decay width is
// floored at 10000 so a degenerate (or inverted) wanted range does not zero
// out everything
func amountScore(got grant.Amount, want grant.AmountRange) float64 {
	if got.Min <= want.Max && want.Min <= got.Max {
		return 1.0
	}

	gotMid := (got.Min + got.Max) / 2
	wantMid := (want.Min + want.Max) / 2
	distance := math.Abs(gotMid - wantMid)

	width := math.Max(want.Max-want.Min, 10000)

	return math.Max(0, 1-distance/width)
}

// deadlineScore is a bell-shaped preference over days until the deadline,
// peaking in the 31-90 day window where there is enough time to prepare a
// decent application. An expired deadline scores 0 however recently it passed
func deadlineScore(deadline, now time.Time) float64 {
	if deadline.Before(now) {
		return 0
	}

	days := int(math.Ceil(deadline.Sub(now).Hours() / 24))

	switch {
	case days <= 7:
		return 0.3
	case days <= 30:
		return 0.6
	case days <= 90:
		return 1.0
	case days <= 180:
		return 0.8
	default:
		return 0.5
	}
}

// keywordScore is the fraction of wanted keywords found as case-insensitive
// substrings anywhere in the grant's title, description or tags
func keywordScore(g grant.Grant, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	haystack := strings.ToLower(g.Title + " " + g.Description + " " + strings.Join(g.Tags, " "))

	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(haystack, strings.ToLower(keyword)) {
			matched++
		}
	}

	return float64(matched) / float64(len(keywords))
}

// matchReasons builds the human-readable justification list from the same
// sub-scores used for ranking
func matchReasons(g grant.Grant, f factorScores) []string {
	reasons := make([]string, 0, 5)

	if f.hasIndustry && f.industry > 0.5 {
		reasons = append(reasons, fmt.Sprintf("Strong industry match (%d%%)", int(f.industry*100)))
	}

	if f.hasLocation && f.location > 0.5 {
		reasons = append(reasons, fmt.Sprintf("Location requirements met (%d%%)", int(f.location*100)))
	}

	if f.amount > 0.7 {
		reasons = append(reasons, fmt.Sprintf("Funding amount ($%s to $%s) fits your range",
			humanize.Commaf(g.Amount.Min), humanize.Commaf(g.Amount.Max)))
	}

	if f.deadline > 0.8 {
		reasons = append(reasons, "Deadline provides adequate time to apply")
	} else if f.deadline > 0.5 {
		reasons = append(reasons, "Deadline approaching - apply soon")
	}

	if f.hasKeywords && f.keywords > 0.5 {
		reasons = append(reasons, fmt.Sprintf("Matches %d%% of your keywords", int(f.keywords*100)))
	}

	return reasons
}

// priorityFor buckets a score for display ranking
func priorityFor(score int) grant.Priority {
	switch {
	case score >= 80:
		return grant.PriorityHigh
	case score >= 60:
		return grant.PriorityMedium
	default:
		return grant.PriorityLow
	}
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
