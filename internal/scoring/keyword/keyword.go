// Package keyword scores requirement/candidate overlap on declared skills,
// falling back to raw term overlap when the requirement declares none.
package keyword

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hirelens/matchengine/internal/scoring/textproc"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

// Skill is one lexicon entry: a canonical name plus the surface forms that
// count as a mention.
type Skill struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

type lexiconFile struct {
	Skills []Skill `yaml:"skills"`
}

var lexicon []Skill

func init() {
	var f lexiconFile
	if err := yaml.Unmarshal(lexiconYAML, &f); err != nil {
		panic(fmt.Sprintf("keyword: embedded lexicon invalid: %v", err))
	}
	for _, s := range f.Skills {
		norm := Skill{Name: textproc.NormalizeToken(s.Name)}
		for _, syn := range s.Synonyms {
			if n := textproc.NormalizeToken(syn); n != "" {
				norm.Synonyms = append(norm.Synonyms, n)
			}
		}
		lexicon = append(lexicon, norm)
	}
}

// preferredMarkers flag a requirement sentence as describing nice-to-have
// skills rather than hard requirements.
var preferredMarkers = []string{
	"preferred", "nice to have", "a plus", "bonus", "appreciated",
	"apprecie", "souhaite", "atout", "idealement", "optionnel",
}

// Extracted holds the declared skills found in a requirement text, as the
// normalized surface forms that actually appear in it.
type Extracted struct {
	Required  []string
	Preferred []string
}

// ExtractSkills scans the requirement text for lexicon skills. A skill
// mentioned only in a sentence carrying a preferred marker is classified as
// preferred; any other mention makes it required.
func ExtractSkills(requirementText string) Extracted {
	sentences := splitSentences(requirementText)
	required := map[string]struct{}{}
	preferred := map[string]struct{}{}

	for _, sentence := range sentences {
		terms := textproc.Normalize(sentence)
		if len(terms) == 0 {
			continue
		}
		set := textproc.TermSet(terms)
		joined := textproc.Joined(terms)
		pref := hasPreferredMarker(joined)
		for _, skill := range lexicon {
			form, ok := mentionForm(skill, set, joined)
			if !ok {
				continue
			}
			if pref {
				preferred[form] = struct{}{}
			} else {
				required[form] = struct{}{}
			}
		}
	}
	// A skill mentioned both ways counts as required.
	for form := range required {
		delete(preferred, form)
	}
	return Extracted{Required: sortedKeys(required), Preferred: sortedKeys(preferred)}
}

// Result carries the keyword score plus the matched/missing skill forms.
type Result struct {
	Score   float64
	Matched []string
	Missing []string
}

// requiredWeight/preferredWeight split coverage between hard requirements and
// nice-to-haves when both are declared.
const (
	requiredWeight  = 0.7
	preferredWeight = 0.3
	neutralFloor    = 50.0
)

// Score computes weighted skill coverage of the candidate terms. With no
// declared skills it falls back to the raw term-overlap ratio; with no
// evidence at all it reports the neutral floor rather than zero.
func Score(reqTerms, candTerms []string, required, preferred []string) Result {
	candSet := textproc.TermSet(candTerms)
	candJoined := textproc.Joined(candTerms)

	if len(required) == 0 && len(preferred) == 0 {
		return overlapFallback(reqTerms, candSet)
	}

	matched := make([]string, 0, len(required)+len(preferred))
	missing := make([]string, 0, len(required))

	var reqHits int
	for _, skill := range required {
		if termMatches(skill, candSet, candJoined) {
			reqHits++
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	var prefHits int
	for _, skill := range preferred {
		if termMatches(skill, candSet, candJoined) {
			prefHits++
			matched = append(matched, skill)
		}
	}

	wr, wp := requiredWeight, preferredWeight
	if len(required) == 0 {
		wr, wp = 0, 1
	} else if len(preferred) == 0 {
		wr, wp = 1, 0
	}
	var score float64
	if len(required) > 0 {
		score += wr * float64(reqHits) / float64(len(required))
	}
	if len(preferred) > 0 {
		score += wp * float64(prefHits) / float64(len(preferred))
	}
	return Result{Score: clamp100(math.Round(score * 100)), Matched: matched, Missing: missing}
}

// overlapFallback rates the share of requirement terms present in the
// candidate set. Zero declared skills and zero overlap is neutral evidence,
// not a bad match.
func overlapFallback(reqTerms []string, candSet map[string]struct{}) Result {
	reqSet := textproc.TermSet(reqTerms)
	if len(reqSet) == 0 {
		return Result{Score: neutralFloor}
	}
	var hits int
	for term := range reqSet {
		if _, ok := candSet[term]; ok {
			hits++
		}
	}
	if hits == 0 {
		return Result{Score: neutralFloor}
	}
	return Result{Score: clamp100(math.Round(float64(hits) / float64(len(reqSet)) * 100))}
}

// Mentions reports whether the normalized skill form appears in the term
// sequence. The orchestrator uses it to verify skill alignment claims against
// both source texts.
func Mentions(skill string, terms []string) bool {
	skill = textproc.NormalizeToken(skill)
	if skill == "" {
		return false
	}
	return termMatches(skill, textproc.TermSet(terms), textproc.Joined(terms))
}

// termMatches reports whether a normalized skill form appears in the candidate
// terms. Single tokens tolerate inflection via shared prefixes; multi-word
// forms match as substrings of the joined term sequence.
func termMatches(skill string, candSet map[string]struct{}, candJoined string) bool {
	if strings.Contains(skill, " ") {
		return strings.Contains(candJoined, skill)
	}
	if _, ok := candSet[skill]; ok {
		return true
	}
	for term := range candSet {
		if stemEqual(skill, term) {
			return true
		}
	}
	return false
}

// stemEqual tolerates inflection: the terms share at least four leading bytes
// and diverge only in a short suffix ("testing" vs "tests", "developer" vs
// "developpeurs" do not collide with unrelated words).
func stemEqual(a, b string) bool {
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	if shorter < 4 {
		return false
	}
	lcp := 0
	for lcp < shorter && a[lcp] == b[lcp] {
		lcp++
	}
	return lcp >= 4 && lcp >= shorter-2
}

// mentionForm returns the synonym form of skill present in the sentence, if any.
func mentionForm(skill Skill, set map[string]struct{}, joined string) (string, bool) {
	for _, syn := range skill.Synonyms {
		if strings.Contains(syn, " ") {
			if strings.Contains(joined, syn) {
				return syn, true
			}
			continue
		}
		if _, ok := set[syn]; ok {
			return syn, true
		}
	}
	return "", false
}

func hasPreferredMarker(joined string) bool {
	for _, m := range preferredMarkers {
		if strings.Contains(joined, m) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n' || r == ';' || r == '!' || r == '?'
	})
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
