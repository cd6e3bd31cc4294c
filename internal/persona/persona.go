package persona

import (
	"regexp"

	"github.com/dgallion1/teigest/internal/segment"
)

// SentinelID is both the id and the display name of the fallback persona.
const SentinelID = "unknown"

// Persona is a character identity.
type Persona struct {
	ID          string
	DisplayName string
}

// IsSentinel reports whether p is the fallback persona.
func (p Persona) IsSentinel() bool {
	return p.ID == SentinelID
}

// Sentinel returns the fallback persona.
func Sentinel() Persona {
	return Persona{ID: SentinelID, DisplayName: SentinelID}
}

// namePattern captures a 2-4 syllable Hangul token with an optional trailing
// case or vocative particle.
var namePattern = regexp.MustCompile(`([가-힣]{2,4})[가이은는여야아씨]?`)

// vocativePattern captures a name addressed directly inside dialogue, e.g.
// "지영아," or "민수씨!". The token must stand alone between whitespace or
// punctuation so that verb endings such as "먹어야 해" are not harvested.
var vocativePattern = regexp.MustCompile(`(?:^|[\s"',.!?…~])([가-힣]{2,4}?)([야아씨])(?:[,.!?…~"']|$)`)

// nonNames are stems that take 야 or 아 in everyday speech ("아니야",
// "괜찮아") and are never harvested.
var nonNames = map[string]bool{
	"아니": true, "그래": true, "괜찮": true, "그렇": true, "이렇": true,
	"저렇": true, "그거": true, "이거": true, "저거": true, "정말": true,
	"진짜": true, "누구": true, "어디": true, "여기": true, "거기": true,
	"저기": true, "먹어": true, "싫어": true, "좋아": true, "미안": true,
	"당연": true, "물론": true, "그만": true, "제발": true, "빨리": true,
}

// isVocative reports whether stem+particle reads as direct address. 아
// follows a closed final syllable and 야 an open one; 씨 follows either.
func isVocative(stem, particle string) bool {
	if nonNames[stem] {
		return false
	}
	if particle == "씨" {
		return true
	}
	runes := []rune(stem)
	closed := (runes[len(runes)-1]-0xAC00)%28 != 0
	return closed == (particle == "아")
}

// Options tunes extraction.
type Options struct {
	// HarvestVocatives appends names that are only ever addressed inside
	// dialogue after the ranked candidates.
	HarvestVocatives bool
}

// Extract ranks candidate names found in the paragraph immediately preceding
// each dialogue paragraph and appends the sentinel persona.
func Extract(paras []segment.Paragraph, opts Options) *Registry {
	var c Counter
	for i, p := range paras {
		if p.Kind != segment.Dialogue || i == 0 {
			continue
		}
		for _, m := range namePattern.FindAllStringSubmatch(paras[i-1].Text, -1) {
			c.Add(m[1])
		}
	}

	names := c.Ranked()
	if opts.HarvestVocatives {
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			seen[n] = true
		}
		for _, p := range paras {
			if p.Kind != segment.Dialogue {
				continue
			}
			for _, m := range vocativePattern.FindAllStringSubmatch(segment.StripQuotes(p.Text), -1) {
				if !seen[m[1]] && isVocative(m[1], m[2]) {
					seen[m[1]] = true
					names = append(names, m[1])
				}
			}
		}
	}

	reg := NewRegistry()
	for _, n := range names {
		reg.Add(Persona{ID: n, DisplayName: n})
	}
	reg.ensureSentinel()
	return reg
}
