package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"docmine/internal"
	"docmine/internal/pdfdoc"
	"docmine/internal/util"
)

// LayoutSource is the slice of a document the title resolver reads:
// embedded metadata plus the page-1 span list.
type LayoutSource interface {
	MetadataTitle() (string, bool)
	Page1Spans() []pdfdoc.Span
}

// TitleConfig carries the tunable thresholds of the resolver.
type TitleConfig struct {
	FontTolerance float64
	GapFactor     float64
	MetaMinLen    int
	MetaMaxLen    int
}

func DefaultTitleConfig() TitleConfig {
	return TitleConfig{
		FontTolerance: 0.99,
		GapFactor:     1.3,
		MetaMinLen:    5,
		MetaMaxLen:    200,
	}
}

var (
	reNumericOnly = regexp.MustCompile(`^[\d\s.\-_]+$`)

	junkTitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^microsoft word`),
		regexp.MustCompile(`(?i)^untitled`),
		regexp.MustCompile(`(?i)^latex`),
		regexp.MustCompile(`(?i)^presentation`),
		regexp.MustCompile(`(?i)\.pdf$`),
		regexp.MustCompile(`(?i)\.docx?$`),
		regexp.MustCompile(`(?i)^slide`),
		regexp.MustCompile(`(?i)^document\d*$`),
		regexp.MustCompile(`(?i)^paper\d*$`),
	}

	reHeaderNoise = regexp.MustCompile(`(?i)^(doi|issn|http|www|vol\.|no\.|pp\.|page|date|accepted|received|copyright|license|downloaded from)`)

	reNameInitials = regexp.MustCompile(`[A-Z]\.\s?[A-Z]`)

	affiliationWords    = []string{"university", "institute", "department", "laboratory"}
	correspondenceWords = []string{"received", "accepted", "correspondence"}
)

type titleState int

const (
	stateStart titleState = iota
	stateMetadataCheck
	stateVisualFallback
	stateSecondaryFallback
	stateDone
)

// ResolveTitle walks the fallback chain: embedded metadata first, then
// the largest-font cluster on page 1, then the next font group down when
// the visual result is degenerate. It never returns an empty string; when
// every stage comes up empty the result is internal.TitleUnknown.
func ResolveTitle(src LayoutSource, cfg TitleConfig) string {
	title := internal.TitleUnknown
	var cands []pdfdoc.Span

	state := stateStart
	for state != stateDone {
		switch state {
		case stateStart:
			state = stateMetadataCheck

		case stateMetadataCheck:
			meta, ok := src.MetadataTitle()
			trimmed := strings.TrimSpace(meta)
			if ok && acceptMetadataTitle(trimmed, cfg) {
				title = trimmed
				state = stateDone
			} else {
				state = stateVisualFallback
			}

		case stateVisualFallback:
			cands = titleCandidates(src.Page1Spans())
			if len(cands) == 0 {
				state = stateDone
				continue
			}
			primary := clusterLargestGroup(cands, cfg)
			if primary != "" {
				title = primary
			}
			if degenerateTitle(primary) && hasLowerFontGroup(cands, cfg) {
				state = stateSecondaryFallback
			} else {
				state = stateDone
			}

		case stateSecondaryFallback:
			if secondary, ok := secondaryGroupTitle(cands, cfg); ok {
				title = secondary
			}
			state = stateDone
		}
	}
	return title
}

// acceptMetadataTitle requires a length strictly between the configured
// bounds, a non-numeric body, and no producer-default junk pattern.
func acceptMetadataTitle(title string, cfg TitleConfig) bool {
	n := len([]rune(title))
	if n <= cfg.MetaMinLen || n >= cfg.MetaMaxLen {
		return false
	}
	if reNumericOnly.MatchString(title) {
		return false
	}
	for _, re := range junkTitlePatterns {
		if re.MatchString(title) {
			return false
		}
	}
	return true
}

// titleCandidates drops spans too short, numeric-only, or matching the
// header-noise prefixes before any font grouping happens.
func titleCandidates(spans []pdfdoc.Span) []pdfdoc.Span {
	out := make([]pdfdoc.Span, 0, len(spans))
	for _, s := range spans {
		text := strings.TrimSpace(s.Text)
		if len([]rune(text)) < 3 {
			continue
		}
		if reNumericOnly.MatchString(text) {
			continue
		}
		if reHeaderNoise.MatchString(text) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func maxFontSize(spans []pdfdoc.Span) float64 {
	max := 0.0
	for _, s := range spans {
		if s.FontSize > max {
			max = s.FontSize
		}
	}
	return max
}

// clusterLargestGroup selects the spans within tolerance of the largest
// font size, orders them top to bottom, and accumulates from the first
// span until a break condition fires.
func clusterLargestGroup(cands []pdfdoc.Span, cfg TitleConfig) string {
	max := maxFontSize(cands)
	group := make([]pdfdoc.Span, 0, len(cands))
	for _, s := range cands {
		if s.FontSize > max*cfg.FontTolerance {
			group = append(group, s)
		}
	}
	if len(group) == 0 {
		return ""
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].Y < group[j].Y })

	parts := []string{group[0].Text}
	prev := group[0]
	for _, s := range group[1:] {
		if breaksCluster(prev, s, cfg) {
			break
		}
		parts = append(parts, s.Text)
		prev = s
	}
	return util.CollapseSpaces(strings.Join(parts, " "))
}

// breaksCluster reports whether the next span down ends the title block:
// a vertical gap beyond GapFactor line heights, or content that reads as
// an author or affiliation line rather than a continuation.
func breaksCluster(prev, cur pdfdoc.Span, cfg TitleConfig) bool {
	if cur.Y-(prev.Y+prev.Height) > cfg.GapFactor*prev.Height {
		return true
	}
	low := strings.ToLower(cur.Text)
	if strings.Contains(low, "@") || strings.Contains(low, "email") {
		return true
	}
	for _, w := range affiliationWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	for _, w := range correspondenceWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	if strings.Count(cur.Text, ",") > 2 {
		return true
	}
	if len(reNameInitials.FindAllString(cur.Text, -1)) > 1 {
		return true
	}
	return false
}

func degenerateTitle(title string) bool {
	return len([]rune(title)) < 5 || reNumericOnly.MatchString(title)
}

func hasLowerFontGroup(cands []pdfdoc.Span, cfg TitleConfig) bool {
	max := maxFontSize(cands)
	for _, s := range cands {
		if s.FontSize <= max*cfg.FontTolerance {
			return true
		}
	}
	return false
}

// secondaryGroupTitle retries the visual pass on the spans below the top
// font group. Unlike the primary pass it joins the whole group without
// break conditions, and only a non-degenerate result is accepted.
func secondaryGroupTitle(cands []pdfdoc.Span, cfg TitleConfig) (string, bool) {
	max := maxFontSize(cands)
	rest := make([]pdfdoc.Span, 0, len(cands))
	for _, s := range cands {
		if s.FontSize <= max*cfg.FontTolerance {
			rest = append(rest, s)
		}
	}
	if len(rest) == 0 {
		return "", false
	}
	next := maxFontSize(rest)
	group := make([]pdfdoc.Span, 0, len(rest))
	for _, s := range rest {
		if s.FontSize > next*cfg.FontTolerance {
			group = append(group, s)
		}
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].Y < group[j].Y })

	parts := make([]string, 0, len(group))
	for _, s := range group {
		parts = append(parts, s.Text)
	}
	joined := util.CollapseSpaces(strings.Join(parts, " "))
	if len([]rune(joined)) > 5 && !reNumericOnly.MatchString(joined) {
		return joined, true
	}
	return "", false
}
