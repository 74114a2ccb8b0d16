package pipeline

import (
	"strings"

	"docmine/internal"
	"docmine/internal/config"
	"docmine/internal/pdfdoc"
)

// Extractor turns one input PDF into result rows. It holds no state
// beyond configuration, so a single instance is safe to share across
// workers.
type Extractor struct {
	cfg config.Config
}

func NewExtractor(cfg config.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// ProcessSingle extracts the title and every distinct email address from
// one document and fans them out into rows, one row per address. Files
// that cannot be opened or yield no text produce a single sentinel row
// instead, unless ExcludeNoEmail drops them.
func (s *Extractor) ProcessSingle(input internal.InputFile) []internal.ExtractionResult {
	rows := s.process(input)
	for i := range rows {
		rows[i].Source = input.Source
		rows[i].Origin = input.Origin
	}
	return rows
}

func (s *Extractor) process(input internal.InputFile) []internal.ExtractionResult {
	doc, err := pdfdoc.Open(input.Raw)
	if err != nil {
		return []internal.ExtractionResult{{
			FileName: input.Name,
			Title:    internal.TitleError,
			Email:    err.Error(),
		}}
	}
	defer doc.Close()

	if s.cfg.EarlyExit {
		return s.processEarlyExit(doc, input.Name)
	}

	text := doc.Text(s.cfg.PageBudget, s.cfg.MinTextChars)
	if text == "" {
		if s.cfg.ExcludeNoEmail {
			return nil
		}
		return []internal.ExtractionResult{{
			FileName: input.Name,
			Title:    internal.TitleUnreadable,
			Email:    internal.EmailError,
		}}
	}

	title := ResolveTitle(doc, s.titleConfig())
	emails := ExtractEmails(text)
	return resultsFor(input.Name, title, emails, s.cfg.ExcludeNoEmail)
}

// processEarlyExit resolves the title up front, then walks pages one at
// a time and stops as soon as the title is known and enough addresses
// have turned up. When the walk ends below the minimum text threshold
// the full extraction runs anyway so the fallback engine still gets its
// chance.
func (s *Extractor) processEarlyExit(doc *pdfdoc.Document, name string) []internal.ExtractionResult {
	title := ResolveTitle(doc, s.titleConfig())

	var pages []string
	var emails []string
	stopped := false

	n := doc.PageCount()
	if n > s.cfg.PageBudget {
		n = s.cfg.PageBudget
	}
	for i := 1; i <= n; i++ {
		page, err := doc.PageText(i)
		if err == nil && page != "" {
			pages = append(pages, page)
		}
		emails = ExtractEmails(strings.Join(pages, "\n"))
		if title != internal.TitleUnknown && len(emails) >= s.cfg.EarlyExitEmails {
			stopped = true
			break
		}
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if !stopped && len([]rune(text)) < s.cfg.MinTextChars {
		text = doc.Text(s.cfg.PageBudget, s.cfg.MinTextChars)
		emails = ExtractEmails(text)
	}
	if text == "" {
		if s.cfg.ExcludeNoEmail {
			return nil
		}
		return []internal.ExtractionResult{{
			FileName: name,
			Title:    internal.TitleUnreadable,
			Email:    internal.EmailError,
		}}
	}
	return resultsFor(name, title, emails, s.cfg.ExcludeNoEmail)
}

func (s *Extractor) titleConfig() TitleConfig {
	return TitleConfig{
		FontTolerance: s.cfg.FontTolerance,
		GapFactor:     s.cfg.GapFactor,
		MetaMinLen:    s.cfg.MetaTitleMinLen,
		MetaMaxLen:    s.cfg.MetaTitleMaxLen,
	}
}

// resultsFor fans one file's title and address list out into rows. An
// empty address list becomes a single placeholder row, or nothing at all
// when excludeNoEmail is set.
func resultsFor(fileName, title string, emails []string, excludeNoEmail bool) []internal.ExtractionResult {
	if len(emails) == 0 {
		if excludeNoEmail {
			return nil
		}
		return []internal.ExtractionResult{{
			FileName: fileName,
			Title:    title,
			Email:    internal.EmailNotFound,
		}}
	}
	out := make([]internal.ExtractionResult, 0, len(emails))
	for _, email := range emails {
		out = append(out, internal.ExtractionResult{
			FileName: fileName,
			Title:    title,
			Email:    email,
		})
	}
	return out
}
