// Package formatter превращает ответ генератора текста в markdown-список,
// разбитый на именованные секции.
package formatter

import (
	"regexp"
	"strings"
)

const (
	defaultTitle = "Key Points"
	shortTitle   = "Analysis"
	// maxHeaderLen — предложения этой длины и длиннее заголовком не считаются.
	maxHeaderLen = 50
	bullet       = "• "
)

var (
	sentenceDelims = regexp.MustCompile(`[.!?]+`)
	extraNewlines  = regexp.MustCompile(`\n{3,}`)
	innerBreaks    = regexp.MustCompile(`[ \t\r]*\n\s*`)
	headerWords    = regexp.MustCompile(`(?i)^(overview|summary|key points|analysis|recommendation|conclusion)`)
)

type section struct {
	title  string
	points []string
}

// Format раскладывает текст на предложения и группирует их в секции.
// Каждое предложение попадает в вывод ровно одним пунктом списка; предложение-заголовок
// открывает новую секцию и остаётся её первым пунктом.
func Format(raw string) string {
	sentences := Sentences(raw)
	if len(sentences) == 0 {
		return ""
	}

	if len(sentences) <= 2 {
		return render([]section{{title: shortTitle, points: sentences}})
	}

	var sections []section
	current := section{title: defaultTitle}
	for _, s := range sentences {
		if IsHeader(s) {
			if len(current.points) > 0 {
				sections = append(sections, current)
			}
			current = section{title: strings.TrimSpace(strings.Replace(s, ":", "", 1))}
		}
		current.points = append(current.points, s)
	}
	sections = append(sections, current)

	return render(sections)
}

// Sentences возвращает непустые предложения текста в исходном порядке.
func Sentences(raw string) []string {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return nil
	}
	normalized = extraNewlines.ReplaceAllString(normalized, "\n\n")

	parts := sentenceDelims.Split(normalized, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		// перевод строки внутри предложения не должен разрывать пункт списка
		if p = innerBreaks.ReplaceAllString(strings.TrimSpace(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsHeader сообщает, похоже ли предложение на заголовок секции.
func IsHeader(sentence string) bool {
	if len(sentence) >= maxHeaderLen {
		return false
	}
	return strings.Contains(sentence, ":") || headerWords.MatchString(sentence)
}

func render(sections []section) string {
	var b strings.Builder
	for _, sec := range sections {
		if len(sec.points) == 0 {
			continue
		}
		b.WriteString("**")
		b.WriteString(sec.title)
		b.WriteString("**\n\n")
		for _, p := range sec.points {
			b.WriteString(bullet)
			b.WriteString(p)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
