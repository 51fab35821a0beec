package worker

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/qs3c/novel_go_server/internal/model"
)

var ErrEmptyChapter = errors.New("chapter content is empty")

// ProgressFunc 分析过程中的进度回调，取值 0-100
type ProgressFunc func(progress int)

// Analyzer 章节分析器
type Analyzer interface {
	Analyze(ctx context.Context, chapter *model.Chapter, report ProgressFunc) (*AnalysisResult, error)
}

// AnalysisResult 章节统计
type AnalysisResult struct {
	Paragraphs       int     `json:"paragraphs"`
	Characters       int     `json:"characters"`
	DialogueLines    int     `json:"dialogue_lines"`
	LongestParagraph int     `json:"longest_paragraph"`
	DialogueRatio    float64 `json:"dialogue_ratio"`
}

// 分析阶段最多上报到 90，剩余由完成状态补齐
const analyzeProgressCap = 90

// TextAnalyzer 按段落统计字数与对白
type TextAnalyzer struct{}

func NewTextAnalyzer() *TextAnalyzer {
	return &TextAnalyzer{}
}

func (a *TextAnalyzer) Analyze(ctx context.Context, chapter *model.Chapter, report ProgressFunc) (*AnalysisResult, error) {
	paragraphs := splitParagraphs(chapter.Content)
	if len(paragraphs) == 0 {
		return nil, ErrEmptyChapter
	}

	result := &AnalysisResult{Paragraphs: len(paragraphs)}
	for i, p := range paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := countChars(p)
		result.Characters += n
		if n > result.LongestParagraph {
			result.LongestParagraph = n
		}
		if isDialogue(p) {
			result.DialogueLines++
		}

		if report != nil {
			report((i + 1) * analyzeProgressCap / len(paragraphs))
		}
	}

	result.DialogueRatio = float64(result.DialogueLines) / float64(result.Paragraphs)
	return result, nil
}

func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}

// countChars 不计空白字符
func countChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func isDialogue(p string) bool {
	if strings.ContainsAny(p, "“”「」\"") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(p)
	return r == '—'
}
