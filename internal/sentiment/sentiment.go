// Package sentiment 把不可靠的模型回复（或原始反馈文本）转换为
// [-1, 1] 区间内的分数和 positive / neutral / negative 三档标签。
//
// 处理流程：
//  1. Extract：在回复中截取第一个 "{" 到最后一个 "}" 的子串解析 {score, label}，
//     找不到花括号时尝试把整段回复当作 JSON 解析
//  2. Fallback：解析失败时对原始文本做关键词计数
//  3. Normalize：分数截断到 [-1, 1]，标签始终按分数阈值重新判定
//
// 包内函数均为纯函数，不返回错误。
package sentiment

import (
	"math"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// 情感标签
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// 标签判定阈值
const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

// Source 分析结果来源
type Source string

const (
	SourceModel   Source = "model"
	SourceKeyword Source = "keyword"
)

// Result 情感分析结果
type Result struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

var (
	positiveWords = []string{"good", "great", "excellent", "well", "easy", "understood", "engaged", "helpful", "clear", "positive"}
	negativeWords = []string{"difficult", "struggled", "confused", "hard", "challenging", "problem", "issue", "concern", "negative", "poor"}
)

var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ValidLabel 是否为三种合法标签之一
func ValidLabel(label string) bool {
	switch label {
	case LabelPositive, LabelNeutral, LabelNegative:
		return true
	}
	return false
}

// LabelFor 按阈值由分数推导标签
func LabelFor(score float64) string {
	switch {
	case score > positiveThreshold:
		return LabelPositive
	case score < negativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Extract 从模型回复中提取 {score, label}
// 第二个返回值为 false 表示回复不是可解析的 JSON
func Extract(reply string) (Result, bool) {
	candidate := strings.TrimSpace(reply)
	if m := objectPattern.FindString(candidate); m != "" {
		candidate = m
	}
	if !gjson.Valid(candidate) {
		return Result{}, false
	}

	var r Result
	if score := gjson.Get(candidate, "score"); score.Type == gjson.Number {
		r.Score = score.Float()
	}
	if label := gjson.Get(candidate, "label"); label.Type == gjson.String {
		r.Label = label.Str
	}
	return r, true
}

// Fallback 基于关键词的本地情感打分
// 关键词按子串包含计数，不做分词
func Fallback(text string) Result {
	lower := strings.ToLower(text)

	positive := countHits(lower, positiveWords)
	negative := countHits(lower, negativeWords)

	switch {
	case positive > negative:
		return Result{Score: math.Min(0.5+0.1*float64(positive), 1.0), Label: LabelPositive}
	case negative > positive:
		return Result{Score: math.Max(-0.5-0.1*float64(negative), -1.0), Label: LabelNegative}
	default:
		return Result{Score: 0, Label: LabelNeutral}
	}
}

// Normalize 截断分数并按分数重新判定标签
// 模型给出的标签与分数不一致时以分数为准
func Normalize(r Result) Result {
	score := r.Score
	if math.IsNaN(score) {
		score = 0
	}
	score = math.Max(-1, math.Min(1, score))
	return Result{Score: round(score), Label: LabelFor(score)}
}

// Analyze 完整处理一次模型回复；回复不可解析时退化为对 source 的关键词打分
func Analyze(reply, source string) (Result, Source) {
	if r, ok := Extract(reply); ok {
		return Normalize(r), SourceModel
	}
	return Normalize(Fallback(source)), SourceKeyword
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// round 消除 0.5+0.1*3 之类的浮点尾差
func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
