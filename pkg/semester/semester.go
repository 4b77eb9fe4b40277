// Package semester 提供学期代码（如 "Fall 2024"）与日期之间的换算。
//
// 学期划分（UMD 校历近似值）：
//   - Fall:   8–12 月，教学周 8/26 – 12/20
//   - Spring: 1–5 月， 教学周 1/29 – 5/15
//   - Summer: 6–7 月， 教学周 5/28 – 8/15
//
// 日期区间是校历的近似，不处理闰年和节假日调整；
// 区间之间不连续（如 12/21–12/31），这是预期内的空档。
package semester

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// 学期名称
const (
	Fall   = "Fall"
	Spring = "Spring"
	Summer = "Summer"
)

// ErrInvalidCode 学期代码格式无效
var ErrInvalidCode = errors.New("学期代码格式无效")

// Code 学期代码，格式为 "<Term> <Year>"
type Code string

// Range 学期日期区间（闭区间，均为当地时间零点）
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains 判断 t 所在日期是否落在区间内
func (r Range) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.Start.Location())
	return !day.Before(r.Start) && !day.After(r.End)
}

// Of 由学期名与年份拼出学期代码
func Of(term string, year int) Code {
	return Code(fmt.Sprintf("%s %d", term, year))
}

// ValidTerm 是否为三种合法学期名之一
func ValidTerm(term string) bool {
	switch term {
	case Fall, Spring, Summer:
		return true
	}
	return false
}

// Split 返回日期所属的学期名与年份
// 使用 t 自身时区下的年、月，不做时区归一化
func Split(t time.Time) (string, int) {
	month := t.Month()
	year := t.Year()

	switch {
	case month >= time.August:
		return Fall, year
	case month <= time.May:
		return Spring, year
	default:
		return Summer, year
	}
}

// FromDate 返回日期所属的学期代码
func FromDate(t time.Time) Code {
	term, year := Split(t)
	return Of(term, year)
}

// Current 返回时钟当前时间所属的学期代码
func Current(clock clockwork.Clock) Code {
	return FromDate(clock.Now())
}

// Parse 解析学期代码，返回学期名与年份
// 学期名不做合法性校验，由调用方决定如何处理未知学期
func Parse(code Code) (string, int, error) {
	parts := strings.Fields(string(code))
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return parts[0], year, nil
}

// Term 学期名；代码无效时返回空串
func (c Code) Term() string {
	term, _, err := Parse(c)
	if err != nil {
		return ""
	}
	return term
}

// Year 年份；代码无效时返回 0
func (c Code) Year() int {
	_, year, err := Parse(c)
	if err != nil {
		return 0
	}
	return year
}

// DateRange 返回学期代码对应的日期区间
// 未知学期名退化为整个自然年
func DateRange(code Code) (Range, error) {
	term, year, err := Parse(code)
	if err != nil {
		return Range{}, err
	}

	day := func(m time.Month, d int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, time.Local)
	}

	switch term {
	case Fall:
		return Range{Start: day(time.August, 26), End: day(time.December, 20)}, nil
	case Spring:
		return Range{Start: day(time.January, 29), End: day(time.May, 15)}, nil
	case Summer:
		return Range{Start: day(time.May, 28), End: day(time.August, 15)}, nil
	default:
		return Range{Start: day(time.January, 1), End: day(time.December, 31)}, nil
	}
}

// Unique 把一组日期映射为去重后的学期代码，按字符串倒序排列
//
// 注意：这里是字典序而非时间序（"Summer 2024" 排在 "Spring 2025" 之前），
// 与已有看板输出保持一致。
func Unique(dates []time.Time) []Code {
	seen := make(map[Code]struct{}, len(dates))
	for _, d := range dates {
		seen[FromDate(d)] = struct{}{}
	}
	return SortCodes(seen)
}

// SortCodes 将学期代码集合按字符串倒序输出
func SortCodes(set map[Code]struct{}) []Code {
	codes := make([]Code, 0, len(set))
	for c := range set {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] > codes[j] })
	return codes
}
