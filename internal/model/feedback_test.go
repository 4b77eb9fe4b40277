package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArray_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want StringArray
	}{
		{"nil", nil, nil},
		{"empty", "{}", StringArray{}},
		{"bare", []byte("{Loops,Arrays}"), StringArray{"Loops", "Arrays"}},
		{"quoted", `{"for loops","a, b"}`, StringArray{"for loops", "a, b"}},
		{"escaped", `{"say \"hi\"","back\\slash"}`, StringArray{`say "hi"`, `back\slash`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringArray
			require.NoError(t, got.Scan(tt.src))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringArray_ScanInvalid(t *testing.T) {
	var a StringArray
	assert.Error(t, a.Scan(42))
	assert.Error(t, a.Scan("Loops"))
	assert.Error(t, a.Scan(`{"open}`))
}

func TestStringArray_ValueRoundTrip(t *testing.T) {
	in := StringArray{"Loops", `quote "x"`, "a, b", `c\d`}
	v, err := in.Value()
	require.NoError(t, err)

	var out StringArray
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func validFeedback() *Feedback {
	term, year := "Fall", 2024
	return &Feedback{
		TAName:            "Alice",
		CourseCode:        "CMSC131",
		ProfessorName:     "Elias Gonzalez",
		Date:              time.Date(2024, 10, 1, 0, 0, 0, 0, time.Local),
		AttendanceType:    AttendanceExact,
		AttendanceCount:   18,
		TopicsCovered:     StringArray{"Loops"},
		StudentEngagement: 3,
		Overview:          "went fine",
		Semester:          &term,
		Year:              &year,
	}
}

func TestFeedback_Validate(t *testing.T) {
	assert.NoError(t, validFeedback().Validate())

	tests := []struct {
		name   string
		mutate func(f *Feedback)
		field  string
	}{
		{"short ta name", func(f *Feedback) { f.TAName = "A" }, "TAName"},
		{"unknown course", func(f *Feedback) { f.CourseCode = "CMSC216" }, "CourseCode"},
		{"unknown professor", func(f *Feedback) { f.ProfessorName = "Someone Else" }, "ProfessorName"},
		{"no topics", func(f *Feedback) { f.TopicsCovered = StringArray{} }, "TopicsCovered"},
		{"engagement too high", func(f *Feedback) { f.StudentEngagement = 6 }, "StudentEngagement"},
		{"engagement zero", func(f *Feedback) { f.StudentEngagement = 0 }, "StudentEngagement"},
		{"negative attendance", func(f *Feedback) { f.AttendanceCount = -1 }, "AttendanceCount"},
		{"bad attendance type", func(f *Feedback) { f.AttendanceType = "guess" }, "AttendanceType"},
		{"empty overview", func(f *Feedback) { f.Overview = "" }, "Overview"},
		{"sentiment out of range", func(f *Feedback) { s := 1.5; f.SentimentScore = &s }, "SentimentScore"},
		{"bad sentiment label", func(f *Feedback) { l := "happy"; f.SentimentLabel = &l }, "SentimentLabel"},
		{"bad term", func(f *Feedback) { term := "Winter"; f.Semester = &term }, "Semester"},
		{"missing year", func(f *Feedback) { f.Year = nil }, "Year"},
		{"zero date", func(f *Feedback) { f.Date = time.Time{} }, "Date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFeedback()
			tt.mutate(f)
			err := f.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestFeedback_HasSemester(t *testing.T) {
	f := validFeedback()
	assert.True(t, f.HasSemester())

	empty := ""
	f.Semester = &empty
	assert.False(t, f.HasSemester())

	f = validFeedback()
	f.Year = nil
	assert.False(t, f.HasSemester())
}
