package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// 课程与教授枚举
var (
	CourseCodes    = []string{"CMSC131", "CMSC132"}
	ProfessorNames = []string{"Elias Gonzalez", "Pedram Sadeghian"}
)

// 出勤记录方式
const (
	AttendanceExact    = "exact"
	AttendanceEstimate = "estimate"
)

// AttendanceEstimates 估算档位 → 人数
var AttendanceEstimates = map[string]int{
	"low":    10,
	"medium": 20,
	"high":   35,
}

// Feedback 助教课堂反馈，对应 feedbacks 表/集合
type Feedback struct {
	ID                string      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" bson:"-"                        json:"id"`
	TAName            string      `gorm:"column:ta_name;type:varchar(100);not null"                bson:"taName"                   json:"taName"            validate:"required,min=2"`
	CourseCode        string      `gorm:"column:course_code;type:varchar(20);not null;index"       bson:"courseCode"               json:"courseCode"        validate:"required,oneof=CMSC131 CMSC132"`
	ProfessorName     string      `gorm:"column:professor_name;type:varchar(100);not null;index"   bson:"professorName"            json:"professorName"     validate:"required,oneof='Elias Gonzalez' 'Pedram Sadeghian'"`
	Date              time.Time   `gorm:"column:date;not null"                                     bson:"date"                     json:"date"              validate:"required"`
	AttendanceType    string      `gorm:"column:attendance_type;type:varchar(10);not null"         bson:"attendanceType"           json:"attendanceType"    validate:"required,oneof=exact estimate"`
	AttendanceCount   int         `gorm:"column:attendance_count;not null"                         bson:"attendanceCount"          json:"attendanceCount"   validate:"min=0"`
	TopicsCovered     StringArray `gorm:"column:topics_covered;type:text[];not null"               bson:"topicsCovered"            json:"topicsCovered"     validate:"min=1"`
	StudentEngagement int         `gorm:"column:student_engagement;not null"                       bson:"studentEngagement"        json:"studentEngagement" validate:"min=1,max=5"`
	Overview          string      `gorm:"column:overview;type:text;not null"                       bson:"overview"                 json:"overview"          validate:"required"`
	Suggestions       string      `gorm:"column:suggestions;type:text"                             bson:"suggestions,omitempty"    json:"suggestions,omitempty"`
	NeedsAttention    bool        `gorm:"column:needs_attention;not null;default:false"            bson:"needsAttention"           json:"needsAttention"`
	SentimentScore    *float64    `gorm:"column:sentiment_score"                                   bson:"sentimentScore,omitempty" json:"sentimentScore,omitempty" validate:"omitempty,min=-1,max=1"`
	SentimentLabel    *string     `gorm:"column:sentiment_label;type:varchar(10)"                  bson:"sentimentLabel,omitempty" json:"sentimentLabel,omitempty" validate:"omitempty,oneof=positive neutral negative"`
	Semester          *string     `gorm:"column:semester;type:varchar(10)"                         bson:"semester,omitempty"       json:"semester,omitempty"       validate:"required,oneof=Fall Spring Summer"`
	Year              *int        `gorm:"column:year"                                              bson:"year,omitempty"           json:"year,omitempty"           validate:"required,min=1900,max=2100"`
	BaseModel         `bson:",inline"`
}

// TableName 指定表名
func (Feedback) TableName() string { return "feedbacks" }

// HasSemester 学期与年份是否均已写入
// 旧数据可能缺少其一，读取时需要补全
func (f *Feedback) HasSemester() bool {
	return f.Semester != nil && *f.Semester != "" && f.Year != nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 入库前校验字段约束（枚举、必填、取值范围）
func (f *Feedback) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
