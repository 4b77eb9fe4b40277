package service

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/internal/dto"
	"github.com/eshashah22/131-Insight/pkg/semester"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterCodeInvalid = errors.New("学期代码无效，应为 \"<Fall|Spring|Summer> <Year>\"")
)

// SemesterService 学期查询接口（学期由日期推导，不单独存储）
type SemesterService interface {
	// Current 时钟当前时间所属学期及其日期区间
	Current(ctx context.Context) (*dto.CurrentSemesterResponse, error)
	// Resolve 解析学期代码并返回日期区间
	Resolve(ctx context.Context, code string) (*dto.CurrentSemesterResponse, error)
}

type semesterService struct {
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(clock clockwork.Clock, logger *zap.Logger) SemesterService {
	return &semesterService{clock: clock, logger: logger}
}

// ────────────────────── Current ──────────────────────

func (s *semesterService) Current(ctx context.Context) (*dto.CurrentSemesterResponse, error) {
	return s.Resolve(ctx, string(semester.Current(s.clock)))
}

// ────────────────────── Resolve ──────────────────────

func (s *semesterService) Resolve(_ context.Context, code string) (*dto.CurrentSemesterResponse, error) {
	c := semester.Code(code)
	term, year, err := semester.Parse(c)
	if err != nil || !semester.ValidTerm(term) {
		return nil, ErrSemesterCodeInvalid
	}

	rng, err := semester.DateRange(c)
	if err != nil {
		s.logger.Error("计算学期区间失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return &dto.CurrentSemesterResponse{
		Code:     code,
		Semester: term,
		Year:     year,
		Start:    rng.Start.Format(dateLayout),
		End:      rng.End.Format(dateLayout),
	}, nil
}
