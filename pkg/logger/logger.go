package logger

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eshashah22/131-Insight/config"
)

// serviceName 写入每条日志的 service 字段
const serviceName = "131-insight"

// NewLogger 根据配置初始化 Zap 日志实例
// format=console 时使用彩色开发者格式，其余情况输出 JSON
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}

	return logger, nil
}

// excerptRunes 反馈正文在日志中保留的最大字符数
const excerptRunes = 80

// Excerpt 截取反馈正文的开头写入日志
// 换行折叠为空格，超出部分以 "…" 结尾并附带原始长度，日志中不保留完整的学生反馈
func Excerpt(key, text string) zap.Field {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptRunes {
		return zap.String(key, text)
	}
	runes := []rune(text)
	return zap.String(key, fmt.Sprintf("%s… (%d chars)", string(runes[:excerptRunes]), len(runes)))
}
