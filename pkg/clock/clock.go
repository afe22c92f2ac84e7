// Package clock 提供了可注入的日历时钟。
// 每日额度重置依据的"今天"由这里统一给出，时区来自显式配置，
// 不依赖进程本地时区。
package clock

import "time"

// DateFormat 是系统内日历日期的统一格式。
const DateFormat = "2006-01-02"

// Clock 定义了业务代码需要的时间能力。
type Clock interface {
	Now() time.Time
	// Today 返回配置时区下的当前日历日期（DateFormat 格式）。
	Today() string
}

type realClock struct {
	loc *time.Location
}

// New 按 IANA 时区名称创建一个真实时钟。
func New(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &realClock{loc: loc}, nil
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *realClock) Today() string {
	return c.Now().Format(DateFormat)
}
