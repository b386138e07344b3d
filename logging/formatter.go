package logging

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/grovetools/swarmstat/tui/theme"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const timestampLayout = "2006-01-02 15:04:05"

// TextFormatter renders entries as
//
//	<time> [LEVEL] [component] [file:line func] message key=value...
//
// with fields in key order.
type TextFormatter struct {
	Config FormatConfig
}

func levelLabel(l logrus.Level) string {
	if l == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(l.String())
}

func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	if !f.Config.DisableTimestamp {
		buf.WriteString(entry.Time.Format(timestampLayout))
		buf.WriteByte(' ')
	}
	fmt.Fprintf(&buf, "[%s]", levelLabel(entry.Level))

	if c, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		fmt.Fprintf(&buf, " [%s]", theme.DefaultTheme.Accent.Render(fmt.Sprint(c)))
	}
	if entry.HasCaller() {
		fmt.Fprintf(&buf, " [%s:%d %s]",
			filepath.Base(entry.Caller.File), entry.Caller.Line, filepath.Base(entry.Caller.Function))
	}

	buf.WriteByte(' ')
	buf.WriteString(entry.Message)

	keys := lo.Without(lo.Keys(map[string]any(entry.Data)), "component")
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, " %s=%v", k, entry.Data[k])
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
