// Package output 命令行输出格式化
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Format 输出格式
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
	FormatTable  Format = "table"
	FormatText   Format = "text"
)

// ParseFormat 解析 --output 参数
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (json|pretty|table|text)", s)
	}
}

// Table 有序列的表格数据；JSON 输出时使用 Data
type Table struct {
	Columns []string
	Rows    [][]string
	Data    interface{}
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据输出（JSON/表格等）
	logWriter io.Writer // 提示信息输出，避免污染 JSON
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr,
	}
}

// Format 当前格式
func (f *Formatter) Format() Format {
	return f.format
}

// SetLogWriter 设置提示信息输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 设置静默模式
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 打印输出
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}
	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (f *Formatter) printTable(data interface{}) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	var err error
	switch v := data.(type) {
	case *Table:
		err = writeRows(tw, v.Columns, v.Rows)
	case *Fields:
		err = writeRows(tw, []string{"Field", "Value"}, v.rows())
	default:
		// 降级到JSON
		return f.printJSON(data, true)
	}
	if err != nil {
		return err
	}
	return tw.Flush()
}

func writeRows(tw *tabwriter.Writer, columns []string, rows [][]string) error {
	if _, err := fmt.Fprintln(tw, strings.Join(columns, "\t")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	sep := make([]string, len(columns))
	for i, c := range columns {
		sep[i] = strings.Repeat("-", len(c))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(sep, "\t")); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

func (f *Formatter) printText(data interface{}) error {
	var err error
	switch v := data.(type) {
	case *Table:
		for _, row := range v.Rows {
			if _, err = fmt.Fprintln(f.writer, strings.Join(row, " ")); err != nil {
				break
			}
		}
	case *Fields:
		for _, kv := range v.rows() {
			if _, err = fmt.Fprintf(f.writer, "%s: %s\n", kv[0], kv[1]); err != nil {
				break
			}
		}
	default:
		_, err = fmt.Fprintf(f.writer, "%v\n", data)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSuccess 打印成功消息
func (f *Formatter) PrintSuccess(message string) {
	if !f.silent {
		_, _ = fmt.Fprintf(f.logWriter, "✅ %s\n", message)
	}
}

// PrintError 打印错误消息，静默模式下也输出
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprintf(f.logWriter, "❌ Error: %v\n", err)
}

// PrintWarning 打印警告消息
func (f *Formatter) PrintWarning(message string) {
	if !f.silent {
		_, _ = fmt.Fprintf(f.logWriter, "⚠️  %s\n", message)
	}
}

// PrintInfo 打印信息消息
func (f *Formatter) PrintInfo(message string) {
	if !f.silent {
		_, _ = fmt.Fprintf(f.logWriter, "ℹ️  %s\n", message)
	}
}

// ===== 辅助函数 =====

// formatValue 格式化值
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "-"
		}
		return v
	case time.Time:
		if v.IsZero() {
			return "-"
		}
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case int, int64, uint, uint64:
		return fmt.Sprintf("%d", v)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case nil:
		return "-"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// ErrorOutput 错误输出结构
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput 创建错误输出
func NewErrorOutput(code string, message string, details interface{}) *ErrorOutput {
	out := &ErrorOutput{}
	out.Error.Code = code
	out.Error.Message = message
	out.Error.Details = details
	return out
}
