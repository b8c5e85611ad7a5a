package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/uluckystar/teachhelper/internal/ai"
)

// Identity is who a document belongs to and how that was determined.
type Identity struct {
	Number string
	Name   string
	Source string // "filename", "ai", "surrogate"
}

var (
	reStudentNumber = regexp.MustCompile(`^[A-Z]?\d{7,12}$`)
	rePlatformName  = regexp.MustCompile(`^学习通\d+-([^-_]+)[-_]`)
	reDigits        = regexp.MustCompile(`^\d+$`)
)

// ParseFilename recovers student identity from upload naming conventions:
// 学习通12345-姓名-考试, 学院-专业-学号-姓名-..., 专业年级-学号-姓名.
func ParseFilename(filename string) (Identity, bool) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	if m := rePlatformName.FindStringSubmatch(base); m != nil {
		return Identity{Name: m[1], Source: "filename"}, true
	}

	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		if !reStudentNumber.MatchString(p) {
			continue
		}
		id := Identity{Number: p, Source: "filename"}
		if i+1 < len(parts) && !reDigits.MatchString(parts[i+1]) {
			id.Name = parts[i+1]
		} else if i > 0 && !reDigits.MatchString(parts[i-1]) {
			id.Name = parts[i-1]
		}
		if id.Name != "" {
			return id, true
		}
	}
	return Identity{}, false
}

// SurrogateNumber builds a stable-enough placeholder when no student
// number could be recovered: "NO", the last 8 digits of the unix-milli
// timestamp, and the last 2 digits of the first rune's codepoint.
func SurrogateNumber(name string, now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	first := 'X'
	for _, r := range name {
		first = r
		break
	}
	code := fmt.Sprintf("%04d", first%10000)
	return "NO" + millis + code[2:]
}

const identityPromptHeader = `从下列文件名中提取学生学号和姓名。按原顺序返回JSON数组，格式：
[{"studentNumber":"学号或空","name":"姓名或空"}]
文件名列表：
`

// ExtractIdentities asks the model for every filename the patterns could
// not parse, one batched prompt. Failures degrade to zero-value
// identities; the caller fills surrogates.
func ExtractIdentities(ctx context.Context, c ai.Completer, filenames []string, logger *slog.Logger) []Identity {
	out := make([]Identity, len(filenames))
	if c == nil || len(filenames) == 0 {
		return out
	}
	if logger == nil {
		logger = slog.Default()
	}
	var b strings.Builder
	b.WriteString(identityPromptHeader)
	for i, f := range filenames {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	reply, err := c.Complete(ctx, b.String())
	if err != nil {
		logger.Debug("identity extraction failed", "files", len(filenames), "err", err)
		return out
	}
	arr, ok := ai.ExtractJSONArray(reply)
	if !ok {
		return out
	}
	var parsed []struct {
		StudentNumber string `json:"studentNumber"`
		Name          string `json:"name"`
	}
	if err := json.Unmarshal([]byte(arr), &parsed); err != nil {
		logger.Debug("identity extraction unparsable", "err", err)
		return out
	}
	for i := range out {
		if i >= len(parsed) {
			break
		}
		num := strings.TrimSpace(parsed[i].StudentNumber)
		if num != "" && !reStudentNumber.MatchString(num) {
			num = ""
		}
		out[i] = Identity{Number: num, Name: strings.TrimSpace(parsed[i].Name), Source: "ai"}
	}
	return out
}
