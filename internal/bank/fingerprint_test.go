package bank

import "testing"

func TestNewFingerprintStripsDecorations(t *testing.T) {
	fp := NewFingerprint(3, "3.简述 操作系统 的 进程 调度 策略（4分）")
	if fp.Ordinal != 3 {
		t.Fatalf("ordinal = %d, want 3", fp.Ordinal)
	}
	if fp.Core != "简述 操作系统 的 进程 调度 策略" {
		t.Fatalf("core = %q", fp.Core)
	}
	if _, ok := fp.Keywords["操作系统"]; !ok {
		t.Fatalf("keywords missing 操作系统: %v", fp.Keywords)
	}
	if _, ok := fp.Keywords["的"]; ok {
		t.Fatalf("single-rune keyword should be dropped")
	}
}

func TestFingerprintHashIgnoresWhitespace(t *testing.T) {
	a := NewFingerprint(1, "简述操作系统的调度策略")
	b := NewFingerprint(2, "简述 操作系统 的 调度策略")
	if a.Hash != b.Hash {
		t.Fatalf("hashes differ for whitespace-only variation")
	}
	if got := Similarity(a, b, DefaultWeights); got != 1.0 {
		t.Fatalf("similarity = %v, want 1.0 via hash short-circuit", got)
	}
}

func TestSimilarityComposite(t *testing.T) {
	a := NewFingerprint(1, "简述 操作系统 的 进程 调度 策略，并 举例 说明。")
	b := NewFingerprint(1, "简述 操作系统 的 进程 调度 策略，并 举例 分析。")
	got := Similarity(a, b, DefaultWeights)
	if got < 0.7 || got >= 1.0 {
		t.Fatalf("similarity = %v, want in [0.7, 1.0)", got)
	}

	c := NewFingerprint(1, "全微分 方程 的 求解 方法 与 典型 例题")
	if got := Similarity(a, c, DefaultWeights); got >= 0.7 {
		t.Fatalf("unrelated similarity = %v, want < 0.7", got)
	}
}

func TestSimilarityEmptyCore(t *testing.T) {
	a := NewFingerprint(0, "")
	b := NewFingerprint(0, "非空 内容 在此")
	if got := Similarity(a, b, DefaultWeights); got != 0 {
		t.Fatalf("similarity = %v, want 0", got)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"中文字符", "中文字串", 1},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Fatalf("levenshtein(%q,%q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
