package ai

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{`{"score": 5}`, `{"score": 5}`, true},
		{"评估结果如下 {\"score\": 5} 供参考", `{"score": 5}`, true},
		{"```json\n{\"score\": 5}\n```", `{"score": 5}`, true},
		{"没有结构化内容", "", false},
		{"}{", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractJSONObject(c.in)
		if ok != c.wantOK || got != c.want {
			t.Fatalf("ExtractJSONObject(%q) = %q,%v", c.in, got, ok)
		}
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, ok := ExtractJSONArray("结果：[{\"name\":\"张三\"}] 完")
	if !ok || got != `[{"name":"张三"}]` {
		t.Fatalf("got %q,%v", got, ok)
	}
	if _, ok := ExtractJSONArray("no array here"); ok {
		t.Fatalf("expected miss")
	}
}
