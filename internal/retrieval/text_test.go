package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "《刑法》", displayTitle("刑法", "有效"))
	assert.Equal(t, "《刑法》", displayTitle("刑法", ""))
	assert.Equal(t, "《某条例》（已废止）", displayTitle("某条例", "已废止"))
}

func TestHighlight(t *testing.T) {
	short := "醉酒驾驶机动车的，处拘役。"
	assert.Equal(t, short, highlight(short, "拘役"))

	long := strings.Repeat("甲", 80) + "正当防卫" + strings.Repeat("乙", 80)
	got := highlight(long, "正当防卫")
	assert.True(t, strings.HasPrefix(got, "..."+strings.Repeat("甲", 50)+"正当防卫"))
	assert.True(t, strings.HasSuffix(got, strings.Repeat("乙", 50)+"..."))

	assert.Contains(t, highlight(strings.Repeat("x", 60)+"ABC"+strings.Repeat("y", 60), "abc"), "ABC")

	missing := strings.Repeat("丙", 150)
	assert.Equal(t, strings.Repeat("丙", 100)+"...", highlight(missing, "正当防卫"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "正当防卫", truncate("正当防卫", 4))
	assert.Equal(t, "正当...", truncate("正当防卫", 2))
	assert.Equal(t, "正当防卫", truncate("正当防卫", 0))
}

func TestMergeItems(t *testing.T) {
	a := Item{LawID: "l1", Label: "第一条"}
	b := Item{LawID: "l1", Label: "第二条"}
	c := Item{LawID: "l2", Label: "第一条"}

	assert.Equal(t, []Item{a, b, c}, mergeItems(10, []Item{a}, []Item{b, a}, []Item{c}))
	assert.Equal(t, []Item{a, b}, mergeItems(2, []Item{a, b}, []Item{c}))
	assert.Empty(t, mergeItems(5))
}

func TestBuildContext(t *testing.T) {
	items := []Item{
		{LawID: "l1", LawTitle: "刑法", Label: "第一条", Content: "第一行\n第二行"},
		{LawID: "l1", LawTitle: "刑法", Label: "第二条", Content: strings.Repeat("长", 40)},
	}

	ctx, sources := buildContext(items, 1000, 10)
	assert.Equal(t, "[1] 《刑法》第一条：第一行 第二行\n[2] 《刑法》第二条："+strings.Repeat("长", 10)+"...", ctx)
	assert.Equal(t, []Source{{LawID: "l1", LawTitle: "刑法", Label: "第一条"}, {LawID: "l1", LawTitle: "刑法", Label: "第二条"}}, sources)

	ctx, sources = buildContext(items, 20, 10)
	assert.Equal(t, "[1] 《刑法》第一条：第一行 第二行", ctx)
	assert.Len(t, sources, 1)
}
