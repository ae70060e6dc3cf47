package analyzer

import (
	"fmt"
	"strings"

	"github.com/sakif/profile-dashboard/internal/model"
)

// Categories is the closed set of user categories, in tie-break priority
// order. The classifier must pick exactly one.
var Categories = []string{
	"电商上架转化",
	"电商营销投放",
	"品牌/商业广告",
	"设备内容",
	"影视创作",
	"个人兴趣/非商业",
	model.UncategorizedLabel,
}

// Input text limits per workflow.
const (
	maxInputTexts   = 3
	maxInputTextLen = 200
	minInputTextLen = 6
)

// inputTextKeys are the topology node data fields that hold what the user typed.
var inputTextKeys = []string{"inputText", "text", "prompt"}

const promptHeader = `你是一个用户行为分析专家。请分析以下用户在AI创作平台上运行的工作流，判断每个工作流的目的，并对用户进行分类。

## 用户基本信息
- 运行次数：%d
- 活跃天数：%d

## 用户 Top %d 工作流

`

const promptCategories = `## 用户分类（user_category）
必须从以下分类中选择1个，不能组合，不能自创。多个都符合时，按列出的顺序取靠前的一个：
%s

## 商业潜力评分（business_potential.score，1-10 的整数）
- 9-10：明确的商业需求（电商产品图/视频、品牌广告）
- 7-8：有商业倾向，处于尝试或成长期
- 5-6：可能有商业需求但不明确
- 3-4：偏向个人使用
- 1-2：纯粹个人娱乐或测试

信息不足无法判断的定位字段，填写"无法判断"，不要猜测。

`

const promptSchema = `## 输出格式
只输出一个 JSON 对象，不要其他内容：
{
  "workflow_analysis": [
    {"rank": 1, "category": "分类", "purpose": "工作流目的", "confidence": "高/中/低", "reason": "判断理由"}
  ],
  "user_category": "分类",
  "user_subcategory": "更细的子分类",
  "user_profile": {
    "primary_purpose": "主要使用目的",
    "user_type": "用户类型",
    "activity_level": "高频活跃/中等活跃/轻度使用",
    "content_focus": ["内容偏好"],
    "tags": ["标签"],
    "summary": "一句话总结（30字内）"
  },
  "positioning": {
    "industry": "行业",
    "business_scale": "个人卖家/小型团队/中型企业/大型品牌/无法判断",
    "platform": "主要平台",
    "content_type": "内容类型"
  },
  "business_potential": {
    "score": 8,
    "stage": "尝试期/成长期/成熟期/流失期",
    "barrier": "可能的阻碍因素",
    "recommendation": "运营建议"
  }
}
`

// BuildPrompt renders the classification prompt for p from its usage stats
// and at most topN of its top workflows.
func BuildPrompt(p *model.UserProfile, topN int) string {
	workflows := topWorkflows(p, topN)

	var runs, days int
	if p.Stats != nil {
		runs, days = p.Stats.TotalRuns, p.Stats.ActiveDays
	}

	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, runs, days, len(workflows))
	for i := range workflows {
		writeWorkflow(&b, i+1, &workflows[i])
	}

	var cats strings.Builder
	for i, c := range Categories {
		fmt.Fprintf(&cats, "%d. %s\n", i+1, c)
	}
	fmt.Fprintf(&b, promptCategories, cats.String())
	b.WriteString(promptSchema)
	return b.String()
}

func topWorkflows(p *model.UserProfile, topN int) []model.TopWorkflow {
	if topN > 0 && len(p.TopWorkflows) > topN {
		return p.TopWorkflows[:topN]
	}
	return p.TopWorkflows
}

func writeWorkflow(b *strings.Builder, rank int, w *model.TopWorkflow) {
	name := w.DisplayName()
	if name == "" {
		name = "未命名"
	}
	fmt.Fprintf(b, "### 工作流 %d\n", rank)
	fmt.Fprintf(b, "- 名称: %s\n", name)
	fmt.Fprintf(b, "- 运行次数: %d\n", w.RunCount)
	fmt.Fprintf(b, "- 节点类型: %s\n", strings.Join(w.EffectiveNodeTypes(), ", "))
	fmt.Fprintf(b, "- 签名: %s\n", w.Signature)

	if texts := inputTexts(w); len(texts) > 0 {
		b.WriteString("- 用户输入文本:\n")
		for i, t := range texts {
			fmt.Fprintf(b, "  %d. %s\n", i+1, t)
		}
	}
	b.WriteString("\n")
}

// inputTexts collects the free text typed into the workflow's input nodes.
func inputTexts(w *model.TopWorkflow) []string {
	if w.Topology == nil {
		return nil
	}
	var out []string
	for _, n := range w.Topology.Nodes {
		for _, key := range inputTextKeys {
			s, ok := n.Data[key].(string)
			s = strings.TrimSpace(s)
			if !ok || len([]rune(s)) < minInputTextLen {
				continue
			}
			out = append(out, truncate(s, maxInputTextLen))
			if len(out) == maxInputTexts {
				return out
			}
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
