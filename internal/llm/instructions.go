package llm

import (
	"strings"
)

// SystemInstruction sets the role of the rewrite model.
const SystemInstruction = "あなたは日本語の文章校正の専門家です。"

const taskInstruction = `以下の東京都知事会見録のテキストを、レイアウトと読みやすさを整えてください。
- インデント、行間を整えてください。
- ＜見出し＞形式でセクションを明確にしてください。見出しは行頭を「＜」、行末を「＞」とし、一行で書いてください。
- 【知事】【記者】などの話者表示は変更せず、発言の行頭に残してください。
- ダブルスペースや読点の不自然な箇所を修正してください。
- 意味を変えずに、言い直しや重複した表現を省いてください。
- 整形したテキストのみを出力し、説明や前置きは書かないでください。

---
`

// BuildPrompt returns the user input for one chunk.
func BuildPrompt(chunk string) string {
	var b strings.Builder
	b.Grow(len(taskInstruction) + len(chunk))
	b.WriteString(taskInstruction)
	b.WriteString(chunk)
	return b.String()
}

// Instructions returns the full editorial instructions, system role first.
func Instructions() string {
	return SystemInstruction + "\n\n" + strings.TrimSpace(strings.TrimSuffix(taskInstruction, "---\n"))
}
