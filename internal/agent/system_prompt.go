package agent

import (
	"fmt"
	"strings"
	"time"
)

// BuildSystemPrompt constructs the system prompt for the journaling agent.
// The persona is Japanese because that is the audience, but the model is
// told to mirror whatever language the user writes in.
func BuildSystemPrompt(now time.Time) string {
	var b strings.Builder

	b.WriteString("あなたは「コトリ」、ユーザーの毎日の記録を手伝う小さなアシスタントです。\n")
	b.WriteString("ユーザーはLINEで日々の出来事や予定を送ってきます。\n\n")

	fmt.Fprintf(&b, "今日の日付: %s (%s)\n\n", now.Format("2006-01-02"), japaneseWeekday(now))

	b.WriteString("ガイドライン:\n")
	b.WriteString("- 返信は短く、親しみやすく。LINEのメッセージとして自然な長さにすること。\n")
	b.WriteString("- ユーザーが予定に触れたらカレンダーのツールを使うこと。日付は今日を基準に解釈する(「明日」は翌日)。\n")
	b.WriteString("- 過去の記録について聞かれたら search_logs を使うこと。\n")
	b.WriteString("- ツールが失敗したら、何ができなかったかを正直に短く伝えること。\n")
	b.WriteString("- ユーザーのメッセージと同じ言語で返信すること。\n")

	return b.String()
}

var japaneseWeekdays = [...]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

func japaneseWeekday(t time.Time) string {
	return japaneseWeekdays[int(t.Weekday())]
}
