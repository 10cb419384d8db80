package services

import (
	"strings"

	"dermaview-backend/internal/models"
)

const chatPersona = `당신은 피부과 전문의를 보조하는 임상 AI 어시스턴트입니다.
환자의 3D 피부 스캔 분석 데이터를 바탕으로 의사의 질문에 답변합니다.

답변 원칙:
- 의학 용어를 사용하되 간결하고 명확하게 설명합니다.
- 스캔 데이터에 있는 내용에 근거해 답하고, 데이터에 없는 내용은 추측하지 않습니다.
- 점수, 면적, 변화율 같은 수치는 데이터의 값을 그대로 인용합니다.
- 진단과 치료 결정은 의사의 몫이므로 참고 의견 형태로 제시합니다.
- 마크다운 표 없이 짧은 문단이나 목록으로 한국어로 답변합니다.`

const (
	noHistoryPlaceholder = "이전 대화 없음"
	physicianLabel       = "의사"
	assistantLabel       = "AI 어시스턴트"
)

// BuildChatPrompt flattens persona, scan context, prior turns and the current
// question into one instruction, in that order.
func BuildChatPrompt(req models.ChatRequest) string {
	var b strings.Builder

	b.WriteString(chatPersona)
	b.WriteString("\n\n")

	b.WriteString("## 환자 스캔 데이터\n")
	b.WriteString(req.Context)
	b.WriteString("\n\n")

	b.WriteString("## 이전 대화\n")
	b.WriteString(renderHistory(req.History))
	b.WriteString("\n\n")

	b.WriteString("## 의사의 질문\n")
	b.WriteString(req.Message)
	b.WriteString("\n\n")

	b.WriteString("## 답변\n")

	return b.String()
}

func renderHistory(history []models.ChatMessage) string {
	if len(history) == 0 {
		return noHistoryPlaceholder
	}

	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, speakerLabel(turn.Role)+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

// Anything that is not the assistant is rendered as the physician.
func speakerLabel(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), models.RoleAssistant) {
		return assistantLabel
	}
	return physicianLabel
}
