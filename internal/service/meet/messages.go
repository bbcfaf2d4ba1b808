package meet

import (
	"fmt"
	"strings"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
)

// User-facing chat messages. Every failure path in the pipeline resolves to
// one of these; raw adapter errors never reach the user.
const (
	msgAskCount       = "안녕하세요! 몇 명이 모이시나요? 2명부터 6명까지 추천해 드릴 수 있어요."
	msgCountNotNumber = "모이는 인원을 숫자로 알려주세요. (예: 3)"
	msgStartOver      = "죄송해요, 문제가 생겼어요. 처음부터 다시 시작해 주세요."
	msgTryAgain       = "응답이 늦어지고 있어요. 잠시 후 다시 시도해 주세요."
	msgNoStationNear  = "중간 지점 근처에서 지하철역을 찾지 못했어요. 다른 출발 위치로 다시 알려주세요."
	msgNoRecommend    = "추천할 만한 역을 찾지 못했어요. 다른 출발 위치로 다시 알려주세요."
	msgFallbackNotice = "환승이 편한 역은 찾지 못해서, 중간 지점에서 가장 가까운 역을 추천해 드려요."
)

func msgCountOutOfRange(count int) string {
	return fmt.Sprintf("%d명은 추천해 드리기 어려워요. %d명부터 %d명 사이로 다시 알려주세요.",
		count, meet.MinPartySize, meet.MaxPartySize)
}

func msgAskLocations(partySize int) string {
	return fmt.Sprintf("좋아요! %d분의 출발 위치를 역 이름으로 알려주세요. (예: 강남역, 홍대입구역)", partySize)
}

func msgProgress(collected, partySize int) string {
	return fmt.Sprintf("지금까지 %d곳을 확인했어요. 출발 위치를 %d곳 더 알려주세요.", collected, partySize-collected)
}

func msgAmbiguous(tokens []string) string {
	return fmt.Sprintf("'%s'이(가) 역 이름인지 확실하지 않아요. '역'을 붙여서 다시 알려주세요.",
		strings.Join(tokens, "', '"))
}

func msgNotLocated(names []string) string {
	return fmt.Sprintf("다음 위치는 찾지 못했어요: %s", strings.Join(names, ", "))
}

// msgTemplated is the summarizer fallback built from the top-ranked candidate.
func msgTemplated(station meet.RecommendedStation) string {
	return fmt.Sprintf("추천 역: %s (%d개 노선: %s)",
		station.Name, station.LineCount, strings.Join(station.Lines, ", "))
}

func buildSummaryPrompt(origins []string, stations []meet.RecommendedStation) string {
	const topN = 3

	var b strings.Builder
	b.WriteString("출발지: ")
	b.WriteString(strings.Join(origins, ", "))
	b.WriteString("\n")
	for i, st := range stations {
		if i >= topN {
			break
		}
		fmt.Fprintf(&b, "후보 %d: %s (%d개 노선: %s)\n", i+1, st.Name, st.LineCount, strings.Join(st.Lines, ", "))
	}
	b.WriteString("위 후보 중에서 만나기 가장 좋은 역을 추천해줘.")
	return b.String()
}
