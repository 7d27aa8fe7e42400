package record

import (
	"strings"
	"testing"
)

func TestGradeRange(t *testing.T) {
	m := DefaultMarkers()
	text := "[1학년]\n국어: 첫해 내용\n[2학년]\n수학: 둘째해 내용\n[3학년]\n영어: 셋째해 내용\n"

	tests := []struct {
		grade, nextGrade int
		want             string
	}{
		{1, 2, "\n국어: 첫해 내용\n"},
		{2, 3, "\n수학: 둘째해 내용\n"},
		{3, 0, "\n영어: 셋째해 내용\n"},
	}

	for _, tt := range tests {
		got := GradeRange(text, tt.grade, tt.nextGrade, m)
		if got != tt.want {
			t.Errorf("GradeRange(%d, %d) = %q, want %q", tt.grade, tt.nextGrade, got, tt.want)
		}
	}
}

func TestGradeRangeMissingMarker(t *testing.T) {
	m := DefaultMarkers()
	if got := GradeRange("문서에 학년 구분이 없음", 1, 2, m); got != "" {
		t.Errorf("GradeRange on unmarked text = %q, want empty", got)
	}
}

func TestGradeRangeMissingEndMarker(t *testing.T) {
	m := DefaultMarkers()
	// A year with no closing marker has no range; only the final year is
	// allowed to run to the end of the document.
	text := "[1학년]\n첫해 내용\n[2학년]\n둘째해 내용\n"
	if got := GradeRange(text, 2, 3, m); got != "" {
		t.Errorf("GradeRange(2, 3) without end marker = %q, want empty", got)
	}
}

func TestGradeRangeNonGreedy(t *testing.T) {
	m := DefaultMarkers()
	// A spurious later [2학년] must not extend the first year's range.
	text := "[1학년]\n짧은 내용\n[2학년]\n본문\n[2학년]\n잔여\n"
	got := GradeRange(text, 1, 2, m)
	if strings.Contains(got, "본문") {
		t.Errorf("GradeRange(1, 2) crossed the first end marker: %q", got)
	}
}

func TestSubjectMap(t *testing.T) {
	m := DefaultMarkers()
	rangeText := "\n국어: 수업 중 토론을 주도하며 비판적 사고를 보임\n수학: 증명 과정을 스스로 재구성함\n"

	subjects := SubjectMap(rangeText, m)

	if len(subjects) != 2 {
		t.Fatalf("SubjectMap returned %d entries, want 2", len(subjects))
	}
	if got := subjects["국어"]; got != "수업 중 토론을 주도하며 비판적 사고를 보임" {
		t.Errorf("subjects[국어] = %q", got)
	}
	if got := subjects["수학"]; got != "증명 과정을 스스로 재구성함" {
		t.Errorf("subjects[수학] = %q", got)
	}
}

func TestSubjectMapSkipsLongLabels(t *testing.T) {
	m := DefaultMarkers()
	// A narrative line ending in a colon is longer than the label cutoff and
	// must stay part of the preceding subject's value.
	rangeText := "\n국어: 본문 시작\n다음 활동에서 두각을 나타낸 영역은 아래와 같음:\n추가 본문\n"

	subjects := SubjectMap(rangeText, m)

	if len(subjects) != 1 {
		t.Fatalf("SubjectMap returned %d entries, want 1: %v", len(subjects), subjects)
	}
	if got := subjects["국어"]; !strings.Contains(got, "추가 본문") {
		t.Errorf("long pseudo-label split the value: %q", got)
	}
}

func TestSubjectMapFirstDuplicateWins(t *testing.T) {
	m := DefaultMarkers()
	rangeText := "\n국어: 첫번째 서술\n국어: 두번째 서술\n"

	subjects := SubjectMap(rangeText, m)

	if got := subjects["국어"]; !strings.HasPrefix(got, "첫번째 서술") {
		t.Errorf("duplicate label did not keep first occurrence: %q", got)
	}
}

func TestSplitCareerElective(t *testing.T) {
	m := DefaultMarkers()
	subjects := map[string]string{
		"물리": "본 과목 서술\n\n<진로 선택 과목>\n선택 과목에서의 개인별 탐구 내용",
	}

	got := SplitCareerElective(subjects, m)

	if got["물리"] != "본 과목 서술" {
		t.Errorf("front half = %q, want %q", got["물리"], "본 과목 서술")
	}
	individual, ok := got[m.IndividualKey]
	if !ok {
		t.Fatalf("individual key %q missing: %v", m.IndividualKey, got)
	}
	if strings.Contains(individual, m.CareerElective) {
		t.Errorf("marker not removed from individual section: %q", individual)
	}
	if !strings.Contains(individual, "개인별 탐구 내용") {
		t.Errorf("individual section lost content: %q", individual)
	}
}

func TestSplitCareerElectiveNoMarker(t *testing.T) {
	m := DefaultMarkers()
	subjects := map[string]string{"국어": "서술"}

	got := SplitCareerElective(subjects, m)

	if len(got) != 1 || got["국어"] != "서술" {
		t.Errorf("map without marker changed: %v", got)
	}
}

func TestExtractActivities(t *testing.T) {
	m := DefaultMarkers()
	merged := "자율활동1학년 자율 서술동아리활동1학년 동아리 서술진로활동1학년 진로 서술" +
		"자율활동2학년 자율 서술동아리활동2학년 동아리 서술진로활동2학년 진로 서술봉 사 활 동 실 적"

	got := ExtractActivities(merged, m)

	if got.SelfDirected[1] != "1학년 자율 서술" {
		t.Errorf("SelfDirected[1] = %q", got.SelfDirected[1])
	}
	if got.Club[2] != "2학년 동아리 서술" {
		t.Errorf("Club[2] = %q", got.Club[2])
	}
	if got.Career[1] != "1학년 진로 서술" {
		t.Errorf("Career[1] = %q", got.Career[1])
	}
	// Two years of data in a three-grade document: grade 3 gets the sentinel.
	if got.SelfDirected[3] != MissingSection {
		t.Errorf("SelfDirected[3] = %q, want sentinel %q", got.SelfDirected[3], MissingSection)
	}
	if got.Career[3] != MissingSection {
		t.Errorf("Career[3] = %q, want sentinel %q", got.Career[3], MissingSection)
	}
}

func TestExtractActivitiesFinalCareerWindow(t *testing.T) {
	m := DefaultMarkers()
	// The final career window runs to the volunteer table. The non-greedy
	// match from the FIRST career marker spans the whole document; only the
	// text after the LAST career marker belongs to the final grade.
	merged := "진로활동첫해 진로자율활동중간동아리활동중간진로활동마지막해 진로봉 사 활 동 실 적"

	got := ExtractActivities(merged, m)

	if got.Career[1] != "첫해 진로" {
		t.Errorf("Career[1] = %q, want %q", got.Career[1], "첫해 진로")
	}
	if got.Career[2] != "마지막해 진로" {
		t.Errorf("Career[2] = %q, want %q", got.Career[2], "마지막해 진로")
	}
}

func TestBehavioralComment(t *testing.T) {
	m := DefaultMarkers()
	merged := "앞부분행 동 특 성 및 종 합 의 견긍정적이고 성실한 태도를 보임"

	if got := BehavioralComment(merged, m); got != "긍정적이고 성실한 태도를 보임" {
		t.Errorf("BehavioralComment = %q", got)
	}
	if got := BehavioralComment("헤더 없는 문서", m); got != "" {
		t.Errorf("BehavioralComment without header = %q, want empty", got)
	}
}

func TestBuildDocumentFiltersNoise(t *testing.T) {
	m := DefaultMarkers()
	page := Page{Blocks: []string{
		"머리말 2024.03.15 13:02/ 출력자\n" +
			"과목\t세 부 능 력 및 특 기 사 항\n" +
			"3\n" +
			"[1학년]\n" +
			"국어: 수업 중 토론을 주도하며 비판적인 사고 능력을 꾸준히 보여줌\n",
	}}

	doc := BuildDocument([]Page{page}, m)

	if strings.Contains(doc.Text, "2024.03.15") {
		t.Errorf("timestamp line survived filtering: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "\n3\n") || strings.HasPrefix(doc.Text, "3\n") {
		t.Errorf("short page number survived filtering: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "[1학년]") {
		t.Errorf("keyword line dropped: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "비판적인 사고 능력") {
		t.Errorf("narrative line dropped: %q", doc.Text)
	}
	if strings.Contains(doc.MergedText, "\n") {
		t.Errorf("MergedText contains newlines")
	}
}

func TestBuildDocumentContinuationLine(t *testing.T) {
	m := DefaultMarkers()
	// A short line right after a kept line, followed by a blank line, is the
	// tail of a wrapped sentence and must be kept.
	page := Page{Blocks: []string{
		"실험 설계와 결과 해석 과정에서 남다른 끈기와 집중력을 발휘하였으며 동료\n" +
			"들을 도움.\n" +
			"\n" +
			"7\n",
	}}

	doc := BuildDocument([]Page{page}, m)

	if !strings.Contains(doc.Text, "들을 도움.") {
		t.Errorf("continuation line dropped: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "7") {
		t.Errorf("isolated short line kept: %q", doc.Text)
	}
}

func TestParseDocument(t *testing.T) {
	m := DefaultMarkers()
	text := "[1학년]\n국어: 여러 줄에 걸친\n서술 내용\n[2학년]\n수학: 둘째해 서술\n[3학년]\n"
	merged := "자율활동자율 서술동아리활동동아리 서술진로활동진로 서술봉 사 활 동 실 적" +
		"행 동 특 성 및 종 합 의 견종합 의견 서술"

	got := ParseDocument(Document{Text: text, MergedText: merged}, m)

	// Narratives are flattened to single lines for templating.
	if got.SubjectsByGrade[1]["국어"] != "여러 줄에 걸친 서술 내용" {
		t.Errorf("SubjectsByGrade[1][국어] = %q", got.SubjectsByGrade[1]["국어"])
	}
	if got.SubjectsByGrade[2]["수학"] != "둘째해 서술" {
		t.Errorf("SubjectsByGrade[2][수학] = %q", got.SubjectsByGrade[2]["수학"])
	}
	if len(got.SubjectsByGrade[3]) != 0 {
		t.Errorf("SubjectsByGrade[3] = %v, want empty", got.SubjectsByGrade[3])
	}
	if got.Activities.SelfDirected[1] != "자율 서술" {
		t.Errorf("Activities.SelfDirected[1] = %q", got.Activities.SelfDirected[1])
	}
	if got.BehavioralComment != "종합 의견 서술" {
		t.Errorf("BehavioralComment = %q", got.BehavioralComment)
	}
	if got.Empty() {
		t.Errorf("Empty() = true for populated record")
	}
}

func TestEmpty(t *testing.T) {
	m := DefaultMarkers()
	got := ParseDocument(Document{}, m)
	if !got.Empty() {
		t.Errorf("Empty() = false for blank document: %+v", got)
	}
}
