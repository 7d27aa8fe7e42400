package database

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSeedFileShape(t *testing.T) {
	doc := `
credentials:
  user_ids:
    teacher01:
      name: 김선생
      credit: 20
projects:
  - creator: teacher01
    grade: 2학년
    subject: 화학
    service_name: 세특 도우미
    project_name: 화학 실험 탐구
    prompt_template: |
      다음 생활기록부를 평가하라:
      {content}
    credit_cost: 4
`

	var file SeedFile
	if err := yaml.Unmarshal([]byte(doc), &file); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	user, ok := file.Credentials.UserIDs["teacher01"]
	if !ok {
		t.Fatalf("user entry missing: %+v", file.Credentials)
	}
	if user.Name != "김선생" || user.Credit != 20 {
		t.Errorf("user = %+v", user)
	}

	if len(file.Projects) != 1 {
		t.Fatalf("projects = %d entries, want 1", len(file.Projects))
	}
	project := file.Projects[0]
	if project.ServiceName != "세특 도우미" || project.Creator != "teacher01" {
		t.Errorf("project = %+v", project)
	}
	if project.CreditCost != 4 {
		t.Errorf("credit cost = %d, want 4", project.CreditCost)
	}
}
