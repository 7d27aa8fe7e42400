package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/team-educhange/gibo-api/services/lockfile"
	"github.com/team-educhange/gibo-api/services/record"
	"github.com/team-educhange/gibo-api/utils/validation"
)

// submissionLockName serializes the whole submit sequence. It is never held
// together with the preview-slot lock, so the two can never deadlock.
const submissionLockName = "submission"

// MaxAttempts is the policy cap on submissions per record key
const MaxAttempts = 3

// User-facing outcome messages
const (
	MsgSuccess            = "결과물 제출이 성공적으로 완료되었습니다."
	MsgBusy               = "현재 제출자가 많아 잠시후 다시 제출하길 바랍니다."
	MsgAttemptLimit       = "제출 횟수가 최대 3회를 초과했습니다. 더 이상 제출할 수 없습니다."
	MsgInsufficientCredit = "제출이 불가합니다. 선생님께 문의하시길 바랍니다."
	MsgMissingFields      = "학년, 반, 번호, 이름을 모두 입력하고 결과물 이미지를 업로드해주세요."
	MsgNoProject          = "선택된 프로젝트 정보가 없습니다."
	MsgNoTemplate         = "선택된 프로젝트에 템플릿 정보가 없습니다."
)

// Rejections, each mapped to its fixed message by the handler
var (
	ErrBusy          = errors.New("submission lock is contended")
	ErrMissingFields = errors.New("required fields missing")
	ErrAttemptLimit  = errors.New("attempt limit reached")
	ErrNoProject     = errors.New("no such project")
	ErrNoTemplate    = errors.New("project has no prompt template")
	ErrEmptyContent  = errors.New("no text extracted from upload")
	ErrUnreadable    = errors.New("unreadable document")
)

// FeedbackModel is the language-model collaborator: one prompt in, the
// accumulated stream out.
type FeedbackModel interface {
	StreamCompletion(ctx context.Context, prompt string) (string, error)
}

// ProjectCatalog resolves a service/project pair to its template and cost
type ProjectCatalog interface {
	Find(ctx context.Context, serviceName, projectName string) (*ProjectInfo, error)
}

// ProjectInfo is the slice of a project the gate needs
type ProjectInfo struct {
	ServiceName    string
	ProjectName    string
	PromptTemplate string
	CreditCost     int
}

// PageExtractor turns uploaded bytes into ordered page texts
type PageExtractor interface {
	ExtractPages(content []byte) ([]record.Page, error)
}

// SubmissionRequest is one submit action from a teacher's session
type SubmissionRequest struct {
	UserID      string `validate:"required"`
	Grade       string `validate:"required"` // e.g. "2학년"
	ClassNum    string `validate:"required"` // e.g. "3반"
	Number      int    `validate:"required,gte=1,lte=45"`
	Name        string `validate:"required"`
	ServiceName string `validate:"required"`
	ProjectName string `validate:"required"`
	// Files are the uploaded PDFs, in upload order
	Files [][]byte `validate:"required,min=1"`
}

// RecordKey is the composite identity capping repeat submissions
func (r SubmissionRequest) RecordKey() string {
	return fmt.Sprintf("%s_%s_%s_%d_%s_%s_%s",
		r.UserID, r.Grade, r.ClassNum, r.Number, r.Name, r.ServiceName, r.ProjectName)
}

// SubmissionResult is the successful outcome
type SubmissionResult struct {
	SubmissionID string `json:"submission_id"`
	Message      string `json:"message"`
	Feedback     string `json:"feedback"`
	Attempt      int    `json:"attempt"`
}

// SubmissionDocument is what gets persisted for each accepted submission
type SubmissionDocument struct {
	Teacher       string            `yaml:"teacher"`
	DateTime      string            `yaml:"date_time"`
	Grade         string            `yaml:"grade"`
	ClassNum      string            `yaml:"class_num"`
	StudentNumber int               `yaml:"student_number"`
	StudentName   string            `yaml:"student_name"`
	ServiceName   string            `yaml:"service_name"`
	ProjectName   string            `yaml:"project_name"`
	ExtractedText string            `yaml:"extracted_text"`
	Subjects      map[string]string `yaml:"subjects,omitempty"`
	Response      string            `yaml:"gpt_response"`
}

// SubmissionService is the gate around the submit-deduct-generate-save
// sequence. Everything between Acquire and Release is linearized against
// every other submitter in the school.
type SubmissionService struct {
	locks      lockfile.Locker
	extractor  PageExtractor
	catalog    ProjectCatalog
	credits    CreditStore
	model      FeedbackModel
	store      ObjectStore
	attempts   *AttemptCounter
	markers    record.Markers
	validator  *validation.Validator
	waitBudget time.Duration
}

// NewSubmissionService wires the gate's collaborators
func NewSubmissionService(
	locks lockfile.Locker,
	extractor PageExtractor,
	catalog ProjectCatalog,
	credits CreditStore,
	model FeedbackModel,
	store ObjectStore,
	waitBudget time.Duration,
) *SubmissionService {
	return &SubmissionService{
		locks:      locks,
		extractor:  extractor,
		catalog:    catalog,
		credits:    credits,
		model:      model,
		store:      store,
		attempts:   NewAttemptCounter(store),
		markers:    record.DefaultMarkers(),
		validator:  validation.NewValidator(),
		waitBudget: waitBudget,
	}
}

// Submit runs the full sequence. Lock policy: fail fast with a bounded retry
// budget: the request path never waits unboundedly; once the budget passes
// the caller gets a busy error and retries explicitly.
//
// Rule order matters: validation and the attempt cap run before credit
// deduction so a rejected submission costs nothing. A failure after deduction
// leaves the credit spent; that loss is logged, not rolled back (see
// DESIGN.md). The lock is released on every exit path.
func (s *SubmissionService) Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.waitBudget)
	defer cancel()
	if err := s.locks.Acquire(lockCtx, submissionLockName); err != nil {
		if errors.Is(err, lockfile.ErrWaitBudgetExceeded) {
			return nil, ErrBusy
		}
		return nil, err
	}
	defer s.locks.Release(submissionLockName)

	project, err := s.catalog.Find(ctx, req.ServiceName, req.ProjectName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(project.PromptTemplate) == "" {
		return nil, ErrNoTemplate
	}

	recordKey := req.RecordKey()
	attempt, err := s.attempts.Get(ctx, recordKey)
	if err != nil {
		return nil, err
	}
	if attempt >= MaxAttempts {
		return nil, ErrAttemptLimit
	}

	// Extraction runs before deduction: an unreadable or empty upload must
	// not cost credits.
	rawText, structured, err := s.extract(req.Files)
	if err != nil {
		return nil, err
	}

	balance, err := s.credits.Deduct(ctx, req.UserID, project.CreditCost, req.ServiceName)
	if err != nil {
		return nil, err
	}
	log.Printf("Submission: %s deducted %d credits (balance %d)", req.UserID, project.CreditCost, balance)

	prompt := s.renderPrompt(project.PromptTemplate, rawText, structured)
	feedback, err := s.model.StreamCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("feedback generation failed: %w", err)
	}

	if err := s.persist(ctx, req, rawText, structured, feedback); err != nil {
		return nil, err
	}

	if err := s.attempts.Increment(ctx, recordKey); err != nil {
		return nil, err
	}

	return &SubmissionResult{
		SubmissionID: uuid.NewString(),
		Message:      MsgSuccess,
		Feedback:     feedback,
		Attempt:      attempt + 1,
	}, nil
}

// extract runs the structuring pipeline over every uploaded file. Page texts
// are concatenated in upload order so the combined document fed to the model
// is deterministic.
func (s *SubmissionService) extract(files [][]byte) (string, *record.StructuredRecord, error) {
	var allPages []record.Page

	for _, file := range files {
		pages, err := s.extractor.ExtractPages(file)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		allPages = append(allPages, pages...)
	}

	doc := record.BuildDocument(allPages, s.markers)
	if strings.TrimSpace(doc.Text) == "" {
		return "", nil, ErrEmptyContent
	}

	return doc.Text, record.ParseDocument(doc, s.markers), nil
}

// renderPrompt merges the extraction into the project template. Plain
// templates carry only {content}; structured templates additionally reference
// the pipeline's sections.
func (s *SubmissionService) renderPrompt(template, rawText string, structured *record.StructuredRecord) string {
	replacer := strings.NewReplacer(
		"{content}", rawText,
		"{self_directed_activities}", formatByGrade(structured.Activities.SelfDirected),
		"{club_activities}", formatByGrade(structured.Activities.Club),
		"{career_activities}", formatByGrade(structured.Activities.Career),
		"{first_detailed_skills}", formatSubjects(structured.SubjectsByGrade[1]),
		"{second_detailed_skills}", formatSubjects(structured.SubjectsByGrade[2]),
		"{third_detailed_skills}", formatSubjects(structured.SubjectsByGrade[3]),
		"{behavioral_characteristics}", structured.BehavioralComment,
	)
	return replacer.Replace(template)
}

// persist writes the submission document under its deterministic key,
// overwriting the previous attempt for the same record key.
func (s *SubmissionService) persist(ctx context.Context, req SubmissionRequest, rawText string, structured *record.StructuredRecord, feedback string) error {
	subjects := map[string]string{}
	for grade, byGrade := range structured.SubjectsByGrade {
		for subject, text := range byGrade {
			subjects[fmt.Sprintf("%s/%s", s.markers.GradeLabel(grade), subject)] = text
		}
	}

	doc := SubmissionDocument{
		Teacher:       req.UserID,
		DateTime:      time.Now().Format("2006-01-02 15:04:05"),
		Grade:         req.Grade,
		ClassNum:      req.ClassNum,
		StudentNumber: req.Number,
		StudentName:   req.Name,
		ServiceName:   req.ServiceName,
		ProjectName:   req.ProjectName,
		ExtractedText: rawText,
		Subjects:      subjects,
		Response:      feedback,
	}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode submission document: %w", err)
	}

	key := fmt.Sprintf("submissions/%s.yaml", req.RecordKey())
	if err := s.store.Upload(ctx, key, body, "application/x-yaml"); err != nil {
		return fmt.Errorf("failed to persist submission: %w", err)
	}

	log.Printf("Submission: saved %s", key)
	return nil
}

func formatByGrade(sections map[int]string) string {
	grades := make([]int, 0, len(sections))
	for grade := range sections {
		grades = append(grades, grade)
	}
	sort.Ints(grades)

	var b strings.Builder
	for _, grade := range grades {
		fmt.Fprintf(&b, "%d학년: %s\n", grade, sections[grade])
	}
	return b.String()
}

func formatSubjects(subjects map[string]string) string {
	names := make([]string, 0, len(subjects))
	for name := range subjects {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, subjects[name])
	}
	return b.String()
}
