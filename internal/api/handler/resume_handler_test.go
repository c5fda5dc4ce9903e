package handler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"resume-intake-go/internal/config"
	"resume-intake-go/internal/constants"
	"resume-intake-go/internal/extractor"
	"resume-intake-go/internal/pipeline"
	"resume-intake-go/internal/storage"
	"resume-intake-go/internal/storage/models"
	"resume-intake-go/internal/types"
	"resume-intake-go/pkg/utils"
)

// MockTextExtractor 模拟文档文本提取器
type MockTextExtractor struct {
	text  string
	err   error
	calls int
}

func (m *MockTextExtractor) Extract(ctx context.Context, doc *types.RawDocument) (string, error) {
	m.calls++
	return m.text, m.err
}

// MockChain 模拟故障转移链
type MockChain struct {
	outcome *pipeline.Outcome
	err     error
	calls   int
}

func (m *MockChain) Extract(ctx context.Context, text string) (*pipeline.Outcome, error) {
	m.calls++
	return m.outcome, m.err
}

// MockObjectStore 模拟对象存储
type MockObjectStore struct {
	originals  int
	parsed     int
	textReads  int
	uploadErr  error
	lastOrigCT string
	storedText string
}

func (m *MockObjectStore) UploadOriginal(ctx context.Context, submissionUUID, fileExt string, data []byte, contentType string) (string, error) {
	m.originals++
	m.lastOrigCT = contentType
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	return "originals/" + submissionUUID + fileExt, nil
}

func (m *MockObjectStore) UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error) {
	m.parsed++
	return "parsed/" + submissionUUID + ".txt", nil
}

func (m *MockObjectStore) GetParsedText(ctx context.Context, objectName string) (string, error) {
	m.textReads++
	return m.storedText, nil
}

// MockDedupStore 模拟MD5去重
type MockDedupStore struct {
	rawExists  bool
	textExists bool
	rawAdded   []string
	textAdded  []string
}

func (m *MockDedupStore) CheckRawFileMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	return m.rawExists, nil
}

func (m *MockDedupStore) AddRawFileMD5(ctx context.Context, md5Hex string) error {
	m.rawAdded = append(m.rawAdded, md5Hex)
	return nil
}

func (m *MockDedupStore) CheckParsedTextMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	return m.textExists, nil
}

func (m *MockDedupStore) AddParsedTextMD5(ctx context.Context, md5Hex string) error {
	m.textAdded = append(m.textAdded, md5Hex)
	return nil
}

// MockCandidateStore 模拟持久化
type MockCandidateStore struct {
	saved      *models.ResumeSubmission
	failed     *models.ResumeSubmission
	record     *types.CandidateRecord
	saveErr    error
	submission *models.ResumeSubmission
	getErr     error
}

func (m *MockCandidateStore) SaveExtractedCandidate(ctx context.Context, submission *models.ResumeSubmission, record *types.CandidateRecord) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved = submission
	m.record = record
	return "candidate-id-1", nil
}

func (m *MockCandidateStore) SaveFailedSubmission(ctx context.Context, submission *models.ResumeSubmission) error {
	m.failed = submission
	return nil
}

func (m *MockCandidateStore) GetSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.submission, nil
}

// MockEventPublisher 模拟事件发布
type MockEventPublisher struct {
	events []*storage.CandidateExtractedEvent
	err    error
}

func (m *MockEventPublisher) PublishCandidateExtracted(ctx context.Context, event *storage.CandidateExtractedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

var resumeText = "张伟\n资深后端工程师\n" + strings.Repeat("十年Go与分布式系统经验。", 10)

func okOutcome() *pipeline.Outcome {
	return &pipeline.Outcome{
		Record:   &types.CandidateRecord{FullName: "张伟", Email: "zw@example.com"},
		Provider: "openai",
		Attempts: 1,
	}
}

type fixtures struct {
	handler   *ResumeHandler
	extractor *MockTextExtractor
	chain     *MockChain
	objects   *MockObjectStore
	dedup     *MockDedupStore
	store     *MockCandidateStore
	events    *MockEventPublisher
}

func newFixtures() *fixtures {
	f := &fixtures{
		extractor: &MockTextExtractor{text: resumeText},
		chain:     &MockChain{outcome: okOutcome()},
		objects:   &MockObjectStore{},
		dedup:     &MockDedupStore{},
		store:     &MockCandidateStore{},
		events:    &MockEventPublisher{},
	}
	f.handler = NewResumeHandler(config.DefaultConfig(), f.extractor, f.chain, f.objects, f.dedup, f.store, f.events)
	return f
}

func TestHandleResumeUploadHappyPath(t *testing.T) {
	f := newFixtures()

	resp, err := f.handler.HandleResumeUpload(context.Background(), []byte("%PDF-1.7 fake"), "resume.pdf", types.MediaTypePDF, "user-1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SubmissionUUID)
	assert.Equal(t, "candidate-id-1", resp.CandidateID)
	assert.Equal(t, "张伟", resp.FullName)
	assert.Equal(t, "openai", resp.Provider)
	assert.False(t, resp.UsedFallback)
	assert.Equal(t, constants.StatusExtracted, resp.Status)

	// 原始文件与解析文本都被归档
	assert.Equal(t, 1, f.objects.originals)
	assert.Equal(t, 1, f.objects.parsed)
	assert.Equal(t, string(types.MediaTypePDF), f.objects.lastOrigCT)

	// 两级MD5都被登记
	assert.Len(t, f.dedup.rawAdded, 1)
	assert.Len(t, f.dedup.textAdded, 1)

	// 落库快照携带提取来源
	require.NotNil(t, f.store.saved)
	assert.Equal(t, "openai", f.store.saved.ExtractorProvider)
	assert.Equal(t, constants.StatusExtracted, f.store.saved.ProcessingStatus)
	assert.Equal(t, "user-1", f.store.saved.UploaderUserID)

	// 事件已发布
	require.Len(t, f.events.events, 1)
	assert.Equal(t, resp.SubmissionUUID, f.events.events[0].SubmissionUUID)
}

func TestHandleResumeUploadUnsupportedMediaType(t *testing.T) {
	f := newFixtures()

	_, err := f.handler.HandleResumeUpload(context.Background(), []byte("hello"), "resume.txt", types.MediaType("text/plain"), "user-1")
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 415, uploadErr.StatusCode)
	assert.Zero(t, f.extractor.calls)
	assert.Zero(t, f.objects.originals)
}

func TestHandleResumeUploadDuplicateFile(t *testing.T) {
	f := newFixtures()
	f.dedup.rawExists = true

	resp, err := f.handler.HandleResumeUpload(context.Background(), []byte("dup bytes"), "resume.pdf", types.MediaTypePDF, "user-1")
	require.NoError(t, err)

	// 重复文件在任何昂贵操作之前被拦下
	assert.Equal(t, constants.StatusDuplicateSkipped, resp.Status)
	assert.Zero(t, f.extractor.calls)
	assert.Zero(t, f.chain.calls)
	assert.Zero(t, f.objects.originals)
}

func TestHandleResumeUploadDuplicateText(t *testing.T) {
	f := newFixtures()
	f.dedup.textExists = true

	resp, err := f.handler.HandleResumeUpload(context.Background(), []byte("some bytes"), "renamed.pdf", types.MediaTypePDF, "user-1")
	require.NoError(t, err)

	// 换了文件名的同一份简历在文本级被拦下，不消耗提供商调用
	assert.Equal(t, constants.StatusDuplicateSkipped, resp.Status)
	assert.NotEmpty(t, resp.SubmissionUUID)
	assert.Zero(t, f.chain.calls)
	assert.Zero(t, f.objects.parsed)
}

func TestHandleResumeUploadExtractionFailure(t *testing.T) {
	f := newFixtures()
	f.extractor.err = &extractor.ExtractionError{Reason: "提取文本过短"}
	f.extractor.text = ""

	_, err := f.handler.HandleResumeUpload(context.Background(), []byte("scanned pdf"), "scan.pdf", types.MediaTypePDF, "user-1")
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 422, uploadErr.StatusCode)

	// 不可读文档是致命错误，管线不会被调用
	assert.Zero(t, f.chain.calls)
	assert.Zero(t, f.objects.parsed)

	// 失败的提交也留下快照
	require.NotNil(t, f.store.failed)
	assert.Equal(t, constants.StatusTextExtractionFailed, f.store.failed.ProcessingStatus)
	assert.Nil(t, f.store.failed.CandidateID)
}

func TestHandleResumeUploadPrecondition(t *testing.T) {
	f := newFixtures()
	f.chain.outcome = nil
	f.chain.err = &pipeline.PreconditionError{Length: 30}

	_, err := f.handler.HandleResumeUpload(context.Background(), []byte("tiny"), "resume.pdf", types.MediaTypePDF, "user-1")
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 422, uploadErr.StatusCode)
}

func TestHandleResumeUploadFallbackStatus(t *testing.T) {
	f := newFixtures()
	f.chain.outcome = &pipeline.Outcome{
		Record:       &types.CandidateRecord{FullName: types.UnknownCandidateSentinel},
		Provider:     "local-heuristic",
		UsedFallback: true,
		Attempts:     5,
	}

	resp, err := f.handler.HandleResumeUpload(context.Background(), []byte("bytes"), "resume.pdf", types.MediaTypePDF, "user-1")
	require.NoError(t, err)

	// 降级是软信号：请求成功，但状态与事件都带上fallback标记
	assert.Equal(t, constants.StatusExtractedFallback, resp.Status)
	assert.True(t, resp.UsedFallback)
	require.NotNil(t, f.store.saved)
	assert.True(t, f.store.saved.UsedFallback)
	require.Len(t, f.events.events, 1)
	assert.True(t, f.events.events[0].UsedFallback)
}

func TestHandleResumeUploadNilOptionalDeps(t *testing.T) {
	f := newFixtures()
	// Redis与RabbitMQ降级运行：去重跳过、事件不发布，但上传照常工作
	f.handler = NewResumeHandler(config.DefaultConfig(), f.extractor, f.chain, f.objects, nil, f.store, nil)

	resp, err := f.handler.HandleResumeUpload(context.Background(), []byte("bytes"), "resume.pdf", types.MediaTypePDF, "user-1")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusExtracted, resp.Status)
	assert.Equal(t, 1, f.objects.originals)
}

func TestHandleResumeUploadPersistenceFailure(t *testing.T) {
	f := newFixtures()
	f.store.saveErr = errors.New("数据库连接断开")

	_, err := f.handler.HandleResumeUpload(context.Background(), []byte("bytes"), "resume.pdf", types.MediaTypePDF, "user-1")
	require.Error(t, err)
	var uploadErr *UploadError
	assert.False(t, errors.As(err, &uploadErr), "基础设施错误不映射为业务错误")
	assert.Empty(t, f.events.events)
}

func TestHandleResumeStatusFound(t *testing.T) {
	f := newFixtures()
	f.store.submission = &models.ResumeSubmission{
		SubmissionUUID:    "sub-1",
		ProcessingStatus:  constants.StatusExtracted,
		OriginalFilename:  "resume.pdf",
		ExtractorProvider: "openai",
		CandidateID:       utils.StringPtr("cand-1"),
		ParsedTextPathOSS: "parsed/sub-1.txt",
		Candidate:         &models.Candidate{CandidateID: "cand-1", FullName: "张伟"},
	}

	resp, err := f.handler.HandleResumeStatus(context.Background(), "sub-1", false)
	require.NoError(t, err)

	assert.Equal(t, "sub-1", resp.SubmissionUUID)
	assert.Equal(t, constants.StatusExtracted, resp.ProcessingStatus)
	assert.Equal(t, "cand-1", resp.CandidateID)
	assert.Equal(t, "张伟", resp.FullName)
	// 没有显式要求时不回源取文本
	assert.Empty(t, resp.ParsedText)
	assert.Zero(t, f.objects.textReads)
}

func TestHandleResumeStatusIncludeText(t *testing.T) {
	f := newFixtures()
	f.objects.storedText = "张伟\n资深后端工程师"
	f.store.submission = &models.ResumeSubmission{
		SubmissionUUID:    "sub-1",
		ProcessingStatus:  constants.StatusExtracted,
		ParsedTextPathOSS: "parsed/sub-1.txt",
	}

	resp, err := f.handler.HandleResumeStatus(context.Background(), "sub-1", true)
	require.NoError(t, err)
	assert.Equal(t, "张伟\n资深后端工程师", resp.ParsedText)
	assert.Equal(t, 1, f.objects.textReads)
}

func TestHandleResumeStatusNotFound(t *testing.T) {
	f := newFixtures()
	f.store.getErr = gorm.ErrRecordNotFound

	_, err := f.handler.HandleResumeStatus(context.Background(), "no-such-uuid", false)
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 404, uploadErr.StatusCode)
}

func TestHandleResumeStatusFailedSubmission(t *testing.T) {
	f := newFixtures()
	// 提取失败的提交没有候选人也没有归档文本，查询照常返回状态
	f.store.submission = &models.ResumeSubmission{
		SubmissionUUID:   "sub-2",
		ProcessingStatus: constants.StatusTextExtractionFailed,
		OriginalFilename: "scan.pdf",
	}

	resp, err := f.handler.HandleResumeStatus(context.Background(), "sub-2", true)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusTextExtractionFailed, resp.ProcessingStatus)
	assert.Empty(t, resp.CandidateID)
	assert.Empty(t, resp.ParsedText)
	assert.Zero(t, f.objects.textReads)
}

func TestHandleResumeUploadEventFailureTolerated(t *testing.T) {
	f := newFixtures()
	f.events.err = errors.New("RabbitMQ不可达")

	resp, err := f.handler.HandleResumeUpload(context.Background(), []byte("bytes"), "resume.pdf", types.MediaTypePDF, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "candidate-id-1", resp.CandidateID)
}
