package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/models"
	"github.com/garda-ops/gms-api/pkg/export"
	"github.com/garda-ops/gms-api/pkg/jobs"
	"github.com/garda-ops/gms-api/pkg/storage"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

type exportGuardLister interface {
	List(ctx context.Context, filter models.GuardFilter) ([]models.Guard, int, error)
}

type exportAssignmentLister interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error)
}

type exportIncidentLister interface {
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error)
}

type exportExpenseLister interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseReview, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Workers   int
}

// ExportService renders roster, schedule, incident and expense exports in
// the background and hands out signed download URLs. Job state is held in
// memory; exports are throwaway artifacts with a short TTL.
type ExportService struct {
	guards      exportGuardLister
	assignments exportAssignmentLister
	incidents   exportIncidentLister
	expenses    exportExpenseLister
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig

	queue *jobs.Queue

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

// NewExportService constructs an ExportService.
func NewExportService(guards exportGuardLister, assignments exportAssignmentLister, incidents exportIncidentLister, expenses exportExpenseLister, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	s := &ExportService{
		guards:      guards,
		assignments: assignments,
		incidents:   incidents,
		expenses:    expenses,
		storage:     files,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
		jobs:        make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Submit queues a new export job and returns its descriptor.
func (s *ExportService) Submit(ctx context.Context, exportType models.ExportType, params models.ExportParams) (*models.ExportJob, error) {
	switch exportType {
	case models.ExportTypeGuardRoster, models.ExportTypeAssignments, models.ExportTypeIncidentLog, models.ExportTypeExpenseSummary:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export type: %s", exportType))
	}
	if params.Format != models.ExportFormatCSV && params.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format: %s", params.Format))
	}

	now := time.Now().UTC()
	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Type:      exportType,
		Params:    params,
		Status:    models.ExportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(exportType)}); err != nil {
		s.setFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return s.snapshot(job.ID), nil
}

// Job returns the state of one export job.
func (s *ExportService) Job(id string) (*models.ExportJob, error) {
	if job := s.snapshot(id); job != nil {
		return job, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	job := s.snapshot(queued.ID)
	if job == nil {
		return fmt.Errorf("export job %s vanished", queued.ID)
	}
	s.setStatus(job.ID, models.ExportStatusProcessing)

	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	filename := fmt.Sprintf("%s_%s.%s", job.Type, time.Now().UTC().Format("20060102_150405"), job.Params.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	url := fmt.Sprintf("%s/exports/download/%s", prefix, token)

	s.mu.Lock()
	if stored, ok := s.jobs[job.ID]; ok {
		stored.Status = models.ExportStatusCompleted
		stored.DownloadURL = url
		stored.ExpiresAt = &expiresAt
		stored.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()

	s.logger.Info("export completed",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("path", relPath))
	return nil
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeGuardRoster:
		return s.buildGuardRoster(ctx)
	case models.ExportTypeAssignments:
		return s.buildAssignmentSchedule(ctx, job.Params)
	case models.ExportTypeIncidentLog:
		return s.buildIncidentLog(ctx, job.Params)
	case models.ExportTypeExpenseSummary:
		return s.buildExpenseSummary(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildGuardRoster(ctx context.Context) (export.Dataset, string, error) {
	rows, _, err := s.guards.List(ctx, models.GuardFilter{PageSize: exportPageSize})
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		active := "no"
		if row.Active {
			active = "yes"
		}
		dataRows = append(dataRows, map[string]string{
			"Badge":     row.BadgeNumber,
			"Full Name": row.FullName,
			"Phone":     row.Phone,
			"Hired At":  row.HiredAt.Format("2006-01-02"),
			"Active":    active,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Badge", "Full Name", "Phone", "Hired At", "Active"},
		Rows:    dataRows,
	}
	return dataset, "Guard Roster", nil
}

func (s *ExportService) buildAssignmentSchedule(ctx context.Context, params models.ExportParams) (export.Dataset, string, error) {
	filter := models.AssignmentFilter{
		GuardID:  params.GuardID,
		ClientID: params.ClientID,
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
		PageSize: exportPageSize,
	}
	rows, _, err := s.assignments.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Guard":       row.GuardName,
			"Client":      row.ClientName,
			"Site":        row.SiteName,
			"Shift Start": row.ShiftStart.Format("2006-01-02 15:04"),
			"Shift End":   row.ShiftEnd.Format("2006-01-02 15:04"),
			"Status":      string(row.Status),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Guard", "Client", "Site", "Shift Start", "Shift End", "Status"},
		Rows:    dataRows,
	}
	return dataset, "Assignment Schedule", nil
}

func (s *ExportService) buildIncidentLog(ctx context.Context, params models.ExportParams) (export.Dataset, string, error) {
	filter := models.IncidentFilter{
		ClientID: params.ClientID,
		PageSize: exportPageSize,
	}
	rows, _, err := s.incidents.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Title":       row.Title,
			"Severity":    row.Severity,
			"Status":      string(row.Status),
			"Occurred At": row.OccurredAt.Format("2006-01-02 15:04"),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Title", "Severity", "Status", "Occurred At"},
		Rows:    dataRows,
	}
	return dataset, "Incident Log", nil
}

func (s *ExportService) buildExpenseSummary(ctx context.Context, params models.ExportParams) (export.Dataset, string, error) {
	filter := models.ExpenseFilter{
		GuardID:  params.GuardID,
		PageSize: exportPageSize,
	}
	rows, _, err := s.expenses.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Category":     row.Category,
			"Description":  row.Description,
			"Amount":       fmt.Sprintf("%d", row.Amount),
			"Decision":     string(row.Decision),
			"Submitted At": row.SubmittedAt.Format("2006-01-02"),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Category", "Description", "Amount", "Decision", "Submitted At"},
		Rows:    dataRows,
	}
	return dataset, "Expense Summary", nil
}

// exportPageSize caps rendered rows. Large exports belong in a reporting
// pipeline, not the ops console.
const exportPageSize = 100

func (s *ExportService) snapshot(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *ExportService) setStatus(id string, status models.ExportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
		job.UpdatedAt = time.Now().UTC()
	}
}

func (s *ExportService) setFailed(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = models.ExportStatusFailed
		job.Error = err.Error()
		job.UpdatedAt = time.Now().UTC()
	}
}
