package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/observability"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
	"github.com/noah-isme/ajarin-go-api/pkg/storage"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrUploadMissing indicates no file part was supplied.
	ErrUploadMissing = errors.New("file is required")
)

// FileStorage is the blob store behind every upload.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (storage.Object, error)
	Delete(ctx context.Context, id string) error
}

// UploadPurpose selects the MIME allow-list applied to a file.
type UploadPurpose string

const (
	PurposeGeneric    UploadPurpose = "generic"
	PurposeMaterial   UploadPurpose = "material"
	PurposeQuestion   UploadPurpose = "question"
	PurposeSubmission UploadPurpose = "submission"
)

// FileStore is what the course, assignment and submission engines need from uploads.
type FileStore interface {
	StoreFile(ctx context.Context, file *multipart.FileHeader, purpose UploadPurpose, userID uint) (models.FileDescriptor, error)
	Remove(ctx context.Context, id string) error
}

// UploadService handles validation and persistence of uploads.
type UploadService interface {
	FileStore
	Upload(ctx context.Context, file *multipart.FileHeader, userID *uint) (dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStorage
	repo    repository.UploadRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

type inspectedFile struct {
	payload  []byte
	mimeType string
	name     string
	checksum string
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/ajarin-go-api/internal/service/upload"),
	}
}

// Upload validates and stores a standalone file. Re-uploading identical bytes returns the earlier record.
func (s *uploadService) Upload(ctx context.Context, file *multipart.FileHeader, userID *uint) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	inspected, err := s.inspect(span, file, PurposeGeneric)
	if err != nil {
		return dto.UploadResponse{}, err
	}

	if userID != nil {
		existing, err := s.repo.FindByChecksum(ctx, *userID, inspected.checksum)
		if err == nil {
			span.SetAttributes(attribute.Bool("upload.deduplicated", true))
			return newUploadResponse(existing), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			return dto.UploadResponse{}, err
		}
	}

	object, err := s.put(ctx, span, inspected)
	if err != nil {
		return dto.UploadResponse{}, err
	}

	record, err := s.record(ctx, span, inspected, object, userID)
	if err != nil {
		return dto.UploadResponse{}, err
	}

	observability.UploadRequests().WithLabelValues(inspected.mimeType).Inc()
	span.SetStatus(codes.Ok, "stored")

	return newUploadResponse(record), nil
}

// StoreFile validates a file against the purpose's allow-list and stores it.
func (s *uploadService) StoreFile(ctx context.Context, file *multipart.FileHeader, purpose UploadPurpose, userID uint) (models.FileDescriptor, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store_file", trace.WithAttributes(
		attribute.String("upload.purpose", string(purpose)),
	))
	defer span.End()

	inspected, err := s.inspect(span, file, purpose)
	if err != nil {
		return models.FileDescriptor{}, err
	}

	object, err := s.put(ctx, span, inspected)
	if err != nil {
		return models.FileDescriptor{}, err
	}

	owner := userID
	if _, err := s.record(ctx, span, inspected, object, &owner); err != nil {
		s.logger.Warn().Err(err).Str("file_id", object.ID).Msg("failed to persist upload record")
	}

	observability.UploadRequests().WithLabelValues(inspected.mimeType).Inc()

	return models.FileDescriptor{
		ID:       object.ID,
		URL:      object.URL,
		Name:     inspected.name,
		Size:     int64(len(inspected.payload)),
		MimeType: inspected.mimeType,
	}, nil
}

// Remove deletes a stored file by id; an empty id is a no-op.
func (s *uploadService) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return storageError(err)
	}
	if err := s.repo.DeleteByPublicID(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("file_id", id).Msg("failed to forget upload record")
	}
	return nil
}

func (s *uploadService) inspect(span trace.Span, file *multipart.FileHeader, purpose UploadPurpose) (inspectedFile, error) {
	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file == nil {
		span.RecordError(ErrUploadMissing)
		span.SetStatus(codes.Error, "validation failed")
		return inspectedFile{}, ErrUploadMissing
	}

	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return inspectedFile{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return inspectedFile{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return inspectedFile{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return inspectedFile{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	fileType := normalizeMime(mimetype.Detect(buf.Bytes()).String())
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if !isAllowedType(purpose, fileType) {
		return inspectedFile{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	if err := s.scan(buf.Bytes(), fileType); err != nil {
		return inspectedFile{}, s.reject(span, "scan", err)
	}

	checksum := sha256.Sum256(buf.Bytes())
	return inspectedFile{
		payload:  buf.Bytes(),
		mimeType: fileType,
		name:     sanitizeFileName(file.Filename),
		checksum: hex.EncodeToString(checksum[:]),
	}, nil
}

func (s *uploadService) put(ctx context.Context, span trace.Span, inspected inspectedFile) (storage.Object, error) {
	span.SetAttributes(
		attribute.String("upload.sanitized_name", inspected.name),
		attribute.Int64("upload.size_bytes", int64(len(inspected.payload))),
	)

	object, err := s.storage.Upload(ctx, inspected.name, bytes.NewReader(inspected.payload))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		s.logger.Error().Err(err).Str("file_name", inspected.name).Msg("file storage upload failed")
		return storage.Object{}, storageError(err)
	}
	return object, nil
}

func (s *uploadService) record(ctx context.Context, span trace.Span, inspected inspectedFile, object storage.Object, userID *uint) (models.UploadRecord, error) {
	record := models.UploadRecord{
		UserID:    userID,
		FileName:  inspected.name,
		PublicID:  object.ID,
		URL:       object.URL,
		MimeType:  inspected.mimeType,
		SizeBytes: int64(len(inspected.payload)),
		Checksum:  inspected.checksum,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return models.UploadRecord{}, err
	}
	return record, nil
}

func (s *uploadService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason+" rejected")
	return err
}

func (s *uploadService) scan(payload []byte, mime string) error {
	if mime != "application/zip" {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func newUploadResponse(record models.UploadRecord) dto.UploadResponse {
	return dto.UploadResponse{
		ID:        record.ID,
		FileID:    record.PublicID,
		URL:       record.URL,
		SizeBytes: record.SizeBytes,
		MimeType:  record.MimeType,
		Checksum:  record.Checksum,
		FileName:  record.FileName,
	}
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	if lower == "application/x-zip-compressed" {
		return "application/zip"
	}
	return lower
}

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func isAllowedType(purpose UploadPurpose, m string) bool {
	image := strings.HasPrefix(m, "image/")
	switch purpose {
	case PurposeMaterial:
		return image || strings.HasPrefix(m, "video/") || m == "application/pdf" || m == docxMime
	case PurposeQuestion:
		return image || m == "application/pdf" || m == docxMime || m == "text/plain"
	case PurposeSubmission:
		return image || m == "application/pdf" || m == "application/zip" || m == docxMime || m == "text/plain"
	default:
		return image || m == "application/pdf" || m == "application/zip"
	}
}
