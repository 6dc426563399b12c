package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByItem(ctx context.Context, kind domain.ItemKind, itemID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

const attachmentSelect = `
        SELECT id, incident_id, requirement_id, file_name, storage_path, mime_type, size_bytes, uploaded_by, created_at
        FROM attachments`

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (incident_id, requirement_id, file_name, storage_path, mime_type, size_bytes, uploaded_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		attachment.IncidentID,
		attachment.RequirementID,
		attachment.FileName,
		attachment.StoragePath,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.UploadedBy,
	).Scan(&attachment.ID, &attachment.CreatedAt)
	return apperrors.NewStoreError(apperrors.KindInsertFailed, "attachment", err)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	attachment, err := scanAttachment(r.pool.QueryRow(ctx, attachmentSelect+" WHERE id=$1", id))
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "attachment", err)
	}
	return attachment, nil
}

func (r *attachmentRepository) ListByItem(ctx context.Context, kind domain.ItemKind, itemID string) ([]domain.Attachment, error) {
	column := "incident_id"
	if kind == domain.KindRequirement {
		column = "requirement_id"
	}
	rows, err := r.pool.Query(ctx, attachmentSelect+" WHERE "+column+"=$1 ORDER BY created_at DESC", itemID)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "attachment", err)
	}
	defer rows.Close()

	result := []domain.Attachment{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "attachment", err)
		}
		result = append(result, *attachment)
	}
	return result, rows.Err()
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var attachment domain.Attachment
	if err := row.Scan(
		&attachment.ID,
		&attachment.IncidentID,
		&attachment.RequirementID,
		&attachment.FileName,
		&attachment.StoragePath,
		&attachment.MimeType,
		&attachment.SizeBytes,
		&attachment.UploadedBy,
		&attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &attachment, nil
}
