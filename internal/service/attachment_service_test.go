package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestAttachmentUploadAndDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir(), 64)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewAttachmentService(f.repos, store, f.dispatcher, zap.NewNop())
	incident := f.openIncident(t, "Screen cracked")

	att, err := svc.Upload(ctx, f.tech, domain.KindIncident, incident.ID, Upload{FileName: "photo.jpg", MimeType: "image/jpeg", Body: strings.NewReader("jpegbytes")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if att.IncidentID == nil || *att.IncidentID != incident.ID || att.SizeBytes != 9 {
		t.Fatalf("attachment = %+v", att)
	}
	if !strings.HasPrefix(att.StoragePath, f.tech.ID+"/") {
		t.Errorf("storage path = %q", att.StoragePath)
	}

	list, err := svc.List(ctx, f.requester, domain.KindIncident, incident.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %+v, %v", list, err)
	}
	meta, file, err := svc.Open(ctx, f.requester, att.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(file)
	file.Close()
	if string(body) != "jpegbytes" || meta.FileName != "photo.jpg" {
		t.Fatalf("download = %q %+v", body, meta)
	}

	if _, err := svc.Upload(ctx, f.tech, domain.KindIncident, incident.ID, Upload{FileName: "big.bin", Body: strings.NewReader(strings.Repeat("x", 65))}); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("oversized: got %v", err)
	}
	if _, err := svc.Upload(ctx, f.requester, domain.KindIncident, incident.ID, Upload{FileName: "a.txt", Body: strings.NewReader("a")}); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Fatalf("requester upload: got %v", err)
	}
	if _, err := svc.Upload(ctx, f.tech, domain.KindRequirement, incident.ID, Upload{FileName: "a.txt", Body: strings.NewReader("a")}); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("wrong kind: got %v", err)
	}
	if len(f.dispatcher.ofType(events.EventAttachmentAdded)) != 1 {
		t.Fatal("expected one attachment event")
	}

	if err := f.incidents.Delete(ctx, f.admin, incident.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("delete with attachment: got %v", err)
	}
}
