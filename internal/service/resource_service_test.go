package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceUploadRejectsNonPDF(t *testing.T) {
	svc := NewResourceService(nil, nil, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		Name:        "Cours",
		Subject:     "Biology",
		ClassLevel:  "5th-grade",
		UploadedBy:  "teacher-1",
		FileName:    "cours.docx",
		ContentType: "application/msword",
		Data:        []byte("not a pdf"),
	})

	assert.ErrorIs(t, err, ErrBadFileType)
}

func TestResourceUploadRejectsOversizedFile(t *testing.T) {
	svc := NewResourceService(nil, nil, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		Name:        "Cours",
		Subject:     "Biology",
		ClassLevel:  "5th-grade",
		UploadedBy:  "teacher-1",
		FileName:    "cours.pdf",
		ContentType: PDFContentType,
		Data:        make([]byte, MaxResourceSize+1),
	})

	assert.ErrorIs(t, err, ErrFileTooLarge)
}
