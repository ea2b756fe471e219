package pipeline_test

import (
	"testing"

	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	acc := "acc1"
	empty := ""

	tests := []struct {
		name string
		raw  domain.RawFile
		want pipeline.Decision
	}{
		{"pdf with account", domain.RawFile{FileType: domain.FileTypePDF, AccountID: &acc}, pipeline.DecideStatement},
		{"csv with account", domain.RawFile{FileType: domain.FileTypeCSV, AccountID: &acc}, pipeline.DecideStatement},
		{"pdf without account", domain.RawFile{FileType: domain.FileTypePDF}, pipeline.DecideSkip},
		{"csv with empty account", domain.RawFile{FileType: domain.FileTypeCSV, AccountID: &empty}, pipeline.DecideSkip},
		{"image", domain.RawFile{FileType: domain.FileTypeImage}, pipeline.DecideReceipt},
		{"image with account", domain.RawFile{FileType: domain.FileTypeImage, AccountID: &acc}, pipeline.DecideReceipt},
		{"email", domain.RawFile{FileType: domain.FileTypeEmail, AccountID: &acc}, pipeline.DecideSkip},
		{"unknown", domain.RawFile{FileType: "docx"}, pipeline.DecideSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.Decide(tt.raw))
		})
	}
}
