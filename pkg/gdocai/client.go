package gdocai

import (
	"context"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// Config holds the Google Document AI processor settings
type Config struct {
	ProjectID       string // Google Cloud project
	Location        string // Processor region, e.g. "us" or "eu"
	ProcessorID     string // OCR processor ID
	CredentialsFile string // Service account JSON; empty = application default credentials
}

// Validate checks that the processor can be addressed
func (c Config) Validate() error {
	if c.ProjectID == "" || c.Location == "" || c.ProcessorID == "" {
		return fmt.Errorf("document ai project_id, location and processor_id must be set")
	}
	return nil
}

// processorName builds the resource name of the processor
func (c Config) processorName() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		c.ProjectID, c.Location, c.ProcessorID,
	)
}

// ProcessDocument sends PDF bytes to Google Document AI for processing
// and returns the raw Document proto response
func ProcessDocument(ctx context.Context, pdfBytes []byte, cfg Config) (*documentaipb.Document, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)

	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	req := &documentaipb.ProcessRequest{
		Name: cfg.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}

	return resp.Document, nil
}
