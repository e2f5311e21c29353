package policydoc

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading the policy document from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based policy document loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "policydoc-loader").Logger(),
	}
}

// Load reads and parses the policy document at filePath.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*Document, error) {
	l.logger.Info().Str("file", filePath).Msg("loading policy document")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read policy document")
		return nil, fmt.Errorf("failed to read policy document %s: %w", filePath, err)
	}

	doc := Parse(string(raw))

	l.logger.Info().
		Str("file", filePath).
		Int("sections", len(doc.Statuses())).
		Msg("policy document loaded")

	return doc, nil
}
