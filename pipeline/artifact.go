package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/sitedex/core"
)

// scrapeArtifact is the on-disk snapshot of one run's scraped pages,
// written for offline inspection and reprocessing.
type scrapeArtifact struct {
	RunID     string              `json:"run_id"`
	StartedAt string              `json:"started_at"`
	Pages     []*core.ScrapedPage `json:"pages"`
}

// saveArtifact writes the scraped pages of a run as pretty-printed
// JSON under the artifact directory, named after the run ID.
func (o *Orchestrator) saveArtifact(run *core.PipelineRun, pages []extractedPage) error {
	if err := os.MkdirAll(o.cfg.ArtifactDir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	artifact := scrapeArtifact{
		RunID:     run.RunID,
		StartedAt: run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		Pages:     make([]*core.ScrapedPage, 0, len(pages)),
	}
	for _, p := range pages {
		artifact.Pages = append(artifact.Pages, p.page)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	path := filepath.Join(o.cfg.ArtifactDir, fmt.Sprintf("scraped_%s.json", run.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	o.logger.Info("saved scrape artifact", "path", path, "pages", len(artifact.Pages))
	return nil
}
