// Package repository persists finalized run records: one file per run
// under {dataDir}/runs/, compact JSON on write, and compacted-on-read
// loading for analytics across potentially hundreds of stored runs.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/concilium/core/model"
)

// loadAllBatchSize bounds how many files LoadAll reads concurrently at
// once.
const loadAllBatchSize = 20

// Repository is a file-based RunRepository: `save`, `load`, `list`,
// `loadAll` against one JSON file per run under dataDir/runs/.
type Repository struct {
	runsDir string
}

// New returns a Repository rooted at dataDir. The runs/ subdirectory is
// created lazily on first Save, not here, so constructing a Repository
// never touches the filesystem.
func New(dataDir string) *Repository {
	return &Repository{runsDir: filepath.Join(dataDir, "runs")}
}

func (r *Repository) pathFor(id string) string {
	return filepath.Join(r.runsDir, filepath.Base(id)+".json")
}

// Save persists record as compact JSON to {dataDir}/runs/{id}.json,
// creating the directory if needed, and returns the path written.
// Directory creation is safe under concurrent Save calls racing to
// create the same parent (os.MkdirAll is idempotent and returns no
// error when the directory already exists).
func (r *Repository) Save(ctx context.Context, record *model.RunRecord) (string, error) {
	if err := os.MkdirAll(r.runsDir, 0o750); err != nil {
		return "", fmt.Errorf("repository: create runs directory: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("repository: marshal run record: %w", err)
	}

	path := r.pathFor(record.ID)
	if err := os.WriteFile(path, payload, 0o640); err != nil {
		return "", fmt.Errorf("repository: write run record: %w", err)
	}
	return path, nil
}

// Load parses the full record stored for id.
func (r *Repository) Load(ctx context.Context, id string) (*model.RunRecord, error) {
	payload, err := os.ReadFile(r.pathFor(id))
	if err != nil {
		return nil, fmt.Errorf("repository: read run record %q: %w", id, err)
	}
	var record model.RunRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("repository: decode run record %q: %w", id, err)
	}
	return &record, nil
}

// List returns a compact projection of every run — id, createdAt,
// promptPreview (first 70 runes), and derived status — sorted by
// createdAt descending. Unreadable or malformed files are skipped
// silently, matching loadAll's tolerance for a partially-written or
// corrupted run file.
func (r *Repository) List(ctx context.Context) ([]model.RunSummary, error) {
	entries, err := os.ReadDir(r.runsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: read runs directory: %w", err)
	}

	summaries := make([]model.RunSummary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		record, err := r.Load(ctx, id)
		if err != nil {
			continue
		}
		summaries = append(summaries, model.RunSummary{
			ID:            record.ID,
			CreatedAt:     record.CreatedAt,
			PromptPreview: model.PromptPreview(record.Prompt, 70),
			Status:        record.DeriveStatus(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// LoadAll loads every stored run record in batches of loadAllBatchSize
// concurrently, compacting each agent's events on the way out to keep
// record size bounded (its token-usage events merge into a single
// cumulative token-usage event; events without usage are kept in order),
// and returns them sorted by createdAt descending. Unreadable files are
// skipped silently.
func (r *Repository) LoadAll(ctx context.Context) ([]model.RunRecord, error) {
	entries, err := os.ReadDir(r.runsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: read runs directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, e.Name()[:len(e.Name())-len(".json")])
	}

	records := make([]*model.RunRecord, len(ids))
	for start := 0; start < len(ids); start += loadAllBatchSize {
		end := start + loadAllBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for i, id := range batch {
			i, id := i, id
			g.Go(func() error {
				record, err := r.Load(gctx, id)
				if err != nil {
					return nil // unreadable files are skipped silently
				}
				compact(record)
				records[start+i] = record
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]model.RunRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// compact merges every agent's token-usage events into a single cumulative
// token-usage event (events without usage are kept, see
// model.CompactEvents) and drops each event's raw provider output. rawLine exists only
// for live debugging of a running agent; once a run is finalized and
// being read back for analytics, the parsed text is what matters.
func compact(record *model.RunRecord) {
	for i := range record.Agents {
		events := model.CompactEvents(record.Agents[i].Events)
		for j := range events {
			events[j].RawLine = ""
		}
		record.Agents[i].Events = events
	}
}
