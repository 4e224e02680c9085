package organizer

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
)

// Organizer wires the full pipeline: discover, classify, resolve,
// compute destinations, materialize.
type Organizer struct {
	client tmdb.API
	policy DisambiguationPolicy
	log    *logging.Logger
}

// New creates an organizer. The policy decides between multiple metadata
// candidates; nil falls back to declining every ambiguous match.
func New(client tmdb.API, policy DisambiguationPolicy, log *logging.Logger) *Organizer {
	return &Organizer{client: client, policy: policy, log: log}
}

// Run organizes everything the options select and reports what happened.
func (o *Organizer) Run(ctx context.Context, opts Options) (*Summary, error) {
	return o.RunWithProgress(ctx, opts, nil)
}

// RunWithProgress is Run with live updates sent over progressCh. The
// channel is never closed by the organizer; a nil channel disables
// reporting.
func (o *Organizer) RunWithProgress(ctx context.Context, opts Options, progressCh chan<- Progress) (*Summary, error) {
	start := time.Now()
	if opts.DestDir == "" {
		return nil, fmt.Errorf("destination directory not configured")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pr := newProgressReporter(progressCh)
	pr.start(0, "scanning sources")

	if !opts.DryRun {
		if err := os.MkdirAll(opts.DestDir, 0755); err != nil {
			return nil, fmt.Errorf("creating destination: %w", err)
		}
	}

	items, err := Discover(opts.SourceDirs, opts.SinglePath, o.log)
	if err != nil {
		return nil, err
	}
	o.log.Info("organizer", "scan complete",
		logging.F("items", len(items)),
		logging.F("workers", workers))

	// The variation index is a snapshot: folders created during this run
	// are deliberately not visible to it.
	index := BuildIndex(opts.DestDir, o.log)
	resolver := NewResolver(o.client, NewCache(), o.policy, opts.FolderID, o.log)
	paths := NewPathResolver(opts, o.client, index, o.log)
	link := NewMaterializer(index, opts.DryRun, o.log)

	sum := &Summary{Scanned: len(items)}
	var mu sync.Mutex

	pr.setTotal(len(items))

	itemChan := make(chan RawItem, len(items))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-itemChan:
					if !ok {
						return
					}
					result := o.processItem(ctx, item, resolver, paths, link)
					mu.Lock()
					sum.add(result)
					ev := sum.progressEvent(item.FileName)
					mu.Unlock()
					pr.update(ev)
				}
			}
		}()
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
		case itemChan <- item:
		}
	}
	close(itemChan)
	wg.Wait()

	sum.Duration = time.Since(start)

	mu.Lock()
	final := sum.progressEvent("")
	mu.Unlock()
	pr.complete("organize complete", final)

	o.log.Info("organizer", "run complete",
		logging.F("scanned", sum.Scanned),
		logging.F("created", sum.Created),
		logging.F("already_linked", sum.AlreadyLinked),
		logging.F("replaced", sum.Replaced),
		logging.F("skipped", sum.Skipped),
		logging.F("unresolved", sum.Unresolved),
		logging.F("failed", sum.Failed),
		logging.F("duration", sum.Duration.Round(time.Millisecond).String()))

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// processItem runs one file through the pipeline. Failures are contained:
// they come back in the result, never as a panic or an aborted run.
func (o *Organizer) processItem(ctx context.Context, item RawItem, resolver *Resolver, paths *PathResolver, link *Materializer) ItemResult {
	class := Classify(item)
	query := Normalize(class.RawTitle)

	media := tmdb.MediaMovie
	if class.Class == ClassEpisode {
		media = tmdb.MediaTV
	} else {
		query.Title = Standardize(query.Title)
	}

	res := resolver.Resolve(ctx, media, query, item.ParentDir)
	if !res.Resolved && res.Year == 0 {
		res.Year = query.Year
	}

	dest, ok := paths.ResolvePath(ctx, item, class, res)
	if !ok {
		return ItemResult{
			Source:     item.SourcePath,
			Outcome:    OutcomeSkipped,
			Resolved:   res.Resolved,
			SkipReason: "extras suppressed",
		}
	}

	outcome, err := link.Materialize(item.SourcePath, dest)
	result := ItemResult{
		Source:   item.SourcePath,
		Dest:     dest,
		Outcome:  outcome,
		Resolved: res.Resolved,
		Err:      err,
	}
	if err != nil {
		o.log.Error("organizer", "failed to place item", err,
			logging.F("source", item.SourcePath),
			logging.F("dest", dest))
		return result
	}
	if outcome == OutcomeSkipped {
		result.SkipReason = "destination occupied"
	}
	return result
}

func (s *Summary) add(r ItemResult) {
	s.Items = append(s.Items, r)
	if !r.Resolved {
		s.Unresolved++
	}
	if r.Err != nil {
		s.Failed++
		return
	}
	switch r.Outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeAlreadyLinked:
		s.AlreadyLinked++
	case OutcomeReplaced:
		s.Replaced++
	case OutcomeSkipped:
		s.Skipped++
	}
}

// progressEvent snapshots the counters for one progress update. Callers
// hold the summary lock.
func (s *Summary) progressEvent(message string) Progress {
	return Progress{
		Current:       len(s.Items),
		Message:       message,
		Created:       s.Created,
		AlreadyLinked: s.AlreadyLinked,
		Replaced:      s.Replaced,
		Skipped:       s.Skipped,
		Failed:        s.Failed,
	}
}
