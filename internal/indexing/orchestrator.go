// Package indexing drives the full indexing pipeline for a
// repository: discover, parse, chunk, summarize, embed, extract
// symbols, detect workspaces/services/endpoints, and persist
// atomically, with per-file failure capture and incremental skip.
// Discovery feeds a bounded worker pool that handles each file end to
// end; a single writer commits the whole generation in one
// transaction.
package indexing

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gianged/cindex/internal/backend"
	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/chunk"
	"github.com/gianged/cindex/internal/config"
	"github.com/gianged/cindex/internal/discover"
	"github.com/gianged/cindex/internal/logging"
	"github.com/gianged/cindex/internal/parse"
	"github.com/gianged/cindex/internal/secretgate"
	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/summarize"
	"github.com/gianged/cindex/internal/symbolextract"
	"github.com/gianged/cindex/internal/topology"
	"github.com/gianged/cindex/internal/types"
)

// Orchestrator owns the indexing pipeline for every repository.
type Orchestrator struct {
	store   *store.Store
	client  backend.Client
	parsers *parse.Registry
	cfg     *config.Config
	log     *logging.Logger
	locks   *RepoLocks
}

// New builds an Orchestrator. client may be nil in tests; summaries
// then use the rule-based fallback and embeddings are skipped.
func New(st *store.Store, client backend.Client, parsers *parse.Registry, cfg *config.Config, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.New("cindex.indexing")
	}
	return &Orchestrator{
		store:   st,
		client:  client,
		parsers: parsers,
		cfg:     cfg,
		log:     log,
		locks:   NewRepoLocks(),
	}
}

// Options configures one indexing run.
type Options struct {
	RepoPath     string
	RepoID       string // derived from the root basename when empty
	Name         string
	Kind         types.RepoKind
	Version      string
	UpstreamURL  string
	ForceReindex bool
	Progress     Reporter
}

// FileError is one recovered per-file failure.
type FileError struct {
	File  string `json:"file"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Stats summarizes one indexing run.
type Stats struct {
	RepoID           string      `json:"repo_id"`
	FilesDiscovered  int         `json:"files_discovered"`
	FilesIndexed     int         `json:"files_indexed"`
	FilesSkipped     int         `json:"files_skipped"`
	ChunksCreated    int         `json:"chunks_created"`
	SymbolsExtracted int         `json:"symbols_extracted"`
	Workspaces       int         `json:"workspaces"`
	Services         int         `json:"services"`
	Endpoints        int         `json:"endpoints"`
	SecretsDetected  int         `json:"secrets_detected"`
	Failures         []FileError `json:"failures,omitempty"`
	Interrupted      bool        `json:"interrupted,omitempty"`
	DurationMS       int64       `json:"duration_ms"`
}

// fileResult is what one worker hands the writer for a single file.
type fileResult struct {
	file      types.File
	relPath   string
	chunks    []types.Chunk
	symbols   []types.Symbol
	endpoints []types.APIEndpoint
}

// IndexRepository runs the full pipeline for the repository at
// opts.RepoPath. Per-file failures are collected into the returned
// stats; only a persist-stage failure aborts the run.
func (o *Orchestrator) IndexRepository(ctx context.Context, opts Options) (*Stats, error) {
	root, err := filepath.Abs(opts.RepoPath)
	if err != nil {
		return nil, cerrors.Validation(cerrors.CodeMissingField, fmt.Sprintf("bad repo_path: %v", err), "")
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, cerrors.Validation(cerrors.CodeMissingField,
			fmt.Sprintf("repo_path %q is not a directory", opts.RepoPath),
			"Pass the absolute path of the repository root")
	}

	repoID := opts.RepoID
	if repoID == "" {
		repoID = filepath.Base(root)
	}
	name := opts.Name
	if name == "" {
		name = repoID
	}
	kind := opts.Kind
	if kind == "" {
		kind = types.RepoKindMonolithic
	}

	unlock := o.locks.Lock(repoID)
	defer unlock()

	// Force reindex of a reference repo with an unchanged version is a
	// no-op returning the previous run's stats.
	if opts.ForceReindex && kind == types.RepoKindReference {
		if prev, err := o.store.LoadRunStats(repoID); err == nil && prev != nil && prev.Version == opts.Version {
			o.log.Info("reference repo %s at version %q unchanged, returning previous stats", repoID, opts.Version)
			return statsFromRun(prev), nil
		}
	}

	tr := newTracker(opts.Progress)
	defer tr.stop()
	started := time.Now()
	stats := &Stats{RepoID: repoID}

	secrets, err := secretgate.NewFilter(o.cfg.Secrets.SecretPatterns)
	if err != nil {
		return nil, cerrors.Configuration("config.secrets.patterns", fmt.Sprintf("bad secret pattern: %v", err),
			"Check the secret_patterns globs")
	}

	// Stage 1: Discover (sequential).
	tr.emit(StageDiscover, 0, 0, "walking "+root)
	disc, err := discover.NewDiscoverer(nil, secrets)
	if err != nil {
		return nil, err
	}
	discovered, err := disc.Discover(root)
	if err != nil {
		return nil, cerrors.Filesystem("fs.discover", "walk repository root", err)
	}

	var candidates []discover.DiscoveredFile
	for _, df := range discovered {
		if o.cfg.Secrets.ProtectSecrets && df.IsSecret {
			continue
		}
		if df.Strategy == secretgate.StrategySkip {
			stats.FilesSkipped++
			continue
		}
		candidates = append(candidates, df)
	}
	stats.FilesDiscovered = len(discovered)
	stats.SecretsDetected = secrets.TotalMatches()
	tr.emit(StageDiscover, len(candidates), len(candidates),
		fmt.Sprintf("%d files discovered, %d secrets excluded", len(discovered), stats.SecretsDetected))

	prevHashes, err := o.store.ListFileHashes(repoID)
	if err != nil {
		return nil, err
	}

	// Stages 2-6 run as a bounded worker pool, one file end-to-end per
	// worker so parse precedes chunk precedes embed within a file.
	results := make(chan fileResult, o.cfg.Index.BatchSize)
	var (
		failMu   sync.Mutex
		failures []FileError
	)
	recordFailure := func(file, stage string, err error) {
		failMu.Lock()
		failures = append(failures, FileError{File: file, Stage: stage, Error: err.Error()})
		failMu.Unlock()
	}

	var processed, changed, skippedUnchanged int64
	var countMu sync.Mutex
	total := len(candidates)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Index.BatchSize)

	collectDone := make(chan struct{})
	var collected []fileResult
	seen := make(map[string]bool) // discovered rel paths, for stale deletion
	go func() {
		defer close(collectDone)
		for r := range results {
			collected = append(collected, r)
		}
	}()

	for _, df := range candidates {
		df := df
		seen[df.RelPath] = true
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			r, skipped, err := o.processFile(gctx, repoID, df, prevHashes, opts.ForceReindex, tr, total, &processed, &countMu)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				recordFailure(df.RelPath, errStage(err), err)
				return nil
			}
			countMu.Lock()
			if skipped {
				skippedUnchanged++
			} else {
				changed++
			}
			countMu.Unlock()
			if !skipped {
				results <- *r
			}
			return nil
		})
	}

	waitErr := g.Wait()
	close(results)
	<-collectDone

	if waitErr != nil {
		stats.Interrupted = true
		stats.Failures = failures
		stats.DurationMS = time.Since(started).Milliseconds()
		return stats, cerrors.Validation("indexing.cancelled", "indexing run cancelled", "")
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].relPath < collected[j].relPath })

	// Stage 7: workspace detection.
	var wsTopo *topology.WorkspaceTopology
	if o.cfg.Index.DetectWorkspaces {
		tr.emit(StageDetectWorkspaces, 0, 0, "probing workspace manifests")
		wsTopo, err = topology.DetectWorkspaces(root, repoID)
		if err != nil {
			o.log.Warn("workspace detection failed for %s: %v", repoID, err)
		}
	}
	if wsTopo == nil {
		wsTopo = &topology.WorkspaceTopology{Config: topology.RepoWorkspaceConfig{
			Packages: map[string]string{}, PathAliases: map[string][]string{}}}
	}

	// Stage 8: service + endpoint detection.
	var svcTopo *topology.ServiceTopology
	if o.cfg.Index.DetectServices {
		tr.emit(StageDetectServices, 0, 0, "probing service manifests")
		allPaths := make([]string, 0, len(collected))
		for _, r := range collected {
			allPaths = append(allPaths, r.relPath)
		}
		svcTopo, err = topology.DetectServices(root, repoID, allPaths)
		if err != nil {
			o.log.Warn("service detection failed for %s: %v", repoID, err)
		}
	}
	if svcTopo == nil {
		svcTopo = &topology.ServiceTopology{FileService: map[string]string{}}
	}

	endpoints := o.resolveEndpoints(ctx, repoID, name, collected, svcTopo)
	o.applyLinkage(collected, wsTopo, svcTopo)

	// Stage 9: persist everything in one transaction; a failure here
	// rolls the whole run back.
	tr.emit(StagePersist, 0, 0, "committing")
	runStats := store.RunStats{RepoID: repoID, Version: opts.Version}
	err = o.store.WithTx(func(tx *sql.Tx) error {
		return o.persist(tx, persistInput{
			repo: types.Repository{
				RepoID:          repoID,
				Name:            name,
				Kind:            kind,
				Version:         opts.Version,
				UpstreamURL:     opts.UpstreamURL,
				RootPath:        root,
				WorkspaceConfig: wsTopo.Config.Marshal(),
				IndexedAt:       time.Now(),
			},
			results:   collected,
			wsTopo:    wsTopo,
			svcTopo:   svcTopo,
			endpoints: endpoints,
			prevPaths: prevHashes,
			seenPaths: seen,
			runStats:  &runStats,
			stats:     stats,
		})
	})
	if err != nil {
		stats.Interrupted = true
		stats.Failures = failures
		stats.DurationMS = time.Since(started).Milliseconds()
		return stats, err
	}

	if o.cfg.Features.MultiRepoMode {
		if err := o.detectCrossRepoDeps(repoID, collected); err != nil {
			o.log.Warn("cross-repo dependency detection failed for %s: %v", repoID, err)
		}
	}

	stats.FilesIndexed = int(changed)
	stats.FilesSkipped += int(skippedUnchanged)
	stats.Workspaces = len(wsTopo.Workspaces)
	stats.Services = len(svcTopo.Services)
	stats.Endpoints = len(endpoints)
	stats.Failures = failures
	stats.DurationMS = time.Since(started).Milliseconds()

	tr.emit(StagePersist, 1, 1, fmt.Sprintf("indexed %d files (%d unchanged)", stats.FilesIndexed, skippedUnchanged))
	o.log.Info("indexed %s: %d/%d files, %d chunks, %d symbols, %d endpoints, %d failures",
		repoID, stats.FilesIndexed, stats.FilesDiscovered, stats.ChunksCreated, stats.SymbolsExtracted,
		stats.Endpoints, len(stats.Failures))
	return stats, nil
}

// processFile runs Parse→Chunk→Summarize→Extract→Embed for one file.
// The bool result reports an incremental skip (unchanged content).
func (o *Orchestrator) processFile(ctx context.Context, repoID string, df discover.DiscoveredFile,
	prevHashes map[string]string, force bool, tr *tracker, total int, processed *int64, countMu *sync.Mutex) (*fileResult, bool, error) {

	content, err := os.ReadFile(df.Path)
	if err != nil {
		return nil, false, stageError(StageParse, cerrors.Filesystem("fs.read", "read file", err))
	}
	hash := contentHash(content)

	advance := func(stage, msg string) {
		countMu.Lock()
		cur := int(*processed)
		countMu.Unlock()
		tr.emit(stage, cur, total, msg)
	}

	if !force && prevHashes[df.RelPath] == hash {
		countMu.Lock()
		*processed++
		countMu.Unlock()
		return nil, true, nil
	}

	var parsed *parse.ParseResult
	if p := o.parsers.For(df.Path); p != nil {
		parsed, err = p.Parse(df.Path, content)
		if err != nil {
			return nil, false, stageError(StageParse, err)
		}
	} else {
		// No parser claims the file; index it as an opaque text file
		// with no declarations so docs/config still participate in
		// file-level search.
		parsed = &parse.ParseResult{Language: "text", TotalLine: df.LineCount}
	}
	advance(StageParse, df.RelPath)

	chunker := chunk.NewChunker(o.cfg.Embedding.ContextWindow / 16)
	chunks, err := chunker.Chunk(repoID, df.RelPath, content, parsed, df.Strategy)
	if err != nil {
		return nil, false, stageError(StageChunk, err)
	}
	advance(StageChunk, df.RelPath)

	gen := summarize.NewGenerator(o.summaryClient(), o.cfg.Summary.Model, o.cfg.Summary.ContextWindow, 20)
	sum, err := gen.Summarize(ctx, df.RelPath, parsed)
	if err != nil {
		return nil, false, stageError(StageSummarize, err)
	}
	advance(StageSummarize, df.RelPath)

	// The synthetic file_summary chunk was emitted with empty content
	// because Chunk runs before Summarize; fill it now.
	for i := range chunks {
		if chunks[i].ChunkType == types.ChunkTypeFileSummary {
			chunks[i].Content = sum.Text
			chunks[i].TokenCount = len(sum.Text) / 4
		}
	}

	lines := strings.Split(string(content), "\n")
	symbols := symbolextract.Extract(repoID, df.RelPath, parsed, "", "", lines)
	advance(StageExtractSymbols, df.RelPath)

	var endpoints []types.APIEndpoint
	if o.cfg.Index.DetectAPIs {
		endpoints = topology.ExtractFromFile(repoID, "", df.RelPath, content)
		topology.LinkImplementations(endpoints, chunks)
	}

	file := types.File{
		RepoID:          repoID,
		FilePath:        df.RelPath,
		Language:        parsed.Language,
		TotalLines:      df.LineCount,
		Imports:         parsed.Imports,
		Exports:         parsed.Exports,
		Summary:         sum.Text,
		SummaryFallback: sum.Fallback,
		ContentHash:     hash,
		IndexedAt:       time.Now(),
	}

	if err := o.embedFileSet(ctx, &file, chunks, symbols); err != nil {
		return nil, false, stageError(StageEmbed, err)
	}

	countMu.Lock()
	*processed++
	cur := int(*processed)
	countMu.Unlock()
	tr.emit(StageEmbed, cur, total, df.RelPath)

	return &fileResult{file: file, relPath: df.RelPath, chunks: chunks, symbols: symbols, endpoints: endpoints}, false, nil
}

// embedFileSet generates vectors for the file summary, every chunk,
// and every symbol definition in a single backend batch.
func (o *Orchestrator) embedFileSet(ctx context.Context, file *types.File, chunks []types.Chunk, symbols []types.Symbol) error {
	if o.client == nil {
		return nil
	}
	texts := make([]string, 0, 1+len(chunks)+len(symbols))
	texts = append(texts, file.Summary)
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	for _, s := range symbols {
		texts = append(texts, s.Definition)
	}
	vecs, err := o.client.Embed(ctx, o.cfg.Embedding.Model, texts, o.cfg.Embedding.Dimensions, o.cfg.Embedding.ContextWindow)
	if err != nil {
		return err
	}
	if len(vecs) != len(texts) {
		return cerrors.Backend(cerrors.CodeEmbeddingFailed,
			fmt.Sprintf("backend returned %d vectors for %d texts", len(vecs), len(texts)), nil, false)
	}
	file.SummaryEmbedding = vecs[0]
	for i := range chunks {
		chunks[i].Embedding = vecs[1+i]
	}
	// Symbol definitions are embedded in the same batch, but their
	// vectors are not kept: the store has no symbol vector table.
	return nil
}

// summaryClient returns the backend client when LLM summaries are
// configured, nil otherwise (forcing the rule-based path).
func (o *Orchestrator) summaryClient() backend.Client {
	if o.cfg.Summary.Method != "llm" {
		return nil
	}
	return o.client
}

// resolveEndpoints assigns service IDs to endpoints extracted during
// file processing, merges spec-file endpoints, and embeds descriptors.
func (o *Orchestrator) resolveEndpoints(ctx context.Context, repoID, repoName string,
	collected []fileResult, svcTopo *topology.ServiceTopology) []types.APIEndpoint {

	if !o.cfg.Index.DetectAPIs {
		return nil
	}
	var all []types.APIEndpoint
	for _, r := range collected {
		all = append(all, r.endpoints...)
	}
	if len(all) == 0 {
		return nil
	}

	// Endpoints whose implementation file belongs to no detected
	// service get a synthetic default service named for the repo.
	var defaultService *types.Service
	for i := range all {
		if sid, ok := svcTopo.FileService[all[i].ImplementationFile]; ok {
			all[i].ServiceID = sid
			continue
		}
		if defaultService == nil {
			defaultService = &types.Service{
				ServiceID: repoID + "-default",
				RepoID:    repoID,
				Name:      repoName,
				Kind:      types.ServiceKindOther,
			}
			svcTopo.Services = append(svcTopo.Services, *defaultService)
		}
		all[i].ServiceID = defaultService.ServiceID
	}

	if o.client != nil {
		texts := make([]string, len(all))
		for i, e := range all {
			texts[i] = topology.Descriptor(e)
		}
		vecs, err := o.client.Embed(ctx, o.cfg.Embedding.Model, texts, o.cfg.Embedding.Dimensions, o.cfg.Embedding.ContextWindow)
		if err != nil {
			o.log.Warn("endpoint embedding failed for %s: %v", repoID, err)
		} else {
			for i := range all {
				all[i].Embedding = vecs[i]
			}
		}
	}
	return all
}

// applyLinkage stamps each processed file (and its symbols) with the
// workspace and service that own it.
func (o *Orchestrator) applyLinkage(collected []fileResult, wsTopo *topology.WorkspaceTopology, svcTopo *topology.ServiceTopology) {
	for i := range collected {
		r := &collected[i]
		if ws := workspaceFor(r.relPath, wsTopo); ws != nil {
			r.file.WorkspaceID = ws.WorkspaceID
			r.file.PackageName = ws.Name
		}
		if sid, ok := svcTopo.FileService[r.relPath]; ok {
			r.file.ServiceID = sid
		}
		for j := range r.symbols {
			r.symbols[j].WorkspaceID = r.file.WorkspaceID
			r.symbols[j].ServiceID = r.file.ServiceID
		}
	}
}

// workspaceFor finds the workspace whose directory is the longest
// prefix of relPath.
func workspaceFor(relPath string, topo *topology.WorkspaceTopology) *types.Workspace {
	var best *types.Workspace
	for i := range topo.Workspaces {
		w := &topo.Workspaces[i]
		if strings.HasPrefix(relPath, w.RelPath+"/") {
			if best == nil || len(w.RelPath) > len(best.RelPath) {
				best = w
			}
		}
	}
	return best
}

type persistInput struct {
	repo      types.Repository
	results   []fileResult
	wsTopo    *topology.WorkspaceTopology
	svcTopo   *topology.ServiceTopology
	endpoints []types.APIEndpoint
	prevPaths map[string]string
	seenPaths map[string]bool
	runStats  *store.RunStats
	stats     *Stats
}

// persist is Stage 9: the single writer executing the commit
// transaction. Stale files (present in the previous generation but no
// longer discovered) are deleted here, so readers only ever see a
// complete generation.
func (o *Orchestrator) persist(tx *sql.Tx, in persistInput) error {
	if err := o.store.UpsertRepositoryTx(tx, in.repo); err != nil {
		return err
	}

	for _, r := range in.results {
		if err := o.store.DeleteChunksByFile(tx, in.repo.RepoID, r.relPath); err != nil {
			return err
		}
		if err := o.store.DeleteSymbolsByFile(tx, in.repo.RepoID, r.relPath); err != nil {
			return err
		}
		if err := o.store.UpsertFile(tx, r.file); err != nil {
			return err
		}
		for _, c := range r.chunks {
			if err := o.store.UpsertChunk(tx, c); err != nil {
				return err
			}
			in.stats.ChunksCreated++
		}
		for _, s := range r.symbols {
			if err := o.store.UpsertSymbol(tx, s); err != nil {
				return err
			}
			in.stats.SymbolsExtracted++
		}
	}

	// Unchanged files keep their rows but still pick up fresh
	// workspace/service linkage from this run's detection.
	written := make(map[string]bool, len(in.results))
	for _, r := range in.results {
		written[r.relPath] = true
	}
	for path := range in.seenPaths {
		if written[path] {
			continue
		}
		if _, existed := in.prevPaths[path]; !existed {
			continue
		}
		wsID, pkg, svcID := "", "", ""
		if ws := workspaceFor(path, in.wsTopo); ws != nil {
			wsID, pkg = ws.WorkspaceID, ws.Name
		}
		if sid, ok := in.svcTopo.FileService[path]; ok {
			svcID = sid
		}
		if err := o.store.UpdateFileLinkage(tx, in.repo.RepoID, path, wsID, svcID, pkg); err != nil {
			return err
		}
	}

	// Stale rows: files present last generation but not discovered now.
	for path := range in.prevPaths {
		if in.seenPaths[path] {
			continue
		}
		if err := o.store.DeleteChunksByFile(tx, in.repo.RepoID, path); err != nil {
			return err
		}
		if err := o.store.DeleteSymbolsByFile(tx, in.repo.RepoID, path); err != nil {
			return err
		}
		if err := o.store.DeleteFile(tx, in.repo.RepoID, path); err != nil {
			return err
		}
	}

	if err := o.store.ClearTopology(tx, in.repo.RepoID); err != nil {
		return err
	}
	for _, w := range in.wsTopo.Workspaces {
		if err := o.store.UpsertWorkspace(tx, w); err != nil {
			return err
		}
	}
	for _, e := range in.wsTopo.Edges {
		if err := o.store.UpsertWorkspaceDependency(tx, e[0], e[1]); err != nil {
			return err
		}
	}
	for _, svc := range in.svcTopo.Services {
		if err := o.store.UpsertService(tx, svc); err != nil {
			return err
		}
	}
	for _, e := range in.endpoints {
		if err := o.store.UpsertEndpoint(tx, e); err != nil {
			return err
		}
	}

	in.runStats.FilesDiscovered = in.stats.FilesDiscovered
	in.runStats.FilesIndexed = len(in.results)
	in.runStats.FilesSkipped = in.stats.FilesSkipped
	in.runStats.ChunksCreated = in.stats.ChunksCreated
	in.runStats.SymbolsExtracted = in.stats.SymbolsExtracted
	in.runStats.Workspaces = len(in.wsTopo.Workspaces)
	in.runStats.Services = len(in.svcTopo.Services)
	in.runStats.Endpoints = len(in.endpoints)
	in.runStats.SecretsDetected = in.stats.SecretsDetected
	return o.store.SaveRunStats(tx, *in.runStats)
}

// detectCrossRepoDeps records a directed edge to every other indexed
// repository whose ID or name appears among this repo's imports, so
// boundary-aware scope has edges to traverse in multi-repo mode.
func (o *Orchestrator) detectCrossRepoDeps(repoID string, results []fileResult) error {
	repos, err := o.store.ListRepositories()
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(repos))
	for _, r := range repos {
		if r.RepoID == repoID {
			continue
		}
		byName[r.RepoID] = r.RepoID
		if r.Name != "" {
			byName[r.Name] = r.RepoID
		}
	}
	if len(byName) == 0 {
		return nil
	}

	targets := make(map[string]bool)
	for _, r := range results {
		for _, imp := range r.file.Imports {
			name := imp
			if idx := strings.IndexByte(imp, '/'); idx > 0 && !strings.HasPrefix(imp, "@") {
				name = imp[:idx]
			}
			if target, ok := byName[name]; ok {
				targets[target] = true
			} else if target, ok := byName[imp]; ok {
				targets[target] = true
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}
	return o.store.WithTx(func(tx *sql.Tx) error {
		for target := range targets {
			if err := o.store.UpsertCrossRepoDependency(tx, repoID, target); err != nil {
				return err
			}
		}
		return nil
	})
}

func statsFromRun(r *store.RunStats) *Stats {
	return &Stats{
		RepoID:           r.RepoID,
		FilesDiscovered:  r.FilesDiscovered,
		FilesIndexed:     r.FilesIndexed,
		FilesSkipped:     r.FilesSkipped,
		ChunksCreated:    r.ChunksCreated,
		SymbolsExtracted: r.SymbolsExtracted,
		Workspaces:       r.Workspaces,
		Services:         r.Services,
		Endpoints:        r.Endpoints,
		SecretsDetected:  r.SecretsDetected,
	}
}

func contentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// stageError tags an error with the pipeline stage it occurred in, for
// the per-file failure records.
type stagedError struct {
	stage string
	err   error
}

func (e *stagedError) Error() string { return e.err.Error() }
func (e *stagedError) Unwrap() error { return e.err }

func stageError(stage string, err error) error { return &stagedError{stage: stage, err: err} }

func errStage(err error) string {
	if se, ok := err.(*stagedError); ok {
		return se.stage
	}
	return StageParse
}
