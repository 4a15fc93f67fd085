package retrieval

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gianged/cindex/internal/backend"
	"github.com/gianged/cindex/internal/config"
	"github.com/gianged/cindex/internal/logging"
	"github.com/gianged/cindex/internal/qcache"
	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/types"
)

// Pipeline owns the nine retrieval stages and their shared caches.
type Pipeline struct {
	store    *store.Store
	client   backend.Client
	cfg      *config.Config
	qcache   *qcache.QueryEmbeddingCache
	epcache  *qcache.APIEndpointCache
	docIndex *store.DocIndex
	log      *logging.Logger
}

// New builds a Pipeline. docIndex may be nil (documentation keyword
// search is then skipped).
func New(st *store.Store, client backend.Client, cfg *config.Config, docIndex *store.DocIndex, log *logging.Logger) (*Pipeline, error) {
	if log == nil {
		log = logging.New("cindex.retrieval")
	}
	ttl := time.Duration(cfg.Retrieval.QueryCacheTTLMinutes) * time.Minute
	qc, err := qcache.NewQueryEmbeddingCache(ttl, cfg.Retrieval.QueryCacheCapacity)
	if err != nil {
		return nil, err
	}
	ec, err := qcache.NewAPIEndpointCache(ttl, cfg.Retrieval.QueryCacheCapacity)
	if err != nil {
		qc.Close()
		return nil, err
	}
	return &Pipeline{
		store:    st,
		client:   client,
		cfg:      cfg,
		qcache:   qc,
		epcache:  ec,
		docIndex: docIndex,
		log:      log,
	}, nil
}

// Close releases the pipeline's caches.
func (p *Pipeline) Close() {
	p.qcache.Close()
	p.epcache.Close()
}

// CacheStats reports the query-embedding and endpoint cache hit rates.
func (p *Pipeline) CacheStats() (query, endpoint qcache.Stats) {
	return p.qcache.Stats(), p.epcache.Stats()
}

// SearchOptions tunes one search_codebase call.
type SearchOptions struct {
	Scope    ScopeConfig `json:"scope,omitempty"`
	TopFiles int         `json:"top_files,omitempty"` // default 10
	API      APIOptions  `json:"api,omitempty"`
}

// Search runs the full pipeline: stages 0-3 strictly in order, stages
// 4/5/6 concurrently (they depend only on 2/3 outputs), then 7 and 8.
func (p *Pipeline) Search(ctx context.Context, rawQuery string, opts SearchOptions) (*Context, error) {
	return p.search(ctx, rawQuery, opts, false)
}

// SearchReferences is the separate path over reference/documentation
// repos that the global scope excludes.
func (p *Pipeline) SearchReferences(ctx context.Context, rawQuery string, opts SearchOptions) (*Context, error) {
	return p.search(ctx, rawQuery, opts, true)
}

func (p *Pipeline) search(ctx context.Context, rawQuery string, opts SearchOptions, referencesOnly bool) (*Context, error) {
	// Stage 0: scope.
	scope, err := p.ResolveScope(opts.Scope, referencesOnly)
	if err != nil {
		return nil, err
	}

	// Stage 1: query processing.
	q, err := p.ProcessQuery(ctx, rawQuery)
	if err != nil {
		return nil, err
	}

	// Stage 2: file retrieval.
	files, err := p.RetrieveFiles(ctx, q, scope, opts.TopFiles)
	if err != nil {
		return nil, err
	}

	// Stage 3: chunk retrieval.
	chunks, err := p.RetrieveChunks(ctx, q, scope, files)
	if err != nil {
		return nil, err
	}

	// Stages 4, 5, 6 run concurrently.
	var (
		symbols map[string][]types.Symbol
		chains  []ChainEntry
		api     *APIResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		symbols, err = p.ResolveSymbols(gctx, scope, chunks, false)
		return err
	})
	g.Go(func() error {
		var err error
		chains, err = p.ExpandImports(gctx, files, opts.TopFiles)
		return err
	})
	g.Go(func() error {
		var err error
		api, err = p.EnrichAPI(gctx, q, scope, files, chunks, opts.API)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stage 7: dedup + prioritize.
	chunks = Dedup(chunks, p.cfg.Retrieval.DedupThreshold)

	// Stage 8: assembly.
	return p.Assemble(q, files, chunks, symbols, chains, api), nil
}

// DocHit is one search_documentation result.
type DocHit struct {
	Chunk types.DocumentationChunk `json:"chunk"`
	Score float64                  `json:"score"`
}

// SearchDocumentation searches indexed markdown: the vector leg over
// documentation_chunks_vec merged with the bleve keyword leg.
func (p *Pipeline) SearchDocumentation(ctx context.Context, rawQuery string, limit int) ([]DocHit, error) {
	q, err := p.ProcessQuery(ctx, rawQuery)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	scores := make(map[string]float64)

	matches, err := store.SearchDocumentationByVector(p.store.DB(), q.Embedding, limit*2)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		scores[m.ID] = (1 - m.Distance) * p.cfg.Retrieval.HybridVectorWeight
	}

	if p.docIndex != nil {
		ids, err := p.docIndex.Search(SanitizeKeywordQuery(q.NormalizedText), limit*2)
		if err != nil {
			p.log.Warn("documentation keyword search failed: %v", err)
		} else {
			// bleve returns relevance-ordered IDs; fold rank position
			// into the hybrid score.
			for i, id := range ids {
				scores[id] += p.cfg.Retrieval.HybridKeywordWeight * float64(len(ids)-i) / float64(len(ids))
			}
		}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	docs, err := p.store.GetDocumentationChunksByIDs(ids)
	if err != nil {
		return nil, err
	}

	hits := make([]DocHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, DocHit{Chunk: d, Score: scores[d.DocID]})
	}
	sortDocHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func sortDocHits(hits []DocHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.DocID < hits[j].Chunk.DocID
	})
}

// EndpointHit is one search_api_contracts result. APIType is
// preserved verbatim, websocket included; normalizing it away would
// lose information the caller filtered on.
type EndpointHit struct {
	Endpoint types.APIEndpoint `json:"endpoint"`
	Score    float64           `json:"score"`
}

// SearchAPIContracts performs semantic search over endpoint embeddings.
func (p *Pipeline) SearchAPIContracts(ctx context.Context, rawQuery string, opts APIOptions, limit int) ([]EndpointHit, error) {
	q, err := p.ProcessQuery(ctx, rawQuery)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = p.cfg.Retrieval.APIMatchCap
	}

	matches, err := store.SearchEndpointsByVector(p.store.DB(), q.Embedding, limit*4)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		sim := 1 - m.Distance
		if sim < p.cfg.Retrieval.APIMatchThreshold {
			continue
		}
		scores[m.ID] = sim
		ids = append(ids, m.ID)
	}

	eps, err := p.store.GetEndpointsByIDs(ids)
	if err != nil {
		return nil, err
	}

	typeFilter := make(map[string]bool, len(opts.APITypes))
	for _, t := range opts.APITypes {
		typeFilter[t] = true
	}

	var hits []EndpointHit
	for _, e := range eps {
		if len(typeFilter) > 0 && !typeFilter[string(e.APIType)] {
			continue
		}
		if e.Deprecated && !opts.IncludeDeprecated {
			continue
		}
		hits = append(hits, EndpointHit{Endpoint: e, Score: scores[e.EndpointID]})
	}
	sortEndpointHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func sortEndpointHits(hits []EndpointHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Endpoint.EndpointID < hits[j].Endpoint.EndpointID
	})
}
