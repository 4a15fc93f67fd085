package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gianged/cindex/internal/qcache"
	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/types"
)

// APIOptions filters Stage 6's endpoint search.
type APIOptions struct {
	APITypes                   []string `json:"api_types,omitempty"`
	IncludeDeprecated          bool     `json:"include_deprecated,omitempty"`
	RequireImplementationMatch bool     `json:"require_implementation_match,omitempty"`
}

// callPattern recognizes one outbound-call shape in chunk content.
// Patterns are language-agnostic regexes; each captures a URL/path
// operand where possible.
type callPattern struct {
	callType string
	re       *regexp.Regexp
	method   string // fixed when not captured
}

var callPatterns = []callPattern{
	{callType: "fetch", re: regexp.MustCompile(`\bfetch\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`), method: "GET"},
	{callType: "axios", re: regexp.MustCompile(`\baxios\s*\.\s*(get|post|put|patch|delete)\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)},
	{callType: "http_client", re: regexp.MustCompile(`\b(?:got|superagent|nodeFetch)\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`), method: "GET"},
	{callType: "node_http", re: regexp.MustCompile(`\bhttps?\.(?:get|request)\s*\(\s*['"]([^'"]+)`), method: "GET"},
	{callType: "requests", re: regexp.MustCompile(`\brequests\.(get|post|put|patch|delete)\s*\(\s*['"]([^'"]+)`)},
	{callType: "httpx", re: regexp.MustCompile(`\bhttpx\.(get|post|put|patch|delete)\s*\(\s*['"]([^'"]+)`)},
	{callType: "aiohttp", re: regexp.MustCompile(`\bsession\.(get|post|put|patch|delete)\s*\(\s*['"]([^'"]+)`)},
	{callType: "go_http", re: regexp.MustCompile(`\bhttp\.(Get|Post|Head)\s*\(\s*"([^"]+)`)},
	{callType: "go_http", re: regexp.MustCompile(`\bhttp\.NewRequest(?:WithContext)?\s*\(\s*(?:\w+\s*,\s*)?"(GET|POST|PUT|PATCH|DELETE)"\s*,\s*"([^"]+)`)},
	{callType: "reqwest", re: regexp.MustCompile(`\bclient\.(get|post|put|patch|delete)\s*\(\s*"([^"]+)`)},
	{callType: "grpc", re: regexp.MustCompile(`\bNew\w+Client\s*\(`), method: "POST"},
	{callType: "graphql", re: regexp.MustCompile(`\b(?:useQuery|useMutation|client\.query|client\.mutate)\s*\(`), method: "QUERY"},
}

// EnrichAPI is Retrieval Stage 6: endpoints for the services touched by
// the retrieved files, outbound-call detection in chunk contents, and
// contract links for endpoints whose implementation chunk was retrieved.
func (p *Pipeline) EnrichAPI(ctx context.Context, q *ProcessedQuery, scope *ResolvedScope,
	files []FileHit, chunks []ChunkHit, opts APIOptions) (*APIResult, error) {

	serviceIDs := touchedServices(scope, files)
	res := &APIResult{}

	endpoints, err := p.serviceEndpoints(ctx, q, scope, serviceIDs, chunks, opts)
	if err != nil {
		return nil, err
	}
	res.Endpoints = endpoints

	// Index every known endpoint by (method, path) for call matching;
	// matching is not limited to the scoped services since outbound
	// calls usually target another service.
	all, err := p.store.ListAllEndpoints()
	if err != nil {
		return nil, err
	}
	byMethodPath := make(map[string]*types.APIEndpoint, len(all))
	for i := range all {
		e := &all[i]
		byMethodPath[e.Method+" "+e.Path] = e
	}

	res.Calls = scanOutboundCalls(chunks, byMethodPath)

	retrieved := make(map[string]bool, len(chunks))
	for _, h := range chunks {
		retrieved[h.Chunk.ChunkID] = true
	}
	for _, e := range res.Endpoints {
		if e.ImplementationChunkID != "" && retrieved[e.ImplementationChunkID] {
			res.Links = append(res.Links, ContractLink{
				EndpointID: e.EndpointID,
				ChunkID:    e.ImplementationChunkID,
				Confidence: 1.0,
			})
		}
	}

	for _, e := range res.Endpoints {
		if e.Deprecated {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("endpoint %s %s is deprecated", e.Method, e.Path))
		}
		if e.ImplementationChunkID == "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("endpoint %s %s has no implementation link", e.Method, e.Path))
		}
	}
	for _, c := range res.Calls {
		if !c.EndpointFound {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("outbound call %s %s in %s matches no known endpoint", c.Method, c.EndpointPath, c.SourceFile))
		}
	}
	return res, nil
}

// touchedServices intersects the retrieved files' services with the
// scope's explicit service set, or falls back to whichever is set.
func touchedServices(scope *ResolvedScope, files []FileHit) []string {
	fromFiles := make(map[string]bool)
	for _, f := range files {
		if f.File.ServiceID != "" {
			fromFiles[f.File.ServiceID] = true
		}
	}
	var out []string
	if len(scope.ServiceIDs) > 0 {
		if len(fromFiles) == 0 {
			out = append(out, scope.ServiceIDs...)
		} else {
			for _, sid := range scope.ServiceIDs {
				if fromFiles[sid] {
					out = append(out, sid)
				}
			}
		}
	} else {
		for sid := range fromFiles {
			out = append(out, sid)
		}
	}
	sort.Strings(out)
	return out
}

// serviceEndpoints performs the vector search (or full fallback) over
// endpoints for the touched services, consulting the endpoint cache.
func (p *Pipeline) serviceEndpoints(ctx context.Context, q *ProcessedQuery, scope *ResolvedScope,
	serviceIDs []string, chunks []ChunkHit, opts APIOptions) ([]types.APIEndpoint, error) {

	if len(serviceIDs) == 0 {
		return nil, nil
	}
	inService := make(map[string]bool, len(serviceIDs))
	for _, s := range serviceIDs {
		inService[s] = true
	}

	typeFilter := make(map[string]bool, len(opts.APITypes))
	for _, t := range opts.APITypes {
		typeFilter[strings.ToLower(t)] = true
	}

	keep := func(e types.APIEndpoint) bool {
		if !inService[e.ServiceID] {
			return false
		}
		if len(typeFilter) > 0 && !typeFilter[string(e.APIType)] {
			return false
		}
		if e.Deprecated && !opts.IncludeDeprecated {
			return false
		}
		return true
	}

	// No query embedding: fall back to all endpoints for the services.
	if len(q.Embedding) == 0 {
		var out []types.APIEndpoint
		for _, repoID := range scope.RepoIDs {
			eps, err := p.store.ListEndpointsByRepo(repoID)
			if err != nil {
				return nil, err
			}
			for _, e := range eps {
				if keep(e) {
					out = append(out, e)
				}
			}
		}
		return out, nil
	}

	flags := map[string]bool{
		"deprecated": opts.IncludeDeprecated,
		"impl_match": opts.RequireImplementationMatch,
	}
	for _, t := range opts.APITypes {
		flags["type:"+t] = true
	}
	cacheKey := qcache.Key(serviceIDs, q.Embedding, 8, flags)

	var ids []string
	if cached, ok := p.epcache.Get(cacheKey); ok {
		ids = cached
	} else {
		matchCap := p.cfg.Retrieval.APIMatchCap
		if matchCap <= 0 {
			matchCap = 50
		}
		matches, err := store.SearchEndpointsByVector(p.store.DB(), q.Embedding, matchCap*4)
		if err != nil {
			return nil, err
		}
		threshold := p.cfg.Retrieval.APIMatchThreshold
		for _, m := range matches {
			if 1-m.Distance < threshold {
				continue
			}
			ids = append(ids, m.ID)
			if len(ids) >= matchCap {
				break
			}
		}
		p.epcache.Set(cacheKey, ids)
	}

	eps, err := p.store.GetEndpointsByIDs(ids)
	if err != nil {
		return nil, err
	}

	retrieved := make(map[string]bool, len(chunks))
	for _, h := range chunks {
		retrieved[h.Chunk.ChunkID] = true
	}

	var out []types.APIEndpoint
	for _, e := range eps {
		if !keep(e) {
			continue
		}
		if opts.RequireImplementationMatch && !retrieved[e.ImplementationChunkID] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndpointID < out[j].EndpointID })
	return out, nil
}

// scanOutboundCalls runs the call-pattern regexes over every retrieved
// chunk's content and matches hits to known endpoints by (method, path).
func scanOutboundCalls(chunks []ChunkHit, byMethodPath map[string]*types.APIEndpoint) []OutboundCall {
	var out []OutboundCall
	for _, h := range chunks {
		content := h.Chunk.Content
		for _, cp := range callPatterns {
			for _, m := range cp.re.FindAllStringSubmatch(content, -1) {
				method, rawPath := cp.method, ""
				switch len(m) {
				case 3:
					method, rawPath = strings.ToUpper(m[1]), m[2]
				case 2:
					rawPath = m[1]
				}
				call := OutboundCall{
					SourceChunkID: h.Chunk.ChunkID,
					SourceFile:    h.Chunk.FilePath,
					EndpointPath:  pathOf(rawPath),
					Method:        strings.ToUpper(method),
					CallType:      cp.callType,
				}
				if target, ok := byMethodPath[call.Method+" "+call.EndpointPath]; ok {
					call.EndpointFound = true
					call.MatchedEndpointID = target.EndpointID
					call.TargetServiceID = target.ServiceID
				}
				out = append(out, call)
			}
		}
	}
	return out
}

// pathOf strips scheme and host from a call operand, leaving the path
// endpoint matching keys on.
func pathOf(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		rest := raw[strings.Index(raw, "//")+2:]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			raw = rest[idx:]
		} else {
			raw = "/"
		}
	}
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}
