package topology

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gianged/cindex/internal/types"
)

// endpointPattern recognizes one framework's route-declaration shape.
// Every pattern captures the HTTP method (group "method", or a fixed
// Method) and the path (group "path").
type endpointPattern struct {
	framework string
	re        *regexp.Regexp
	method    string // fixed method when the regex doesn't capture one
	apiType   types.APIType
}

var codeEndpointPatterns = []endpointPattern{
	// Express / Fastify / generic router: app.get('/users', ...)
	{framework: "express", apiType: types.APITypeREST,
		re: regexp.MustCompile(`(?i)\b(?:app|router|fastify|server)\s*\.\s*(get|post|put|patch|delete|options|head)\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`)},
	// NestJS decorators: @Get('/users')
	{framework: "nestjs", apiType: types.APITypeREST,
		re: regexp.MustCompile(`@(Get|Post|Put|Patch|Delete)\s*\(\s*['"` + "`" + `]?([^'"` + "`" + `)]*)`)},
	// Spring: @GetMapping("/users") / @RequestMapping(value = "/users", method = ...)
	{framework: "spring", apiType: types.APITypeREST,
		re: regexp.MustCompile(`@(Get|Post|Put|Patch|Delete)Mapping\s*\(\s*(?:value\s*=\s*)?"([^"]+)"`)},
	// Django urls.py: path('users/', views...)
	{framework: "django", apiType: types.APITypeREST, method: "GET",
		re: regexp.MustCompile(`\b(?:path|re_path|url)\s*\(\s*r?['"]([^'"]+)['"]`)},
	// FastAPI / Flask decorators: @app.get("/users") / @app.route("/users")
	{framework: "fastapi", apiType: types.APITypeREST,
		re: regexp.MustCompile(`@\w+\.(get|post|put|patch|delete)\s*\(\s*['"]([^'"]+)['"]`)},
	{framework: "flask", apiType: types.APITypeREST, method: "GET",
		re: regexp.MustCompile(`@\w+\.route\s*\(\s*['"]([^'"]+)['"]`)},
	// Go net/http style: mux.HandleFunc("GET /users", ...) or r.Get("/users", ...)
	{framework: "gohttp", apiType: types.APITypeREST,
		re: regexp.MustCompile(`HandleFunc\s*\(\s*"(GET|POST|PUT|PATCH|DELETE)\s+([^"]+)"`)},
	{framework: "chi", apiType: types.APITypeREST,
		re: regexp.MustCompile(`\br\.(Get|Post|Put|Patch|Delete)\s*\(\s*"([^"]+)"`)},
}

// graphqlFieldRe pulls operation fields out of `type Query { ... }` /
// `type Mutation { ... }` blocks in SDL or Apollo template literals.
var (
	graphqlBlockRe = regexp.MustCompile(`(?s)type\s+(Query|Mutation|Subscription)\s*\{([^}]*)\}`)
	graphqlFieldRe = regexp.MustCompile(`(?m)^\s*(\w+)\s*(?:\([^)]*\))?\s*:`)
	protoServiceRe = regexp.MustCompile(`(?s)service\s+(\w+)\s*\{([^}]*)\}`)
	protoRPCRe     = regexp.MustCompile(`rpc\s+(\w+)\s*\(`)
)

// ExtractFromFile scans one source file's content for endpoint
// declarations. filePath is repo-relative; serviceID may be empty when
// the file belongs to no detected service (a synthetic default service
// is assigned by the caller).
func ExtractFromFile(repoID, serviceID, filePath string, content []byte) []types.APIEndpoint {
	text := string(content)
	var out []types.APIEndpoint

	// Framework patterns overlap (a FastAPI decorator also satisfies
	// the generic router shape), so duplicates are collapsed by
	// (type, method, path) with the first match winning.
	seen := make(map[string]bool)
	add := func(apiType types.APIType, method, path, desc string, line int) {
		method = strings.ToUpper(method)
		key := string(apiType) + "|" + method + "|" + path
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, types.APIEndpoint{
			EndpointID:         uuid.NewString(),
			ServiceID:          serviceID,
			RepoID:             repoID,
			APIType:            apiType,
			Path:               path,
			Method:             method,
			Description:        desc,
			ImplementationFile: filePath,
			ImplementationLine: line,
		})
	}

	switch filepath.Ext(filePath) {
	case ".proto":
		for _, svc := range protoServiceRe.FindAllStringSubmatch(text, -1) {
			for _, rpc := range protoRPCRe.FindAllStringSubmatch(svc[2], -1) {
				add(types.APITypeGRPC, "POST", "/"+svc[1]+"/"+rpc[1],
					fmt.Sprintf("gRPC %s.%s", svc[1], rpc[1]), lineOf(text, "rpc "+rpc[1]))
			}
		}
		return out
	case ".graphql", ".gql":
		return append(out, extractGraphQL(repoID, serviceID, filePath, text)...)
	case ".yaml", ".yml", ".json":
		return append(out, extractOpenAPI(repoID, serviceID, filePath, content)...)
	}

	for _, p := range codeEndpointPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			method, path := p.method, ""
			if method == "" {
				method, path = m[1], m[2]
			} else {
				path = m[1]
			}
			if path == "" || strings.HasPrefix(path, "http") {
				continue
			}
			add(types.APITypeREST, method, normalizePath(path),
				fmt.Sprintf("%s route %s %s", p.framework, strings.ToUpper(method), path),
				lineOf(text, m[0]))
		}
	}

	// Apollo gql template literals embed SDL inside JS/TS files.
	if strings.Contains(text, "gql`") || strings.Contains(text, "typeDefs") {
		out = append(out, extractGraphQL(repoID, serviceID, filePath, text)...)
	}

	return out
}

func extractGraphQL(repoID, serviceID, filePath, text string) []types.APIEndpoint {
	var out []types.APIEndpoint
	for _, block := range graphqlBlockRe.FindAllStringSubmatch(text, -1) {
		op := strings.ToLower(block[1]) // query / mutation / subscription
		for _, field := range graphqlFieldRe.FindAllStringSubmatch(block[2], -1) {
			out = append(out, types.APIEndpoint{
				EndpointID:         uuid.NewString(),
				ServiceID:          serviceID,
				RepoID:             repoID,
				APIType:            types.APITypeGraphQL,
				Path:               field[1],
				Method:             strings.ToUpper(op),
				Description:        fmt.Sprintf("GraphQL %s %s", op, field[1]),
				ImplementationFile: filePath,
				ImplementationLine: lineOf(text, field[1]),
			})
		}
	}
	return out
}

// openAPIDoc is the subset of an OpenAPI/Swagger document endpoint
// extraction reads.
type openAPIDoc struct {
	OpenAPI string                                `yaml:"openapi" json:"openapi"`
	Swagger string                                `yaml:"swagger" json:"swagger"`
	Paths   map[string]map[string]openAPIOperation `yaml:"paths" json:"paths"`
}

type openAPIOperation struct {
	Summary     string   `yaml:"summary" json:"summary"`
	Description string   `yaml:"description" json:"description"`
	Deprecated  bool     `yaml:"deprecated" json:"deprecated"`
	Tags        []string `yaml:"tags" json:"tags"`
}

var httpMethods = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true,
	"delete": true, "options": true, "head": true,
}

func extractOpenAPI(repoID, serviceID, filePath string, content []byte) []types.APIEndpoint {
	var doc openAPIDoc
	if strings.HasSuffix(filePath, ".json") {
		if json.Unmarshal(content, &doc) != nil {
			return nil
		}
	} else if yaml.Unmarshal(content, &doc) != nil {
		return nil
	}
	if doc.OpenAPI == "" && doc.Swagger == "" {
		return nil // an unrelated yaml/json file
	}

	var out []types.APIEndpoint
	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		ops := doc.Paths[p]
		methods := make([]string, 0, len(ops))
		for m := range ops {
			if httpMethods[strings.ToLower(m)] {
				methods = append(methods, m)
			}
		}
		sort.Strings(methods)
		for _, m := range methods {
			op := ops[m]
			desc := op.Summary
			if desc == "" {
				desc = op.Description
			}
			out = append(out, types.APIEndpoint{
				EndpointID:  uuid.NewString(),
				ServiceID:   serviceID,
				RepoID:      repoID,
				APIType:     types.APITypeREST,
				Path:        p,
				Method:      strings.ToUpper(m),
				Deprecated:  op.Deprecated,
				Description: desc,
				Tags:        op.Tags,
			})
		}
	}
	return out
}

// LinkImplementations fills ImplementationChunkID on endpoints whose
// implementation file has a chunk covering the declaration line. An
// endpoint gets at most one implementation link.
func LinkImplementations(endpoints []types.APIEndpoint, chunks []types.Chunk) {
	byFile := make(map[string][]*types.Chunk)
	for i := range chunks {
		c := &chunks[i]
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}
	for i := range endpoints {
		e := &endpoints[i]
		if e.ImplementationFile == "" || e.ImplementationLine == 0 {
			continue
		}
		for _, c := range byFile[e.ImplementationFile] {
			if c.ChunkType == types.ChunkTypeFileSummary {
				continue
			}
			if c.StartLine <= e.ImplementationLine && e.ImplementationLine <= c.EndLine {
				e.ImplementationChunkID = c.ChunkID
				if len(c.Metadata.FunctionNames) > 0 {
					e.ImplementationFunc = c.Metadata.FunctionNames[0]
				}
				break
			}
		}
	}
}

// Descriptor builds the text embedded for an endpoint (method, path,
// type, description, tags), so semantic API search has more signal
// than the bare path.
func Descriptor(e types.APIEndpoint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s (%s)", e.Method, e.Path, e.APIType)
	if e.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Description)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(e.Tags, ", "))
	}
	if e.Deprecated {
		sb.WriteString(" (deprecated)")
	}
	return sb.String()
}

// IsSpecFile reports whether path is an API spec document (proto,
// GraphQL SDL, OpenAPI/Swagger) rather than implementation code.
func IsSpecFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	switch filepath.Ext(base) {
	case ".proto", ".graphql", ".gql":
		return true
	}
	return strings.Contains(base, "openapi") || strings.Contains(base, "swagger")
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func lineOf(text, needle string) int {
	idx := strings.Index(text, needle)
	if idx < 0 {
		return 0
	}
	return strings.Count(text[:idx], "\n") + 1
}
