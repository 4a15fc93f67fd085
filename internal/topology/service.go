package topology

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gianged/cindex/internal/types"
)

// ServiceTopology is the result of service detection for one repo.
type ServiceTopology struct {
	Services []types.Service
	// FileService maps repo-relative file paths to the service that
	// owns them, for code_files.service_id linkage.
	FileService map[string]string
}

// DetectServices infers service boundaries for a repository from
// docker-compose manifests, serverless manifests, and directory
// layout. files are the repo-relative paths that survived discovery.
func DetectServices(root, repoID string, files []string) (*ServiceTopology, error) {
	topo := &ServiceTopology{FileService: map[string]string{}}

	composeServices := loadComposeServices(root)
	if len(composeServices) > 0 {
		for _, name := range composeServices {
			svc := types.Service{
				ServiceID: uuid.NewString(),
				RepoID:    repoID,
				Name:      name,
				Kind:      types.ServiceKindDocker,
			}
			dir := serviceDirFor(root, name)
			for _, f := range files {
				if dir != "" && strings.HasPrefix(f, dir+"/") {
					svc.Files = append(svc.Files, f)
					topo.FileService[f] = svc.ServiceID
				}
			}
			topo.Services = append(topo.Services, svc)
		}
		return topo, nil
	}

	// Directory-layout fallback: services/<name> or apps/<name>
	// directories each become a boundary.
	for _, parent := range []string{"services", "apps"} {
		entries, err := os.ReadDir(filepath.Join(root, parent))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dir := parent + "/" + e.Name()
			svc := types.Service{
				ServiceID: uuid.NewString(),
				RepoID:    repoID,
				Name:      e.Name(),
				Kind:      serviceKindFor(root, dir),
			}
			for _, f := range files {
				if strings.HasPrefix(f, dir+"/") {
					svc.Files = append(svc.Files, f)
					topo.FileService[f] = svc.ServiceID
				}
			}
			if len(svc.Files) > 0 {
				topo.Services = append(topo.Services, svc)
			}
		}
	}

	sort.Slice(topo.Services, func(i, j int) bool { return topo.Services[i].Name < topo.Services[j].Name })
	return topo, nil
}

// loadComposeServices returns service names from docker-compose.yml /
// compose.yml at the repo root: only services with a build entry,
// sorted by name for determinism.
func loadComposeServices(root string) []string {
	for _, name := range []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		var doc struct {
			Services map[string]struct {
				Build any `yaml:"build"`
			} `yaml:"services"`
		}
		if yaml.Unmarshal(data, &doc) != nil {
			continue
		}
		names := make([]string, 0, len(doc.Services))
		for n, svc := range doc.Services {
			// Only services built from this repo are boundaries here;
			// image-only entries (databases, brokers) are infrastructure.
			if svc.Build != nil {
				names = append(names, n)
			}
		}
		sort.Strings(names)
		return names
	}
	return nil
}

// serviceDirFor locates the source directory for a compose service,
// probing the conventional layouts.
func serviceDirFor(root, name string) string {
	for _, candidate := range []string{name, "services/" + name, "apps/" + name, "packages/" + name} {
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(candidate))); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

// serviceKindFor classifies a directory-layout service from its
// manifests: a Dockerfile means docker, serverless.yml means
// serverless, mobile project files mean mobile, and any other
// package.json means library; its contents are not inspected.
func serviceKindFor(root, dir string) types.ServiceKind {
	probe := func(name string) bool {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(dir), name))
		return err == nil
	}
	switch {
	case probe("Dockerfile"):
		return types.ServiceKindDocker
	case probe("serverless.yml") || probe("serverless.yaml"):
		return types.ServiceKindServerless
	case probe("app.json") || probe("Info.plist") || probe("AndroidManifest.xml"):
		return types.ServiceKindMobile
	case probe("package.json"):
		return types.ServiceKindLibrary
	default:
		return types.ServiceKindOther
	}
}
