package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gianged/cindex/internal/backend"
	"github.com/gianged/cindex/internal/config"
	"github.com/gianged/cindex/internal/indexing"
	"github.com/gianged/cindex/internal/parse"
	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/types"
)

// env bundles the opened store, backend client and config for one CLI
// invocation.
type env struct {
	cfg      *config.Config
	store    *store.Store
	docIndex *store.DocIndex
	client   backend.Client
}

func openEnv(cmd *cobra.Command) (*env, error) {
	configDir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store.Path, cfg.Embedding.Dimensions, cfg.Store.MaxConnections)
	if err != nil {
		return nil, err
	}
	docIndex, err := store.OpenDocIndex(filepath.Join(filepath.Dir(cfg.Store.Path), "docindex"))
	if err != nil {
		st.Close()
		return nil, err
	}
	client := backend.New(cfg.Embedding.BackendHost,
		time.Duration(cfg.Embedding.BackendTimeoutSec)*time.Second, cfg.Embedding.RetryCount)
	return &env{cfg: cfg, store: st, docIndex: docIndex, client: client}, nil
}

func (e *env) close() {
	_ = e.client.Close()
	_ = e.docIndex.Close()
	_ = e.store.Close()
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newIndexCmd() *cobra.Command {
	var repoID, name, kind, version string
	var force bool

	cmd := &cobra.Command{
		Use:   "index <repo-path>",
		Short: "Index or re-index a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
			orch := indexing.New(e.store, e.client, parse.DefaultRegistry(), e.cfg, nil)
			stats, err := orch.IndexRepository(cmd.Context(), indexing.Options{
				RepoPath:     args[0],
				RepoID:       repoID,
				Name:         name,
				Kind:         types.RepoKind(kind),
				Version:      version,
				ForceReindex: force,
				Progress: func(p indexing.Progress) {
					bar.Describe(fmt.Sprintf("%s %s", p.Stage, p.Message))
					if p.Total > 0 {
						bar.ChangeMax(p.Total)
						_ = bar.Set(p.Current)
					}
				},
			})
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	cmd.Flags().StringVar(&repoID, "repo-id", "", "stable repository ID (defaults to the root basename)")
	cmd.Flags().StringVar(&name, "name", "", "human-readable name")
	cmd.Flags().StringVar(&kind, "kind", "monolithic", "repository kind")
	cmd.Flags().StringVar(&version, "version", "", "version tag")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the incremental skip")
	return cmd
}

func newIndexDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index-docs <path>...",
		Short: "Index markdown documentation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			di := indexing.NewDocIndexer(e.store, e.docIndex, e.client, e.cfg, nil)
			stats, err := di.IndexDocumentation(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

func newSearchCmd() *cobra.Command {
	var topFiles int
	var references bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run the nine-stage retrieval pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			pipeline, err := retrieval.New(e.store, e.client, e.cfg, e.docIndex, nil)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			opts := retrieval.SearchOptions{TopFiles: topFiles}
			var result *retrieval.Context
			if references {
				result, err = pipeline.SearchReferences(cmd.Context(), args[0], opts)
			} else {
				result, err = pipeline.Search(cmd.Context(), args[0], opts)
			}
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().IntVar(&topFiles, "top-files", 10, "stage 2 top-K files")
	cmd.Flags().BoolVar(&references, "references", false, "search reference/documentation repos instead")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <repos|workspaces|services|docs>",
		Short: "Enumerate indexed entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			switch args[0] {
			case "repos":
				repos, err := e.store.ListRepositories()
				if err != nil {
					return err
				}
				return printJSON(repos)
			case "workspaces":
				workspaces, err := e.store.ListAllWorkspaces()
				if err != nil {
					return err
				}
				return printJSON(workspaces)
			case "services":
				services, err := e.store.ListAllServices()
				if err != nil {
					return err
				}
				return printJSON(services)
			case "docs":
				files, err := e.store.ListDocumentationFiles()
				if err != nil {
					return err
				}
				return printJSON(files)
			default:
				return fmt.Errorf("unknown entity %q (want repos, workspaces, services or docs)", args[0])
			}
		},
	}
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "delete <repo-id>...",
		Short: "Delete repositories and all their indexed data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("delete is destructive; re-run with --confirm")
			}
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			for _, id := range args {
				if err := e.store.DeleteRepository(id); err != nil {
					return err
				}
				fmt.Printf("deleted %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm deletion")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var repoID, kind string
	cmd := &cobra.Command{
		Use:   "watch <repo-path>",
		Short: "Watch a repository and re-index incrementally on change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			orch := indexing.New(e.store, e.client, parse.DefaultRegistry(), e.cfg, nil)
			opts := indexing.Options{RepoPath: args[0], RepoID: repoID, Kind: types.RepoKind(kind)}

			// An initial run so the watcher starts from a fresh index.
			if _, err := orch.IndexRepository(cmd.Context(), opts); err != nil {
				return err
			}
			w := indexing.NewWatcher(orch, opts, 2*time.Second)
			err = w.Run(cmd.Context())
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&repoID, "repo-id", "", "stable repository ID")
	cmd.Flags().StringVar(&kind, "kind", "monolithic", "repository kind")
	return cmd
}
