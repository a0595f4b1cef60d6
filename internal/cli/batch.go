package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/quillmesh"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// batchFile is the YAML layout accepted by the batch command.
type batchFile struct {
	Posts []quillmesh.Request `yaml:"posts"`
}

func newBatchCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Generate the posts listed in a YAML file in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}

			reqs, err := readBatchFile(args[0])
			if err != nil {
				return err
			}

			q, err := quillmesh.New(a.cfg, func(o *quillmesh.Options) { o.Logger = a.logger })
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			results := q.GenerateBatch(cmd.Context(), reqs)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TOPIC\tSTATUS\tOUTPUT")

			failed := 0
			for i, res := range results {
				if res.Err != nil {
					failed++
					_, _ = fmt.Fprintf(tw, "%s\tfailed\t%s\n", reqs[i].Topic, res.Err)
					continue
				}

				post, err := q.Post(res.State.RunID)
				if err != nil {
					return err
				}

				path := filepath.Join(outDir, Slug(reqs[i].Topic)+".md")
				if err := os.WriteFile(path, post, 0o644); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(tw, "%s\tcompleted\t%s\n", reqs[i].Topic, path)
			}

			if err := tw.Flush(); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d posts failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "posts", "directory receiving the generated posts")

	return cmd
}

func readBatchFile(path string) ([]quillmesh.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(bf.Posts) == 0 {
		return nil, fmt.Errorf("%s lists no posts", path)
	}
	return bf.Posts, nil
}

// Slug turns a topic into a file name.
func Slug(topic string) string {
	s := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(topic), "-"), "-")
	if s == "" {
		return "post"
	}
	return s
}
