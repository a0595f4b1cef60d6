package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/quillmesh"
	"github.com/hupe1980/quillmesh/core"
)

func newRunCmd() *cobra.Command {
	var (
		req      quillmesh.Request
		outFile  string
		asJSON   bool
		noEditor bool
	)

	cmd := &cobra.Command{
		Use:   "run TOPIC",
		Short: "Generate one blog post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}

			cfg := a.cfg
			if noEditor {
				cfg.EditorEnabled = false
			}

			q, err := quillmesh.New(cfg, func(o *quillmesh.Options) { o.Logger = a.logger })
			if err != nil {
				return err
			}

			req.Topic = strings.Join(args, " ")
			st, runErr := q.Runner().Run(cmd.Context(), req.State())
			if st == nil {
				return runErr
			}

			out, closeOut, err := openOutput(cmd, outFile)
			if err != nil {
				return err
			}
			defer closeOut()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(st); err != nil {
					return err
				}
				return runErr
			}

			if runErr != nil {
				printErrors(cmd.ErrOrStderr(), st)
				return runErr
			}

			post, err := q.Post(st.RunID)
			if err != nil {
				return err
			}
			_, err = out.Write(post)
			return err
		},
	}

	cmd.Flags().StringVar(&req.Audience, "audience", "", "target audience (default: general)")
	cmd.Flags().StringVar(&req.Tone, "tone", "", "writing tone (default: professional)")
	cmd.Flags().IntVar(&req.TargetLength, "words", 0, "target length in words (default: 500)")
	cmd.Flags().StringVar(&req.Requirements, "requirements", "", "additional requirements for the post")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the final run state as JSON")
	cmd.Flags().BoolVar(&noEditor, "no-editor", false, "skip the editor review")

	return cmd
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func printErrors(w io.Writer, st *core.State) {
	for _, rec := range st.ErrorLog {
		_, _ = fmt.Fprintf(w, "%s attempt %d (%s): %s\n", rec.Agent, rec.Attempt, rec.Kind, rec.Error)
	}
}
