package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"segrec/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved segment files",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())

			entries, err := os.ReadDir(deps.Config.DocumentsDir)
			if err != nil {
				if os.IsNotExist(err) {
					formatter.Info("No segments found")
					return nil
				}
				return err
			}

			var files []os.FileInfo
			for _, e := range entries {
				if e.IsDir() || !isSegmentFile(e.Name()) {
					continue
				}
				info, err := e.Info()
				if err != nil {
					continue
				}
				files = append(files, info)
			}

			if len(files) == 0 {
				formatter.Info("No segments found")
				return nil
			}

			// Newest first; names break ties so equal mtimes stay stable.
			sort.Slice(files, func(i, j int) bool {
				if files[i].ModTime().Equal(files[j].ModTime()) {
					return files[i].Name() > files[j].Name()
				}
				return files[i].ModTime().After(files[j].ModTime())
			})

			formatter.SegmentListHeader()
			for _, f := range files {
				formatter.FileListItem(f.Name(), f.Size(), f.ModTime())
			}
			formatter.Info("Directory: " + filepath.Clean(deps.Config.DocumentsDir))

			return nil
		},
	}

	return cmd
}

func isSegmentFile(name string) bool {
	return strings.HasPrefix(name, "recording_") && strings.HasSuffix(name, ".m4a")
}
