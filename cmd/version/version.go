// Package versioncmder implements "kb version".
package versioncmder

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/utils"
)

// buildInfo is what kb version reports.
type buildInfo struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	BuildTime string `json:"build_time"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:   utils.Version,
		Sha:       utils.Sha,
		BuildTime: utils.Buildtime,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func NewVersionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the kb version",
		Long:  "Print the version, commit and build time of this kb binary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := currentBuild()
			out := cmd.OutOrStdout()

			switch {
			case short:
				fmt.Fprintln(out, info.Version)
				return nil
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			printInfo(out, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build details as JSON")
	cmd.MarkFlagsMutuallyExclusive("short", "json")

	return cmd
}

func printInfo(w io.Writer, info buildInfo) {
	rows := [][2]string{
		{"Version:", info.Version},
		{"Commit:", info.Sha},
		{"Built:", info.BuildTime},
		{"Go:", info.Go},
		{"Platform:", info.Platform},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-9s", r[0])), r[1])
	}
}
