package main

import (
	"context"
	"fmt"
	"os"

	kbcmder "github.com/papercomputeco/kbconsole/cmd/kb"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
)

func main() {
	cmd := kbcmder.NewKBCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
