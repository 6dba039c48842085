// Package watchcmder provides the watch command, which uploads files as they
// appear in a local folder.
package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
	"github.com/papercomputeco/kbconsole/pkg/watch"
)

type watchCommander struct {
	flags struct {
		apiTarget string
		timeout   string
		docType   string
		workers   uint
		queueSize uint
	}
	existing bool
	settle   time.Duration
	category string
	tags     []string
}

var watchFlags = []string{
	config.FlagAPITarget,
	config.FlagTimeout,
	config.FlagDocType,
	config.FlagWorkers,
	config.FlagQueueSize,
}

const watchLongDesc string = `Watch a folder and upload files as they appear.

New or rewritten files are uploaded once they have gone --settle without
further writes. Hidden files, editor backups and partial downloads are
ignored, as are files above 1.5 GiB. Uploads run on a small worker pool,
one at a time by default.

Stop with Ctrl+C: queued uploads are finished first. A second Ctrl+C
cancels them.

Examples:
  kb watch ./inbox
  kb watch ./recordings --type video --tag all-hands
  kb watch ./inbox --existing --workers 2`

const watchShortDesc string = "Upload files dropped into a folder"

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Load(cmd, watchFlags...)
			if err != nil {
				return err
			}
			defer env.Close()

			kb, err := env.Client()
			if err != nil {
				return err
			}

			cfg := env.Config.Upload
			var uploaded, failed atomic.Int64
			out := cmd.OutOrStdout()

			pool, err := watch.NewPool(&watch.PoolConfig{
				Uploader:   kb,
				NumWorkers: cfg.Workers,
				QueueSize:  cfg.QueueSize,
				Logger:     env.Logger,
				OnResult: func(r watch.Result) {
					if r.Err != nil {
						failed.Add(1)
						fmt.Fprintf(out, "  %s %s %s\n", cliui.FailMark, r.Job.Path, cliui.ErrorStyle.Render(r.Err.Error()))
						return
					}
					uploaded.Add(1)
					fmt.Fprintf(out, "  %s %s\n", cliui.SuccessMark, cliui.NameStyle.Render(r.Upload.Filename))
				},
			})
			if err != nil {
				return err
			}

			w, err := watch.New(watch.Config{
				Dir:         args[0],
				Pool:        pool,
				DefaultType: cfg.DefaultType,
				Tags:        cmder.tags,
				Category:    cmder.category,
				Existing:    cmder.existing,
				Settle:      cmder.settle,
				Logger:      env.Logger,
			})
			if err != nil {
				pool.Close()
				return err
			}

			fmt.Fprintf(out, "  %s Watching %s %s\n", cliui.DimStyle.Render("●"),
				cliui.NameStyle.Render(args[0]), cliui.DimStyle.Render("(Ctrl+C to stop)"))

			runErr := cmder.run(cmd.Context(), w, pool)

			printSummary(out, uploaded.Load(), failed.Load(), w.Skipped())
			return runErr
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.flags.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.flags.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagDocType, &cmder.flags.docType)
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.flags.workers)
	config.AddUintFlag(cmd, config.Flags, config.FlagQueueSize, &cmder.flags.queueSize)
	cmd.Flags().BoolVar(&cmder.existing, "existing", false, "Also upload files already in the folder")
	cmd.Flags().DurationVar(&cmder.settle, "settle", watch.DefaultSettle, "Quiet period before a file is uploaded")
	cmd.Flags().StringVar(&cmder.category, "category", "", "Category applied to every upload")
	cmd.Flags().StringSliceVar(&cmder.tags, "tag", nil, "Tag applied to every upload (repeatable)")

	return cmd
}

// run watches until the first interrupt, then drains the pool. A second
// interrupt aborts the in-flight uploads.
func (c *watchCommander) run(ctx context.Context, w *watch.Watcher, pool *watch.Pool) error {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	watchCtx, stop := context.WithCancel(ctx)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(watchCtx)
	}()

	var err error
	select {
	case <-signals:
		stop()
		err = <-errCh
	case err = <-errCh:
	}

	drained := make(chan struct{})
	go func() {
		pool.Close()
		close(drained)
	}()

	select {
	case <-drained:
	case <-signals:
		pool.Cancel()
		<-drained
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printSummary(w io.Writer, uploaded, failed int64, skipped int) {
	var err error
	if failed > 0 {
		err = errors.New("failed uploads")
	}
	fmt.Fprintf(w, "\n  %s %d uploaded, %d failed, %d skipped\n",
		cliui.Mark(err), uploaded, failed, skipped)
}
