package cliui_test

import (
	"bytes"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/stream"
	"github.com/papercomputeco/kbconsole/pkg/upload"
)

var _ = Describe("formatting", func() {
	DescribeTable("FormatDuration",
		func(d time.Duration, want string) {
			Expect(cliui.FormatDuration(d)).To(Equal(want))
		},
		Entry("milliseconds", 12*time.Millisecond, "12ms"),
		Entry("seconds", 3200*time.Millisecond, "3.2s"),
		Entry("minutes", 95*time.Second+400*time.Millisecond, "1m35s"),
	)

	It("formats byte counts in binary units", func() {
		Expect(cliui.FormatBytes(1_610_612_736)).To(Equal("1.5 GiB"))
		Expect(cliui.FormatBytes(-4)).To(Equal("0 B"))
	})

	It("shows a dash for unknown times", func() {
		Expect(cliui.FormatTime(time.Time{})).To(Equal("-"))
		Expect(cliui.FormatTime(time.Now().Add(-3 * time.Hour))).To(Equal("3 hours ago"))
	})

	It("truncates with an ellipsis", func() {
		Expect(cliui.Truncate("quarterly report", 10)).To(Equal("quarterly…"))
		Expect(cliui.Truncate("short", 10)).To(Equal("short"))
	})
})

var _ = Describe("Step", func() {
	It("prints a single result line when not on a terminal", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "Downloading notes.pdf", func() error { return nil })

		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(buf.String(), "\n")).To(Equal(1))
		Expect(buf.String()).To(ContainSubstring("✓ Downloading notes.pdf ("))
	})

	It("returns the error from fn and marks the step failed", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")

		Expect(cliui.Step(&buf, "Deleting", func() error { return boom })).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("✗ Deleting"))
	})
})

var _ = Describe("Mark", func() {
	It("picks the mark from the error", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})
})

var _ = Describe("Sources", func() {
	It("prints nothing without sources", func() {
		var buf bytes.Buffer
		cliui.Sources(&buf, nil)
		Expect(buf.Len()).To(BeZero())
	})

	It("numbers citations with score, page and video segments", func() {
		var buf bytes.Buffer
		cliui.Sources(&buf, []stream.Source{
			{Title: "Handbook", Filename: "handbook.pdf", RelevanceScore: 0.82, Page: 4, Summary: "Leave policy."},
			{Title: "Onboarding", Filename: "onboarding.mp4", Type: "video", Timestamps: []stream.Timestamp{{Start: 65, End: 90}}},
		})

		out := buf.String()
		Expect(out).To(ContainSubstring("[1]"))
		Expect(out).To(ContainSubstring("Handbook"))
		Expect(out).To(ContainSubstring("handbook.pdf 82% p.4"))
		Expect(out).To(ContainSubstring("Leave policy."))
		Expect(out).To(ContainSubstring("onboarding.mp4"))
		Expect(out).To(ContainSubstring("1:05-1:30"))
	})
})

var _ = Describe("ProgressLine", func() {
	It("shows bytes and stage", func() {
		bar := cliui.NewProgressBar(20)
		line := cliui.ProgressLine(bar, upload.State{
			Stage: upload.StageUploading, Percent: 45, Sent: 512, Total: 1024,
		})
		Expect(line).To(ContainSubstring("512 B / 1.0 KiB"))
		Expect(line).To(ContainSubstring("uploading"))
	})

	It("appends the failure", func() {
		line := cliui.ProgressLine(cliui.NewProgressBar(20), upload.State{
			Stage: upload.StageFailed, Err: errors.New("413 too large"),
		})
		Expect(line).To(ContainSubstring("failed"))
		Expect(line).To(ContainSubstring("413 too large"))
	})

	It("labels server processing", func() {
		Expect(cliui.StageLabel(upload.StageQueued)).To(Equal("processing"))
		Expect(cliui.StageLabel(upload.Stage("custom"))).To(Equal("custom"))
	})
})
