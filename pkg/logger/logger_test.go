package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kbconsole/pkg/logger"
)

// decodeLines parses JSON log output, one record per line.
func decodeLines(buf *bytes.Buffer) []map[string]any {
	var records []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed())
		records = append(records, rec)
	}
	return records
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes text at Info by default", func() {
		l := logger.New(logger.WithWriter(buf))
		l.Debug("dropped line")
		l.Info("upload queued", "path", "a.pdf")

		Expect(buf.String()).NotTo(ContainSubstring("dropped line"))
		Expect(buf.String()).To(ContainSubstring("msg=\"upload queued\""))
		Expect(buf.String()).To(ContainSubstring("path=a.pdf"))
	})

	It("lowers the level with WithDebug", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithDebug(true))
		l.Debug("skipping malformed stream line")
		Expect(buf.String()).To(ContainSubstring("skipping malformed stream line"))
	})

	It("does not raise the level with WithDebug(false)", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithLevel(slog.LevelDebug), logger.WithDebug(false))
		Expect(l.Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
	})

	It("honors WithLevel", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithLevel(slog.LevelWarn))
		l.Info("quiet")
		l.Warn("loud")
		Expect(buf.String()).NotTo(ContainSubstring("quiet"))
		Expect(buf.String()).To(ContainSubstring("loud"))
	})

	It("writes JSON records", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true))
		l.Info("file uploaded", "chunks", 3)

		records := decodeLines(buf)
		Expect(records).To(HaveLen(1))
		Expect(records[0]).To(HaveKeyWithValue("msg", "file uploaded"))
		Expect(records[0]).To(HaveKeyWithValue("chunks", BeNumerically("==", 3)))
	})

	It("prefers JSON over pretty regardless of option order", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithPretty(true))
		l.Info("structured")
		Expect(decodeLines(buf)).To(HaveLen(1))
	})

	It("writes pretty output with a prefix", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithPretty(true), logger.WithPrefix("kb"))
		l.Warn("chat history disabled", "error", "locked")
		Expect(buf.String()).To(ContainSubstring("kb"))
		Expect(buf.String()).To(ContainSubstring("chat history disabled"))
		Expect(buf.String()).To(ContainSubstring("locked"))
	})

	It("adds the source location with WithSource", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithSource(true))
		l.Info("where")
		Expect(decodeLines(buf)[0]).To(HaveKey("source"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		l := logger.Nop()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
			Expect(l.Enabled(context.Background(), level)).To(BeFalse())
		}
		Expect(func() { l.With("k", "v").WithGroup("g").Error("nothing") }).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("lets each logger keep its own level", func() {
		term, file := &bytes.Buffer{}, &bytes.Buffer{}
		l := logger.Multi(
			logger.New(logger.WithWriter(term)),
			logger.New(logger.WithWriter(file), logger.WithJSON(true), logger.WithDebug(true)),
		)

		l.Debug("dropped malformed stream lines", "count", 2)
		l.Info("watching folder", "dir", "/inbox")

		Expect(term.String()).NotTo(ContainSubstring("dropped malformed"))
		Expect(term.String()).To(ContainSubstring("watching folder"))
		Expect(decodeLines(file)).To(HaveLen(2))
	})

	It("carries attributes and groups to every logger", func() {
		a, b := &bytes.Buffer{}, &bytes.Buffer{}
		l := logger.Multi(
			logger.New(logger.WithWriter(a), logger.WithJSON(true)),
			logger.New(logger.WithWriter(b), logger.WithJSON(true)),
		)

		l.With("session", "3f2a").WithGroup("upload").Info("done", "file", "a.pdf")

		for _, buf := range []*bytes.Buffer{a, b} {
			rec := decodeLines(buf)[0]
			Expect(rec).To(HaveKeyWithValue("session", "3f2a"))
			Expect(rec).To(HaveKeyWithValue("upload", HaveKeyWithValue("file", "a.pdf")))
		}
	})

	It("keeps writing when one handler fails", func() {
		buf := &bytes.Buffer{}
		good := logger.New(logger.WithWriter(buf), logger.WithJSON(true))
		bad := slog.New(failingHandler{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})

		multi := logger.Multi(bad, good)
		err := multi.Handler().Handle(context.Background(), slog.NewRecord(
			time.Time{}, slog.LevelInfo, "still written", 0))

		Expect(err).To(MatchError("disk full"))
		Expect(buf.String()).To(ContainSubstring("still written"))
	})

	It("skips nil loggers", func() {
		buf := &bytes.Buffer{}
		l := logger.Multi(nil, logger.New(logger.WithWriter(buf)))
		l.Info("ok")
		Expect(buf.String()).To(ContainSubstring("ok"))
	})
})
