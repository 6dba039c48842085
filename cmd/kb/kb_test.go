package kbcmder_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	kbcmder "github.com/papercomputeco/kbconsole/cmd/kb"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/history"
	"github.com/papercomputeco/kbconsole/pkg/upload"
	testutils "github.com/papercomputeco/kbconsole/pkg/utils/test"
)

var _ = Describe("kb", func() {
	var (
		kb        *testutils.FakeKB
		configDir string
		workDir   string
	)

	// run executes kb with args against the temp config dir and returns the
	// combined output.
	run := func(stdin string, args ...string) (string, error) {
		cmd := kbcmder.NewKBCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(append(args, "--config-dir", configDir))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	writeFile := func(name, content string) string {
		path := filepath.Join(workDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		kb = testutils.NewFakeKB()
		DeferCleanup(kb.Close)

		configDir = GinkgoT().TempDir()
		workDir = GinkgoT().TempDir()

		_, err := run("", "config", "set", "client.api_target", kb.URL)
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers every subcommand", func() {
		cmd := kbcmder.NewKBCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"chat", "docs", "upload", "bulk-upload", "watch",
			"prompt", "history", "mcp", "config", "version",
		))
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("log-file")).NotTo(BeNil())
	})

	Describe("config", func() {
		It("reads back a value it set", func() {
			out, err := run("", "config", "get", "client.api_target")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(kb.URL))
			Expect(filepath.Join(configDir, "config.toml")).To(BeARegularFile())
		})

		It("lists every key", func() {
			out, err := run("", "config", "list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("upload.default_type"))
			Expect(out).To(ContainSubstring("<not set>"))
		})

		It("rejects invalid values and unknown keys", func() {
			_, err := run("", "config", "set", "upload.default_type", "audio")
			Expect(err).To(HaveOccurred())

			_, err = run("", "config", "set", "client.timeout", "soon")
			Expect(err).To(HaveOccurred())

			_, err = run("", "config", "get", "proxy.provider")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("restores a default with unset", func() {
			_, err := run("", "config", "set", "upload.workers", "3")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("", "config", "unset", "upload.workers")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("reset to"))

			out, err = run("", "config", "get", "upload.workers")
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.TrimSpace(out)).To(Equal("1"))
		})

		It("describes keys with list --verbose", func() {
			out, err := run("", "config", "list", "--verbose")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Capacity of the pending upload queue"))
		})
	})

	Describe("docs", func() {
		BeforeEach(func() {
			kb.Add(client.Document{Filename: "handbook.pdf", Title: "Employee Handbook", Type: client.TypeDocument, Tags: []string{"hr"}}, "pdf bytes")
			kb.Add(client.Document{Filename: "allhands.mp4", Title: "All Hands", Type: client.TypeVideo}, "video bytes")
		})

		It("lists documents", func() {
			out, err := run("", "docs", "list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Employee Handbook"))
			Expect(out).To(ContainSubstring("All Hands"))
			Expect(out).To(ContainSubstring("2 document(s)"))
		})

		It("filters by type", func() {
			out, err := run("", "docs", "list", "--type", "video")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("All Hands"))
			Expect(out).NotTo(ContainSubstring("Employee Handbook"))
		})

		It("prints JSON", func() {
			out, err := run("", "docs", "list", "--json", "--tag", "hr")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(`"filename": "handbook.pdf"`))
			Expect(out).NotTo(ContainSubstring("allhands.mp4"))
		})

		It("downloads a document", func() {
			dest := filepath.Join(workDir, "copy.pdf")
			_, err := run("", "docs", "download", "handbook.pdf", "-o", dest)
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(dest)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("pdf bytes"))
		})

		It("deletes once and reports the second delete as not found", func() {
			out, err := run("", "docs", "delete", "handbook.pdf", "--yes")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Deleted"))
			Expect(kb.Has("handbook.pdf")).To(BeFalse())

			out, err = run("", "docs", "delete", "handbook.pdf", "--yes")
			Expect(err).To(MatchError("1 of 1 deletions failed"))
			Expect(out).To(ContainSubstring("not found"))

			out, err = run("", "docs", "list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(ContainSubstring("Employee Handbook"))
		})

		It("keeps the document when the prompt is declined", func() {
			out, err := run("n\n", "docs", "delete", "handbook.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Aborted."))
			Expect(kb.Has("handbook.pdf")).To(BeTrue())
		})
	})

	Describe("upload", func() {
		It("uploads a file with metadata from flags", func() {
			path := writeFile("release_notes.md", "# Notes")

			out, err := run("", "upload", path, "--tag", "eng", "--category", "docs")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Uploaded release_notes.md"))
			Expect(out).To(ContainSubstring("complete"))

			Expect(kb.Has("release_notes.md")).To(BeTrue())
			Expect(kb.Form()).To(HaveKeyWithValue("title", []string{"release notes"}))
			Expect(kb.Form()).To(HaveKeyWithValue("category", []string{"docs"}))
		})

		It("rejects an oversized file before contacting the server", func() {
			path := filepath.Join(workDir, "huge.bin")
			f, err := os.Create(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Truncate(upload.MaxFileSize + 1)).To(Succeed())
			Expect(f.Close()).To(Succeed())

			before := kb.Requests()
			_, err = run("", "upload", path)
			Expect(err).To(MatchError(upload.ErrFileTooLarge))
			Expect(kb.Requests()).To(Equal(before))
		})

		It("bulk uploads the files in a directory", func() {
			writeFile("a.txt", "alpha")
			writeFile("b.txt", "beta")
			writeFile(".hidden", "skip me")

			out, err := run("", "bulk-upload", workDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("2 files"))
			Expect(kb.Has("a.txt")).To(BeTrue())
			Expect(kb.Has("b.txt")).To(BeTrue())
			Expect(kb.Has(".hidden")).To(BeFalse())
		})
	})

	Describe("prompt", func() {
		It("gets, sets and resets the system prompt", func() {
			out, err := run("", "prompt", "get")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(testutils.DefaultPrompt))
			Expect(out).To(ContainSubstring("(server default)"))

			_, err = run("Answer in one sentence.\n", "prompt", "set")
			Expect(err).NotTo(HaveOccurred())
			Expect(kb.Prompt()).To(Equal("Answer in one sentence.\n"))

			_, err = run("", "prompt", "reset")
			Expect(err).NotTo(HaveOccurred())
			Expect(kb.Prompt()).To(Equal(testutils.DefaultPrompt))
		})

		It("reads the prompt from a file", func() {
			path := writeFile("prompt.md", "Cite your sources.")
			_, err := run("", "prompt", "set", "--file", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(kb.Prompt()).To(Equal("Cite your sources."))
		})

		It("refuses an empty prompt", func() {
			before := kb.Requests()
			_, err := run("  \n", "prompt", "set")
			Expect(err).To(MatchError(ContainSubstring("empty system prompt")))
			Expect(kb.Requests()).To(Equal(before))
			Expect(kb.Prompt()).To(Equal(testutils.DefaultPrompt))
		})
	})

	Describe("chat", func() {
		It("answers a one-shot question and records it", func() {
			out, err := run("", "chat", "what", "is", "new?")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("echo: what is new?"))

			store, err := history.NewStore(filepath.Join(configDir, "history.db"))
			Expect(err).NotTo(HaveOccurred())
			sessions, err := store.List(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Close()).To(Succeed())

			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].Title).To(Equal("what is new?"))
			Expect(sessions[0].MessageCount).To(Equal(2))

			out, err = run("", "history", "list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("what is new?"))

			out, err = run("", "history", "show", sessions[0].ID[:8])
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("echo: what is new?"))

			_, err = run("", "history", "delete", sessions[0].ID)
			Expect(err).NotTo(HaveOccurred())
			out, err = run("", "history", "list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No sessions recorded yet."))
		})

		It("prints sources after the answer", func() {
			kb.SetStream(
				"data: {\"type\":\"sources\",\"sources\":[{\"title\":\"Handbook\",\"filename\":\"handbook.pdf\",\"relevance_score\":0.8}]}\n" +
					"data: {\"type\":\"content\",\"content\":\"Ten days.\"}\n" +
					"data: {\"type\":\"done\"}\n")

			out, err := run("", "chat", "--no-history", "how much leave?")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Ten days."))
			Expect(out).To(ContainSubstring("Sources:"))
			Expect(out).To(ContainSubstring("Handbook"))
			Expect(out).To(ContainSubstring("80%"))
			Expect(filepath.Join(configDir, "history.db")).NotTo(BeAnExistingFile())
		})

		It("fails a one-shot question when the stream reports an error", func() {
			kb.SetStream("data: {\"type\":\"error\",\"error\":\"model offline\"}\n")

			out, err := run("", "chat", "--no-history", "hello")
			Expect(err).To(MatchError(ContainSubstring("model offline")))
			Expect(out).To(ContainSubstring("model offline"))
		})

		It("keeps the session going across turns and slash commands", func() {
			out, err := run("first\n/sources\n/bogus\nsecond\n/exit\n", "chat", "--no-history")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("echo: first"))
			Expect(out).To(ContainSubstring("echo: second"))
			Expect(out).To(ContainSubstring("unknown command /bogus"))
		})

		It("leaves the idle prompt when interrupted", func() {
			stdin, _ := io.Pipe()
			DeferCleanup(stdin.Close)

			cmd := kbcmder.NewKBCmd()
			out := gbytes.NewBuffer()
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetIn(stdin)
			cmd.SetArgs([]string{"chat", "--no-history", "--config-dir", configDir})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- cmd.ExecuteContext(ctx) }()

			Eventually(out).Should(gbytes.Say("you>"))
			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("resumes a stored session", func() {
			_, err := run("", "chat", "remember this")
			Expect(err).NotTo(HaveOccurred())

			store, err := history.NewStore(filepath.Join(configDir, "history.db"))
			Expect(err).NotTo(HaveOccurred())
			sessions, err := store.List(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Close()).To(Succeed())
			Expect(sessions).To(HaveLen(1))

			out, err := run("", "chat", "--resume", sessions[0].ID[:6], "and this")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Resuming"))
			Expect(out).To(ContainSubstring("(2 messages)"))
		})
	})

	It("prints the version", func() {
		out, err := run("", "version", "--short")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(out)).To(Equal("dev"))

		out, err = run("", "version", "--json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`"version": "dev"`))
		Expect(out).To(ContainSubstring(`"platform":`))

		_, err = run("", "version", "--short", "--json")
		Expect(err).To(HaveOccurred())
	})
})
