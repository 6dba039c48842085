package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kbconsole/pkg/config"
)

var _ = Describe("File", func() {
	var (
		dir string
		f   *config.File
	)

	writeConfig := func(data string) {
		Expect(os.WriteFile(filepath.Join(dir, config.FileName), []byte(data), 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()

		var err error
		f, err = config.Open(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("points at config.toml in the directory", func() {
		Expect(f.Path()).To(Equal(filepath.Join(dir, "config.toml")))
		Expect(f.Exists()).To(BeFalse())
	})

	Describe("Load", func() {
		It("returns the defaults when there is no file", func() {
			cfg, err := f.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("reads every section", func() {
			writeConfig(`version = 0

[client]
api_target = "http://kb.internal:9000"
timeout = "45s"

[chat]
plain = true
history_turns = 2

[history]
disabled = true
sqlite_path = "/var/lib/kb/history.db"

[upload]
workers = 3
queue_size = 10
default_type = "video"
`)
			cfg, err := f.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(&config.Config{
				Client:  config.ClientConfig{APITarget: "http://kb.internal:9000", Timeout: "45s"},
				Chat:    config.ChatConfig{Plain: true, HistoryTurns: 2},
				History: config.HistoryConfig{Disabled: true, SQLitePath: "/var/lib/kb/history.db"},
				Upload:  config.UploadConfig{Workers: 3, QueueSize: 10, DefaultType: "video"},
			}))
			Expect(cfg.Client.TimeoutDuration().Seconds()).To(BeNumerically("==", 45))
		})

		It("keeps defaults for keys the file leaves out", func() {
			writeConfig("[upload]\nworkers = 4\n")

			cfg, err := f.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Upload.Workers).To(Equal(uint(4)))
			Expect(cfg.Upload.QueueSize).To(Equal(uint(64)))
			Expect(cfg.Client.APITarget).To(Equal("http://localhost:8000"))
		})

		It("rejects keys it does not know", func() {
			writeConfig("[client]\napi_target = \"http://kb:1\"\napi_key = \"secret\"\n\n[proxy]\nport = 1\n")

			_, err := f.Load()
			Expect(err).To(MatchError(ContainSubstring("unknown keys in config: client.api_key, proxy")))
		})

		It("rejects malformed TOML", func() {
			writeConfig("[[[ not toml")

			cfg, err := f.Load()
			Expect(err).To(MatchError(ContainSubstring("parsing config TOML")))
			Expect(cfg).To(BeNil())
		})

		It("rejects newer config versions", func() {
			writeConfig("version = 2\n")

			_, err := f.Load()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version 2")))
		})
	})

	Describe("Save", func() {
		It("round-trips through Load with owner-only permissions", func() {
			cfg := config.NewDefaultConfig()
			cfg.Chat.Plain = true
			cfg.History.SQLitePath = "/data/kb.db"
			Expect(f.Save(cfg)).To(Succeed())

			Expect(f.Exists()).To(BeTrue())
			info, err := os.Stat(f.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := f.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("leaves no temporary files behind", func() {
			Expect(f.Save(config.NewDefaultConfig())).To(Succeed())
			Expect(f.Save(config.NewDefaultConfig())).To(Succeed())

			entries, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal("config.toml"))
		})

		It("refuses a nil config", func() {
			Expect(f.Save(nil)).To(MatchError("cannot save nil config"))
		})
	})

	Describe("Get, Set and Unset", func() {
		It("persists values of every kind", func() {
			Expect(f.Set("client.api_target", "https://kb.example.com")).To(Succeed())
			Expect(f.Set("upload.workers", "4")).To(Succeed())
			Expect(f.Set("history.disabled", "true")).To(Succeed())

			cfg, err := f.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.APITarget).To(Equal("https://kb.example.com"))
			Expect(cfg.Upload.Workers).To(Equal(uint(4)))
			Expect(cfg.History.Disabled).To(BeTrue())

			Expect(f.Get("upload.workers")).To(Equal("4"))
		})

		It("returns defaults for keys never set", func() {
			Expect(f.Get("client.timeout")).To(Equal("10m"))
			Expect(f.Get("history.sqlite_path")).To(BeEmpty())
			Expect(f.Exists()).To(BeFalse())
		})

		It("restores the default on Unset", func() {
			Expect(f.Set("chat.history_turns", "1")).To(Succeed())
			Expect(f.Unset("chat.history_turns")).To(Succeed())
			Expect(f.Get("chat.history_turns")).To(Equal("6"))
		})

		It("does not write invalid values", func() {
			Expect(f.Set("client.timeout", "soon")).To(MatchError(ContainSubstring("invalid value for client.timeout")))
			Expect(f.Set("upload.default_type", "audio")).To(MatchError(ContainSubstring("expected document or video")))
			Expect(f.Set("client.api_target", "kb.internal:8000")).To(MatchError(ContainSubstring("not an http or https URL")))
			Expect(f.Set("upload.queue_size", "-1")).To(HaveOccurred())
			Expect(f.Exists()).To(BeFalse())
		})

		It("reports unknown keys", func() {
			var unknown *config.UnknownKeyError

			_, err := f.Get("proxy.provider")
			Expect(err).To(BeAssignableToTypeOf(unknown))
			Expect(err).To(MatchError(`unknown config key: "proxy.provider"`))
			Expect(f.Set("proxy.provider", "x")).To(MatchError(ContainSubstring("unknown config key")))
			Expect(f.Unset("proxy.provider")).To(MatchError(ContainSubstring("unknown config key")))
		})
	})
})
