package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kbconsole/pkg/dotdir"
)

// chdir moves into dir until the current test ends.
func chdir(dir string) {
	orig, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(dir)).To(Succeed())
	DeferCleanup(os.Chdir, orig)
}

var _ = Describe("Resolve", func() {
	var root string

	BeforeEach(func() {
		// EvalSymlinks so results compare equal on macOS, where /var is a link.
		var err error
		root, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv(dotdir.EnvVar, "")
		GinkgoT().Setenv("HOME", filepath.Join(root, "home"))
	})

	It("creates and returns the override", func() {
		want := filepath.Join(root, "custom", "kb")

		dir, err := dotdir.Resolve(want)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dir)).To(Equal(want))
		Expect(want).To(BeADirectory())
	})

	It("makes a relative override absolute", func() {
		chdir(root)

		dir, err := dotdir.Resolve("rel")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dir)).To(Equal(filepath.Join(root, "rel")))
	})

	It("prefers the override over the environment and a local directory", func() {
		Expect(os.Mkdir(filepath.Join(root, dotdir.DirName), 0o755)).To(Succeed())
		chdir(root)
		GinkgoT().Setenv(dotdir.EnvVar, filepath.Join(root, "from-env"))

		dir, err := dotdir.Resolve(filepath.Join(root, "flag"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dir)).To(Equal(filepath.Join(root, "flag")))
	})

	It("uses the environment variable before searching", func() {
		Expect(os.Mkdir(filepath.Join(root, dotdir.DirName), 0o755)).To(Succeed())
		chdir(root)
		GinkgoT().Setenv(dotdir.EnvVar, filepath.Join(root, "from-env"))

		dir, err := dotdir.Resolve("")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dir)).To(Equal(filepath.Join(root, "from-env")))
	})

	It("finds a .kbconsole directory in a parent of the working directory", func() {
		project := filepath.Join(root, "project")
		nested := filepath.Join(project, "docs", "drafts")
		Expect(os.MkdirAll(nested, 0o755)).To(Succeed())
		Expect(os.Mkdir(filepath.Join(project, dotdir.DirName), 0o755)).To(Succeed())
		chdir(nested)

		dir, err := dotdir.Resolve("")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dir)).To(Equal(filepath.Join(project, dotdir.DirName)))
	})

	It("falls back to the home directory", func() {
		chdir(root)

		dir, err := dotdir.Resolve("")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dir)).To(Equal(filepath.Join(root, "home", dotdir.DirName)))
		Expect(string(dir)).To(BeADirectory())
	})
})

var _ = Describe("File", func() {
	It("places the history database inside the resolved directory", func() {
		dir := GinkgoT().TempDir()

		path, err := dotdir.File(dir, dotdir.HistoryFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Base(path)).To(Equal("history.db"))
		Expect(filepath.Dir(path)).To(Equal(filepath.Clean(dir)))
	})
})
