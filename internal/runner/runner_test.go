package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/mdcr/internal/config"
	"github.com/fjglira/mdcr/internal/domain"
	"github.com/fjglira/mdcr/internal/executor"
	"github.com/fjglira/mdcr/internal/parser"
	"github.com/fjglira/mdcr/internal/runner"
	"github.com/fjglira/mdcr/internal/scanner"
)

// fakeExecutor answers with a canned stdout per preset and records calls.
type fakeExecutor struct {
	mu     sync.Mutex
	stdout map[string]string
	exit   map[string]int
	calls  []string
}

func (f *fakeExecutor) Execute(_ context.Context, req executor.Request) (*executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Preset.Name+":"+strings.TrimSpace(req.Code))
	code := f.exit[req.Preset.Name]
	return &executor.Result{
		Args:     req.Preset.Command,
		Stdout:   f.stdout[req.Preset.Name],
		ExitCode: code,
		Success:  code == 0,
	}, nil
}

func preset(name, lang string, mode config.OutputMode, command ...string) config.Preset {
	return config.Preset{
		Name:       name,
		Languages:  []string{lang},
		Command:    command,
		InputMode:  config.InputStdin,
		OutputMode: mode,
	}
}

const twoBlocks = "# Doc\n\n```sh\necho one\n```\n\nText.\n\n```sh\nhello\n```\n"

var _ = Describe("Runner", func() {
	var (
		dir string
		log *logrus.Logger
		ctx context.Context
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		log = logrus.New()
		log.SetOutput(GinkgoWriter)
		log.SetLevel(logrus.DebugLevel)
		ctx = context.Background()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	read := func(path string) string {
		data, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		return string(data)
	}

	newRunner := func(cfg *config.Config, exec executor.Executor) *runner.Runner {
		return runner.NewRunner(cfg, scanner.NewScanner(true), parser.NewDefaultRegistry(), exec, log)
	}

	options := func(targets ...string) runner.Options {
		return runner.Options{Targets: targets, Include: config.DefaultInclude, Exclude: config.DefaultExclude, Jobs: 2}
	}

	Context("with real commands", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = &config.Config{Presets: []config.Preset{
				preset("echo", "sh", config.OutputReplace, "echo", "hello"),
			}}
		})

		It("should rewrite only the mismatched block", func() {
			path := write("doc.md", twoBlocks)
			r := newRunner(cfg, executor.NewCommandExecutor(log))

			summary, err := r.Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Failed()).To(BeFalse())
			Expect(summary.Files).To(HaveLen(1))
			Expect(summary.Files[0].State).To(Equal(domain.Updated))
			Expect(summary.Files[0].Blocks).To(Equal(2))
			Expect(summary.Files[0].Lines).To(Equal(11))
			Expect(summary.Files[0].Replacements).To(Equal(1))
			Expect(read(path)).To(Equal("# Doc\n\n```sh\nhello\n```\n\nText.\n\n```sh\nhello\n```\n"))
		})

		It("should be idempotent", func() {
			path := write("doc.md", twoBlocks)
			r := newRunner(cfg, executor.NewCommandExecutor(log))

			_, err := r.Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			first := read(path)

			summary, err := r.Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.NoChangeNeeded))
			Expect(read(path)).To(Equal(first))
		})

		It("should report mismatches without writing in check mode", func() {
			path := write("doc.md", twoBlocks)
			opts := options(path)
			opts.CheckOnly = true

			summary, err := newRunner(cfg, executor.NewCommandExecutor(log)).Run(ctx, opts)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.CheckFailed))
			Expect(summary.Files[0].Mismatches).To(Equal(1))
			Expect(summary.Failed()).To(BeTrue())
			Expect(read(path)).To(Equal(twoBlocks))
		})

		It("should never fail or write in dry-run", func() {
			path := write("doc.md", twoBlocks)
			opts := options(path)
			opts.DryRun = true
			opts.CheckOnly = true

			summary, err := newRunner(cfg, executor.NewCommandExecutor(log)).Run(ctx, opts)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.DryRunReported))
			Expect(summary.Failed()).To(BeFalse())
			Expect(read(path)).To(Equal(twoBlocks))
		})

		It("should fail a check preset that exits non-zero and leave the file alone", func() {
			path := write("doc.md", twoBlocks)
			cfg.Presets = []config.Preset{preset("lint", "sh", config.OutputCheck, "sh", "-c", "exit 1")}

			summary, err := newRunner(cfg, executor.NewCommandExecutor(log)).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.CommandFailed))
			Expect(summary.Files[0].Failures).To(Equal(2))
			Expect(summary.Failed()).To(BeTrue())
			Expect(read(path)).To(Equal(twoBlocks))
		})

		It("should pass a check preset that succeeds", func() {
			path := write("doc.md", twoBlocks)
			cfg.Presets = []config.Preset{preset("lint", "sh", config.OutputCheck, "sh", "-n")}

			summary, err := newRunner(cfg, executor.NewCommandExecutor(log)).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.NoChangeNeeded))
			Expect(read(path)).To(Equal(twoBlocks))
		})

		It("should mark the file errored when a program is missing", func() {
			path := write("doc.md", twoBlocks)
			cfg.Presets = []config.Preset{preset("gone", "sh", config.OutputReplace, "mdcr-no-such-program")}

			summary, err := newRunner(cfg, executor.NewCommandExecutor(log)).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.Errored))
			Expect(summary.Files[0].Err).To(HaveOccurred())
			Expect(summary.Failed()).To(BeTrue())
			Expect(read(path)).To(Equal(twoBlocks))
		})

		It("should only warn about a missing program in dry-run", func() {
			path := write("doc.md", twoBlocks)
			cfg.Presets = []config.Preset{preset("gone", "sh", config.OutputReplace, "mdcr-no-such-program")}
			opts := options(path)
			opts.DryRun = true

			summary, err := newRunner(cfg, executor.NewCommandExecutor(log)).Run(ctx, opts)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.DryRunReported))
			Expect(summary.Files[0].Failures).To(Equal(2))
			Expect(summary.Failed()).To(BeFalse())
		})

		It("should keep nested block indentation when rewriting", func() {
			content := "1. Step:\n\n   ```sh\n   echo one\n   ```\n"
			path := write("list.md", content)

			_, err := newRunner(cfg, executor.NewCommandExecutor(log)).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(read(path)).To(Equal("1. Step:\n\n   ```sh\n   hello\n   ```\n"))
		})
	})

	Context("with a fake executor", func() {
		It("should leave blocks without a matching preset alone", func() {
			path := write("doc.md", "```python\nprint(1)\n```\n\n```\nplain\n```\n")
			fake := &fakeExecutor{stdout: map[string]string{"fmt": "changed"}}
			cfg := &config.Config{Presets: []config.Preset{preset("fmt", "sh", config.OutputReplace, "fmt")}}

			summary, err := newRunner(cfg, fake).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(fake.calls).To(BeEmpty())
			Expect(summary.Files[0].State).To(Equal(domain.NoChangeNeeded))
		})

		It("should never run skipped blocks", func() {
			path := write("doc.md", "```sh mdcr-skip\nold\n```\n")
			fake := &fakeExecutor{stdout: map[string]string{"fmt": "new"}}
			cfg := &config.Config{Presets: []config.Preset{preset("fmt", "sh", config.OutputReplace, "fmt")}}

			_, err := newRunner(cfg, fake).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(fake.calls).To(BeEmpty())
			Expect(read(path)).To(Equal("```sh mdcr-skip\nold\n```\n"))
		})

		It("should run presets in block then configuration order and keep the last replacement", func() {
			path := write("doc.md", "```sh\na\n```\n\n```sh\nb\n```\n")
			fake := &fakeExecutor{stdout: map[string]string{"first": "from first", "second": "from second"}}
			cfg := &config.Config{Presets: []config.Preset{
				preset("first", "sh", config.OutputReplace, "one"),
				preset("second", "sh", config.OutputReplace, "two"),
			}}

			summary, err := newRunner(cfg, fake).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(fake.calls).To(Equal([]string{"first:a", "second:a", "first:b", "second:b"}))
			Expect(summary.Files[0].Replacements).To(Equal(2))
			Expect(read(path)).To(Equal("```sh\nfrom second\n```\n\n```sh\nfrom second\n```\n"))
		})

		It("should stay idempotent when the output contains the block's fence", func() {
			path := write("doc.md", "```md\nold\n```\n\nafter\n")
			fake := &fakeExecutor{stdout: map[string]string{"gen": "a\n```\nb\n"}}
			cfg := &config.Config{Presets: []config.Preset{preset("gen", "md", config.OutputReplace, "gen")}}
			r := newRunner(cfg, fake)

			summary, err := r.Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.Updated))
			Expect(read(path)).To(Equal("````md\na\n```\nb\n````\n\nafter\n"))

			for i := 0; i < 2; i++ {
				summary, err = r.Run(ctx, options(path))
				Expect(err).ToNot(HaveOccurred())
				Expect(summary.Files[0].State).To(Equal(domain.NoChangeNeeded))
			}
			Expect(read(path)).To(Equal("````md\na\n```\nb\n````\n\nafter\n"))
		})

		It("should not write when any command failed", func() {
			content := "```sh\na\n```\n\n```go\nb\n```\n"
			path := write("doc.md", content)
			fake := &fakeExecutor{
				stdout: map[string]string{"fmt": "fixed"},
				exit:   map[string]int{"vet": 1},
			}
			cfg := &config.Config{Presets: []config.Preset{
				preset("fmt", "sh", config.OutputReplace, "fmt"),
				preset("vet", "go", config.OutputCheck, "vet"),
			}}

			summary, err := newRunner(cfg, fake).Run(ctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(fake.calls).To(HaveLen(2))
			Expect(summary.Files[0].State).To(Equal(domain.CommandFailed))
			Expect(read(path)).To(Equal(content))
		})

		It("should process every file and aggregate the outcome", func() {
			Expect(os.MkdirAll(filepath.Join(dir, "docs"), 0o755)).To(Succeed())
			clean := write("clean.md", "```sh\nok\n```\n")
			dirty := write(filepath.Join("docs", "dirty.md"), "```sh\nbad\n```\n")
			write("notes.txt", "```sh\nbad\n```\n")

			fake := &fakeExecutor{stdout: map[string]string{"fmt": "ok\n"}}
			cfg := &config.Config{Presets: []config.Preset{preset("fmt", "sh", config.OutputReplace, "fmt")}}
			opts := options(dir)
			opts.CheckOnly = true

			summary, err := newRunner(cfg, fake).Run(ctx, opts)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files).To(HaveLen(2))
			Expect(summary.Files[0].Path).To(Equal(clean))
			Expect(summary.Files[0].State).To(Equal(domain.NoChangeNeeded))
			Expect(summary.Files[1].Path).To(Equal(dirty))
			Expect(summary.Files[1].State).To(Equal(domain.CheckFailed))
			Expect(summary.Count(domain.CheckFailed)).To(Equal(1))
			Expect(summary.Failed()).To(BeTrue())
		})

		It("should warn and succeed when no files are found", func() {
			cfg := &config.Config{Presets: []config.Preset{preset("fmt", "sh", config.OutputReplace, "fmt")}}
			summary, err := newRunner(cfg, &fakeExecutor{}).Run(ctx, options(dir))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files).To(BeEmpty())
			Expect(summary.Failed()).To(BeFalse())
		})

		It("should return discovery errors", func() {
			cfg := &config.Config{Presets: []config.Preset{preset("fmt", "sh", config.OutputReplace, "fmt")}}
			_, err := newRunner(cfg, &fakeExecutor{}).Run(ctx, options(filepath.Join(dir, "missing")))
			Expect(err).To(HaveOccurred())
		})

		It("should fail files once the run is cancelled", func() {
			path := write("doc.md", "```sh\na\n```\n")
			cfg := &config.Config{Presets: []config.Preset{preset("fmt", "sh", config.OutputReplace, "fmt")}}
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			summary, err := newRunner(cfg, &fakeExecutor{}).Run(cctx, options(path))
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Files[0].State).To(Equal(domain.Errored))
		})
	})
})
