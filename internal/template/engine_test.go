package template_test

import (
	"testing/fstest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/mdcr/internal/config"
	"github.com/fjglira/mdcr/internal/template"
)

var _ = Describe("TemplateEngine", func() {
	var engine *template.DefaultEngine

	BeforeEach(func() {
		var err error
		engine, err = template.NewBuiltinEngine()
		Expect(err).ToNot(HaveOccurred())
	})

	It("should list the embedded formats", func() {
		Expect(engine.ListTemplates()).To(Equal([]string{"toml", "yaml"}))
	})

	DescribeTable("rendered starter configs load back",
		func(format string) {
			out, err := engine.Render(format, template.DefaultConfigData())
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("mdcr-skip"))

			cfg, err := config.Parse([]byte(out), format)
			Expect(err).ToNot(HaveOccurred())
			Expect(config.Validate(cfg)).To(Succeed())
			Expect(cfg.Presets).To(HaveLen(2))
			Expect(cfg.BlockedPatterns).To(Equal([]string{"rm -rf /"}))

			shell := cfg.Presets[0]
			Expect(shell.Name).To(Equal("shell-output"))
			Expect(shell.Languages).To(Equal([]string{"sh"}))
			Expect(shell.OutputMode).To(Equal(config.OutputCheck))
			Expect(shell.Timeout).To(Equal(30 * time.Second))

			gofmt := cfg.Presets[1]
			Expect(gofmt.Name).To(Equal("gofmt"))
			Expect(gofmt.Command).To(Equal([]string{"gofmt", "{file}"}))
			Expect(gofmt.InputMode).To(Equal(config.InputFile))
			Expect(gofmt.Timeout).To(BeZero())
		},
		Entry("toml", "toml"),
		Entry("yaml", "yaml"),
	)

	It("should quote names that are not bare keys", func() {
		data := template.ConfigData{Presets: []template.PresetData{{
			Name:       "my preset",
			Languages:  []string{"sh", "bash"},
			Command:    []string{"shellcheck", "-"},
			InputMode:  "stdin",
			OutputMode: "check",
		}}}
		out, err := engine.Render("toml", data)
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(ContainSubstring(`[presets."my preset"]`))
		Expect(out).To(ContainSubstring(`languages = ["sh", "bash"]`))

		cfg, err := config.Parse([]byte(out), "toml")
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Presets[0].Name).To(Equal("my preset"))
	})

	It("should fail for an unknown template", func() {
		_, err := engine.Render("ini", template.DefaultConfigData())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("available: toml, yaml"))
	})

	It("should load templates from any filesystem", func() {
		fsys := fstest.MapFS{
			"custom.tmpl": {Data: []byte("{{range .Presets}}{{.Name}} {{end}}")},
			"README":      {Data: []byte("ignored")},
		}
		e, err := template.NewEngine(fsys)
		Expect(err).ToNot(HaveOccurred())
		Expect(e.ListTemplates()).To(Equal([]string{"custom"}))

		out, err := e.Render("custom", template.DefaultConfigData())
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("shell-output gofmt "))
	})

	It("should refuse a filesystem without templates", func() {
		_, err := template.NewEngine(fstest.MapFS{})
		Expect(err).To(HaveOccurred())
	})
})
