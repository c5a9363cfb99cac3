package servecmder

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the server flags with config defaults", func() {
		cmd := NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.DefValue).To(Equal(":3000"))
		Expect(listen.Shorthand).To(Equal("l"))

		mcp := cmd.Flags().Lookup("mcp")
		Expect(mcp).NotTo(BeNil())
		Expect(mcp.DefValue).To(Equal("true"))

		provider := cmd.Flags().Lookup("provider")
		Expect(provider).NotTo(BeNil())
		Expect(provider.DefValue).To(Equal("anthropic"))

		for _, name := range []string{"sqlite", "postgres", "events-provider", "kafka-brokers", "kafka-topic", "openai-base-url", "anthropic-base-url", "user-agent", "log-format", "log-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("rejects positional arguments", func() {
		cmd := NewServeCmd()
		cmd.SetArgs([]string{"extra"})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})

var _ = Describe("setupLogger", func() {
	It("logs to the console only by default", func() {
		c := &ServeCommander{}
		closeLog, err := c.setupLogger()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(closeLog)
		Expect(c.logger).NotTo(BeNil())
	})

	It("also writes JSON lines to the log file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "toolbox.log")
		c := &ServeCommander{logFile: path, logFormat: "json"}

		closeLog, err := c.setupLogger()
		Expect(err).NotTo(HaveOccurred())

		c.logger.Info("hello", "component", "test")
		closeLog()

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"hello"`))
		Expect(string(data)).To(ContainSubstring(`"component":"test"`))
		Expect(string(data)).To(ContainSubstring(`"version":`))
	})

	It("rejects an unknown log format", func() {
		c := &ServeCommander{logFormat: "xml"}
		_, err := c.setupLogger()
		Expect(err).To(MatchError(ContainSubstring("unknown log format")))
	})

	It("fails when the log file cannot be opened", func() {
		c := &ServeCommander{logFile: filepath.Join(GinkgoT().TempDir(), "missing", "toolbox.log")}
		_, err := c.setupLogger()
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})
})
