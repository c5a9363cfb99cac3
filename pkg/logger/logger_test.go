package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/pkg/logger"
)

func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

var _ = Describe("New", func() {
	It("writes Info-level text by default", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf))
		l.Info("tool call", "tool", "code_analyze")
		l.Debug("hidden")

		Expect(buf.String()).To(ContainSubstring("tool call"))
		Expect(buf.String()).To(ContainSubstring("tool=code_analyze"))
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
	})

	It("lowers the level with WithDebug", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("fallback chain", "model", "gpt-4o")
		Expect(buf.String()).To(ContainSubstring("fallback chain"))
	})

	It("honors an explicit level", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithLevel(slog.LevelWarn))
		l.Info("quiet")
		l.Warn("model unavailable")
		Expect(buf.String()).NotTo(ContainSubstring("quiet"))
		Expect(buf.String()).To(ContainSubstring("model unavailable"))
	})

	It("writes JSON records", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatJSON)).Info("served", "attempt", 2)

		parsed := decodeLine(&buf)
		Expect(parsed["msg"]).To(Equal("served"))
		Expect(parsed["attempt"]).To(BeNumerically("==", 2))
	})

	It("binds attrs to every record", func() {
		var buf bytes.Buffer
		l := logger.New(
			logger.WithWriter(&buf),
			logger.WithFormat(logger.FormatJSON),
			logger.WithAttrs("component", "api"),
		)
		l.Info("listening")
		Expect(decodeLine(&buf)).To(HaveKeyWithValue("component", "api"))
	})

	It("adds the source location when enabled", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatJSON), logger.WithSource(true)).Info("located")
		Expect(decodeLine(&buf)).To(HaveKey("source"))
	})

	It("prefixes pretty output and filters debug", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatPretty), logger.WithPrefix("toolbox"))
		l.Debug("quiet")
		Expect(buf.String()).To(BeEmpty())

		l.Info("pretty output")
		Expect(buf.String()).To(ContainSubstring("toolbox"))
		Expect(buf.String()).To(ContainSubstring("pretty output"))
	})

	It("writes to several writers", func() {
		var a, b bytes.Buffer
		logger.New(logger.WithWriters(&a, &b)).Info("multi")
		Expect(a.String()).To(ContainSubstring("multi"))
		Expect(b.String()).To(ContainSubstring("multi"))
	})
})

var _ = DescribeTable("ParseFormat",
	func(in string, want logger.Format, ok bool) {
		got, err := logger.ParseFormat(in)
		if !ok {
			Expect(err).To(MatchError(ContainSubstring("unknown log format")))
			return
		}
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	},
	Entry("empty", "", logger.FormatPretty, true),
	Entry("json", "json", logger.FormatJSON, true),
	Entry("mixed case", " Text ", logger.FormatText, true),
	Entry("unknown", "xml", logger.Format(""), false),
)

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		l := logger.Nop()
		Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		Expect(func() { l.With("k", "v").WithGroup("g").Error("msg") }).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("dispatches to every logger and skips nil ones", func() {
		var a, b bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&a)), nil, logger.New(logger.WithWriter(&b)))
		multi.Info("broadcast", "key", "val")

		Expect(a.String()).To(ContainSubstring("broadcast"))
		Expect(b.String()).To(ContainSubstring("broadcast"))
	})

	It("respects each handler's level", func() {
		var info, debug bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&info)),
			logger.New(logger.WithWriter(&debug), logger.WithDebug(true)),
		)
		multi.Debug("detail")

		Expect(info.String()).To(BeEmpty())
		Expect(debug.String()).To(ContainSubstring("detail"))
	})

	It("carries With and WithGroup through", func() {
		var a, b bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&a), logger.WithFormat(logger.FormatJSON)),
			logger.New(logger.WithWriter(&b), logger.WithFormat(logger.FormatJSON)),
		)
		multi.With("component", "worker").WithGroup("call").Info("stored", "tool", "web_scrape")

		parsed := decodeLine(&a)
		Expect(parsed["component"]).To(Equal("worker"))
		Expect(parsed["call"]).To(HaveKeyWithValue("tool", "web_scrape"))
	})

	It("keeps writing when one handler fails", func() {
		var buf bytes.Buffer
		good := logger.New(logger.WithWriter(&buf))
		multi := logger.Multi(slog.New(failingHandler{}), good)

		multi.Info("still here")
		Expect(buf.String()).To(ContainSubstring("still here"))
	})
})
