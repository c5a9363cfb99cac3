package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/api/worker"
	"github.com/papercomputeco/toolbox/pkg/completion"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/llm/provider"
	toolboxlogger "github.com/papercomputeco/toolbox/pkg/logger"
	"github.com/papercomputeco/toolbox/pkg/storage"
	"github.com/papercomputeco/toolbox/pkg/storage/inmemory"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
	testutils "github.com/papercomputeco/toolbox/pkg/utils/test"
	"github.com/papercomputeco/toolbox/pkg/web"
)

func newTestServer(config Config, providers ...provider.Provider) (*Server, *inmemory.Driver) {
	logger := toolboxlogger.Nop()
	ledger := inmemory.NewDriver()

	pool, err := worker.NewPool(&worker.Config{
		Driver: ledger,
		Logger: logger,
	})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(pool.Close)

	svc, err := completion.New(completion.Config{Providers: providers}, logger)
	Expect(err).NotTo(HaveOccurred())

	kit, err := toolkit.New(toolkit.Config{
		Completion: svc,
		Web:        web.New(web.Config{}, logger),
		Recorder:   pool,
	}, logger)
	Expect(err).NotTo(HaveOccurred())

	server, err := NewServer(config, kit, ledger, logger)
	Expect(err).NotTo(HaveOccurred())
	return server, ledger
}

func doJSON(server *Server, method, path, body string) (*http.Response, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, raw
}

var _ = Describe("Server", func() {
	var (
		server    *Server
		ledger    *inmemory.Driver
		openai    *testutils.MockProvider
		anthropic *testutils.MockProvider
	)

	BeforeEach(func() {
		openai = testutils.NewMockProvider(llm.ProviderOpenAI)
		anthropic = testutils.NewMockProvider(llm.ProviderAnthropic)
		server, ledger = newTestServer(Config{ListenAddr: ":0"}, openai, anthropic)
	})

	Describe("NewServer", func() {
		It("requires a toolkit", func() {
			_, err := NewServer(Config{}, nil, inmemory.NewDriver(), toolboxlogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("toolkit is required")))
		})
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, body := doJSON(server, http.MethodGet, "/ping", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /v1/tools", func() {
		It("lists tools and providers", func() {
			resp, body := doJSON(server, http.MethodGet, "/v1/tools", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out ToolsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Tools).To(Equal(toolkit.Names()))
			Expect(out.Providers).To(Equal([]string{llm.ProviderAnthropic, llm.ProviderOpenAI}))
		})
	})

	Describe("POST /v1/tools/:tool", func() {
		It("returns 404 for unknown tools", func() {
			resp, body := doJSON(server, http.MethodPost, "/v1/tools/unknown", `{}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			Expect(string(body)).To(MatchJSON(`{"error":"Tool not found"}`))
		})

		It("returns 400 for a malformed body", func() {
			resp, body := doJSON(server, http.MethodPost, "/v1/tools/code_analyze", `{"code":`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			var out StatusResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Status).To(Equal("error"))
			Expect(out.Message).To(ContainSubstring("invalid request body"))
		})

		It("returns 400 when required input is missing", func() {
			resp, body := doJSON(server, http.MethodPost, "/v1/tools/web_scrape", `{}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(string(body)).To(MatchJSON(`{"status":"error","message":"url is required"}`))
		})

		It("generates with openai by default", func() {
			openai.DefaultText = "func main() {}"

			resp, body := doJSON(server, http.MethodPost, "/v1/tools/llm_code_generate", `{"prompt":"write main"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out llm.CompletionResult
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Success).To(BeTrue())
			Expect(out.Text).To(Equal("func main() {}"))
			Expect(out.Metadata.Provider).To(Equal(llm.ProviderOpenAI))
			Expect(out.Metadata.Model).To(Equal("gpt-4o"))
		})

		It("returns failed envelopes with 200", func() {
			anthropic.Errors["claude-3-5-sonnet-20241022"] = &llm.ProviderError{
				Kind:     llm.ErrAuth,
				Provider: llm.ProviderAnthropic,
				Message:  "invalid x-api-key",
			}

			resp, body := doJSON(server, http.MethodPost, "/v1/tools/code_improve", `{"code":"x := 1"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out llm.CompletionResult
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Success).To(BeFalse())
			Expect(out.Error).To(ContainSubstring("invalid x-api-key"))
		})

		It("passes context keys as tool options", func() {
			resp, _ := doJSON(server, http.MethodPost, "/v1/tools/code_analyze",
				`{"code":"x := 1","context":{"analysisType":"performance","provider":"openai"}}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			calls := openai.Calls()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].UserPrompt()).To(ContainSubstring("focusing on performance"))
		})

		It("records each call in the ledger", func() {
			resp, _ := doJSON(server, http.MethodPost, "/v1/tools/code_document", `{"code":"func f() {}"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			Eventually(func() []*storage.CallRecord {
				calls, err := ledger.List(context.Background(), 10)
				Expect(err).NotTo(HaveOccurred())
				return calls
			}).WithTimeout(2 * time.Second).Should(HaveLen(1))
		})
	})

	Describe("GET /v1/calls", func() {
		BeforeEach(func() {
			base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			ctx := context.Background()
			Expect(ledger.Put(ctx, testutils.NewCallRecord("call-1", base))).To(Succeed())
			Expect(ledger.Put(ctx, testutils.NewCallRecord("call-2", base.Add(time.Minute)))).To(Succeed())
		})

		It("lists records newest first", func() {
			resp, body := doJSON(server, http.MethodGet, "/v1/calls", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out CallsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Count).To(Equal(2))
			Expect(out.Calls[0].ID).To(Equal("call-2"))
		})

		It("honors the limit", func() {
			_, body := doJSON(server, http.MethodGet, "/v1/calls?limit=1", "")

			var out CallsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Calls).To(HaveLen(1))
		})

		It("rejects an invalid limit", func() {
			resp, body := doJSON(server, http.MethodGet, "/v1/calls?limit=abc", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("limit must be a positive integer"))
		})

		It("gets a single record", func() {
			resp, body := doJSON(server, http.MethodGet, "/v1/calls/call-1", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var rec storage.CallRecord
			Expect(json.Unmarshal(body, &rec)).To(Succeed())
			Expect(rec.ID).To(Equal("call-1"))
		})

		It("returns 404 for unknown records", func() {
			resp, _ := doJSON(server, http.MethodGet, "/v1/calls/missing", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("/mcp", func() {
		It("is not mounted when disabled", func() {
			resp, _ := doJSON(server, http.MethodPost, "/mcp", `{}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("answers initialize when enabled", func() {
			mcpServer, _ := newTestServer(Config{ListenAddr: ":0", MCP: true}, openai, anthropic)

			req, err := http.NewRequest(http.MethodPost, "/mcp", strings.NewReader(
				`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"0.0.0"}}}`,
			))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")

			resp, err := mcpServer.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("toolbox"))
		})
	})
})
