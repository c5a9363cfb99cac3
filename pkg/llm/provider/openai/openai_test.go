package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/llm/provider"
	"github.com/papercomputeco/toolbox/pkg/llm/provider/openai"
	"github.com/papercomputeco/toolbox/pkg/utils"
)

var _ = Describe("OpenAI Provider", func() {
	var (
		server   *httptest.Server
		status   int
		respBody string
		captured map[string]any
		authz    string
		path     string
		p        provider.Provider
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		respBody = `{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1677652288,
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 2, "total_tokens": 11}
		}`
		captured = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			authz = r.Header.Get("Authorization")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &captured)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(respBody))
		}))

		p = openai.New(openai.WithAPIKey("sk-test"), openai.WithBaseURL(server.URL))
	})

	AfterEach(func() {
		server.Close()
	})

	request := func() *llm.ChatRequest {
		return &llm.ChatRequest{
			Model:       "gpt-4o",
			System:      "be brief",
			Messages:    []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
			Temperature: utils.Ptr(0.3),
			TopP:        utils.Ptr(0.9),
		}
	}

	Describe("Name", func() {
		It("returns 'openai'", func() {
			Expect(p.Name()).To(Equal("openai"))
		})
	})

	Describe("Complete", func() {
		It("posts to the chat completions endpoint with bearer auth", func() {
			_, err := p.Complete(ctx, request())
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("/v1/chat/completions"))
			Expect(authz).To(Equal("Bearer sk-test"))
		})

		It("sends the system prompt first and the sampling parameters", func() {
			_, err := p.Complete(ctx, request())
			Expect(err).NotTo(HaveOccurred())

			Expect(captured["model"]).To(Equal("gpt-4o"))
			Expect(captured["temperature"]).To(BeNumerically("~", 0.3))
			Expect(captured["top_p"]).To(BeNumerically("~", 0.9))
			Expect(captured).NotTo(HaveKey("max_tokens"))

			messages, ok := captured["messages"].([]any)
			Expect(ok).To(BeTrue())
			Expect(messages).To(HaveLen(2))
			Expect(messages[0]).To(HaveKeyWithValue("role", "system"))
			Expect(messages[0]).To(HaveKeyWithValue("content", "be brief"))
			Expect(messages[1]).To(HaveKeyWithValue("role", "user"))
		})

		It("merges extra params without replacing the model", func() {
			req := request()
			req.Extra = map[string]any{"seed": 7, "model": "other"}

			_, err := p.Complete(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(captured["seed"]).To(BeNumerically("==", 7))
			Expect(captured["model"]).To(Equal("gpt-4o"))
		})

		It("returns the first choice as a text block", func() {
			resp, err := p.Complete(ctx, request())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Model).To(Equal("gpt-4o"))
			Expect(resp.Message.GetText()).To(Equal("Hello there"))
			Expect(resp.StopReason).To(Equal("stop"))
			Expect(resp.Usage.TotalTokens).To(Equal(11))
		})

		It("classifies model_not_found as model unavailable", func() {
			status = http.StatusNotFound
			respBody = `{"error": {"message": "The model 'gpt-9' does not exist", "type": "invalid_request_error", "param": null, "code": "model_not_found"}}`

			_, err := p.Complete(ctx, request())
			Expect(err).To(HaveOccurred())
			Expect(llm.IsModelUnavailable(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("The model 'gpt-9' does not exist"))
		})

		It("classifies a 400 on the model param as model unavailable", func() {
			status = http.StatusBadRequest
			respBody = `{"error": {"message": "invalid model ID", "type": "invalid_request_error", "param": "model", "code": null}}`

			_, err := p.Complete(ctx, request())
			Expect(llm.KindOf(err)).To(Equal(llm.ErrModelUnavailable))
		})

		It("classifies 401 as auth", func() {
			status = http.StatusUnauthorized
			respBody = `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`

			_, err := p.Complete(ctx, request())
			Expect(llm.KindOf(err)).To(Equal(llm.ErrAuth))
			Expect(err.Error()).To(Equal("Incorrect API key provided"))
		})

		It("classifies 429 as rate limited", func() {
			status = http.StatusTooManyRequests
			respBody = `{"error": {"message": "Rate limit reached", "type": "requests"}}`

			_, err := p.Complete(ctx, request())
			Expect(llm.KindOf(err)).To(Equal(llm.ErrRateLimited))
		})

		It("keeps the raw body when the error is not JSON", func() {
			status = http.StatusBadGateway
			respBody = "bad gateway"

			_, err := p.Complete(ctx, request())
			Expect(llm.KindOf(err)).To(Equal(llm.ErrUpstream))
			Expect(err.Error()).To(ContainSubstring("bad gateway"))
		})

		It("fails with an auth error when no API key is configured", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "")
			noKey := openai.New(openai.WithBaseURL(server.URL))

			_, err := noKey.Complete(ctx, request())
			Expect(llm.KindOf(err)).To(Equal(llm.ErrAuth))
			Expect(err.Error()).To(ContainSubstring("OPENAI_API_KEY"))
		})

		It("classifies transport failures as network errors", func() {
			server.Close()

			_, err := p.Complete(ctx, request())
			Expect(llm.KindOf(err)).To(Equal(llm.ErrNetwork))
		})
	})
})
