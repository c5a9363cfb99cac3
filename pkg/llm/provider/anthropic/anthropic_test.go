package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/toolbox/pkg/utils"
)

var _ = Describe("Anthropic Provider", func() {
	var (
		server   *httptest.Server
		status   int
		respBody string
		captured map[string]any
		p        *anthropic.Provider
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		respBody = `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "Hi from Claude"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`
		captured = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &captured)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(respBody))
		}))

		p = anthropic.New(
			anthropic.WithAPIKey("test-key"),
			anthropic.WithBaseURL(server.URL),
			anthropic.WithMaxRetries(0),
		)
	})

	AfterEach(func() {
		server.Close()
	})

	request := func() *llm.ChatRequest {
		return &llm.ChatRequest{
			Model:       "claude-3-5-sonnet-20241022",
			System:      "be brief",
			Messages:    []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
			Temperature: utils.Ptr(0.5),
			TopK:        utils.Ptr(40),
		}
	}

	It("returns 'anthropic' as its name", func() {
		Expect(p.Name()).To(Equal("anthropic"))
	})

	It("honors the configured retry count", func() {
		Expect(p.MaxRetries()).To(Equal(0))
	})

	It("sends system, sampling, and a default max_tokens", func() {
		_, err := p.Complete(ctx, request())
		Expect(err).NotTo(HaveOccurred())

		Expect(captured["model"]).To(Equal("claude-3-5-sonnet-20241022"))
		Expect(captured["max_tokens"]).To(BeNumerically("==", 4096))
		Expect(captured["temperature"]).To(BeNumerically("~", 0.5))
		Expect(captured["top_k"]).To(BeNumerically("==", 40))
		Expect(captured).To(HaveKey("system"))
	})

	It("forwards extra params into the body", func() {
		req := request()
		req.Extra = map[string]any{"metadata": map[string]any{"user_id": "u-1"}}

		_, err := p.Complete(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(captured).To(HaveKey("metadata"))
	})

	It("extracts text blocks from the response", func() {
		resp, err := p.Complete(ctx, request())
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Message.GetText()).To(Equal("Hi from Claude"))
		Expect(resp.StopReason).To(Equal("end_turn"))
		Expect(resp.Usage.TotalTokens).To(Equal(14))
	})

	It("classifies not_found_error as model unavailable", func() {
		status = http.StatusNotFound
		respBody = `{"type": "error", "error": {"type": "not_found_error", "message": "model: claude-nope"}}`

		_, err := p.Complete(ctx, request())
		Expect(err).To(HaveOccurred())
		Expect(llm.IsModelUnavailable(err)).To(BeTrue())

		var pe *llm.ProviderError
		Expect(err).To(BeAssignableToTypeOf(pe))
		Expect(err.(*llm.ProviderError).StatusCode).To(Equal(http.StatusNotFound))
	})

	DescribeTable("classifies a 400 about the model field as model unavailable",
		func(body string) {
			status = http.StatusBadRequest
			respBody = body

			_, err := p.Complete(ctx, request())
			Expect(llm.KindOf(err)).To(Equal(llm.ErrModelUnavailable))
			Expect(err.(*llm.ProviderError).StatusCode).To(Equal(http.StatusBadRequest))
		},
		Entry("compact", `{"type":"error","error":{"type":"invalid_request_error","message":"model: claude-nope"}}`),
		Entry("spaced", `{"type": "error", "error": {"type": "invalid_request_error", "message": "model: claude-nope"}}`),
	)

	It("keeps other 400s as invalid requests", func() {
		status = http.StatusBadRequest
		respBody = `{"type": "error", "error": {"type": "invalid_request_error", "message": "max_tokens: must be positive"}}`

		_, err := p.Complete(ctx, request())
		Expect(llm.KindOf(err)).To(Equal(llm.ErrInvalidRequest))
		Expect(llm.IsModelUnavailable(err)).To(BeFalse())
	})

	It("classifies authentication_error as auth", func() {
		status = http.StatusUnauthorized
		respBody = `{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`

		_, err := p.Complete(ctx, request())
		Expect(llm.KindOf(err)).To(Equal(llm.ErrAuth))
		Expect(err.Error()).To(ContainSubstring("invalid x-api-key"))
	})

	It("fails with an auth error when no API key is configured", func() {
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
		noKey := anthropic.New(anthropic.WithBaseURL(server.URL))

		_, err := noKey.Complete(ctx, request())
		Expect(llm.KindOf(err)).To(Equal(llm.ErrAuth))
	})
})
