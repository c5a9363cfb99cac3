package provider_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/pkg/llm/provider"
)

var _ = Describe("New", func() {
	It("creates every supported provider", func() {
		for _, name := range provider.SupportedProviders() {
			p, err := provider.New(name, provider.Options{APIKey: "k"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name()).To(Equal(name))
		}
	})

	It("rejects unknown provider types", func() {
		_, err := provider.New("ollama", provider.Options{})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown provider type"))
	})
})
