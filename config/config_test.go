package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pisim/config"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("should load at 0x8000 without a limit", func() {
			c := config.DefaultConfig()

			Expect(c.LoadAddress).To(Equal(uint32(0x8000)))
			Expect(c.MaxInstructions).To(BeZero())
			Expect(c.Trace).To(BeFalse())
			Expect(c.Debug).To(BeFalse())
			Expect(c.Validate()).To(Succeed())
		})
	})

	Describe("Validate", func() {
		It("should reject unaligned load addresses", func() {
			c := config.DefaultConfig()
			c.LoadAddress = 0x8002

			Expect(c.Validate()).To(MatchError(ContainSubstring("word aligned")))
		})

		It("should reject load addresses past RAM", func() {
			c := config.DefaultConfig()
			c.LoadAddress = 0x10000

			Expect(c.Validate()).To(MatchError(ContainSubstring("must be below")))
		})
	})

	Describe("Clone", func() {
		It("should not share state with the original", func() {
			original := config.DefaultConfig()
			clone := original.Clone()
			clone.MaxInstructions = 100

			Expect(original.MaxInstructions).To(BeZero())
			Expect(clone.LoadAddress).To(Equal(original.LoadAddress))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := config.DefaultConfig()
			original.LoadAddress = 0x1000
			original.MaxInstructions = 500
			original.Trace = true

			path := filepath.Join(tempDir, "pisim.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"debug": true}`), 0644)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Debug).To(BeTrue())
			Expect(loaded.LoadAddress).To(Equal(uint32(0x8000)))
		})

		It("should return error for non-existent file", func() {
			_, err := config.LoadConfig("/nonexistent/path/pisim.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = config.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
