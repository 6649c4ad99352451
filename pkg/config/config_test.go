package config

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("should pass validation", func() {
			Expect(validateConfig(DefaultConfig())).To(Succeed())
		})

		It("should enable every bundled tool server", func() {
			cfg := DefaultConfig()
			Expect(cfg.ToolServers).NotTo(BeEmpty())
			for _, server := range cfg.ToolServers {
				Expect(server.Enabled).To(BeTrue())
				Expect(server.Timeout).To(BeNumerically(">", 0))
			}
		})
	})

	Describe("validateConfig", func() {
		var cfg *ServerConfig

		BeforeEach(func() {
			cfg = DefaultConfig()
		})

		It("should reject an out-of-range port", func() {
			cfg.HTTP.Port = 70000
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("HTTP port")))
		})

		It("should reject a non-positive pool size", func() {
			cfg.PoolSize = 0
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("pool size")))
		})

		It("should reject an unknown log level", func() {
			cfg.LogLevel = "verbose"
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("log level")))
		})

		It("should reject an unknown log format", func() {
			cfg.LogFormat = "xml"
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("log format")))
		})

		It("should reject a tool server without a name", func() {
			cfg.ToolServers[0].Name = ""
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("name cannot be empty")))
		})

		It("should reject duplicate tool server names", func() {
			cfg.ToolServers[1].Name = cfg.ToolServers[0].Name
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("duplicate tool server name")))
		})

		It("should reject a tool server without a command", func() {
			cfg.ToolServers[0].Command = ""
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("command cannot be empty")))
		})

		It("should reject a tool server with a zero timeout", func() {
			cfg.ToolServers[0].Timeout = 0
			Expect(validateConfig(cfg)).To(MatchError(ContainSubstring("timeout must be positive")))
		})
	})
})
