package config

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别")
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}
	if g.CacheIdleTTL.DurationValue() <= 0 {
		return newFieldError("Global.CacheIdleTTL", "必须大于 0")
	}
	if g.CacheSweepInterval.DurationValue() <= 0 {
		return newFieldError("Global.CacheSweepInterval", "必须大于 0")
	}
	if g.CacheSweepInterval.DurationValue() > g.CacheIdleTTL.DurationValue() {
		return newFieldError("Global.CacheSweepInterval", "不能大于 CacheIdleTTL")
	}

	seen := map[string]struct{}{}
	for i := range c.Aliases {
		alias := c.Aliases[i]
		if alias.Name == "" {
			return newFieldError("Alias[].Name", "不能为空")
		}
		if _, exists := seen[alias.Name]; exists {
			return newFieldError(aliasField(alias.Name, "Name"), "重复")
		}
		seen[alias.Name] = struct{}{}
		if alias.Module == "" {
			return newFieldError(aliasField(alias.Name, "Module"), "不能为空")
		}
	}

	return nil
}
