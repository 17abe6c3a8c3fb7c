package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/kingdomsofarden/crafty/internal/config"
	"github.com/kingdomsofarden/crafty/internal/item/memstore"
	"github.com/kingdomsofarden/crafty/internal/itemcache"
	"github.com/kingdomsofarden/crafty/internal/logging"
	"github.com/kingdomsofarden/crafty/internal/module/builtin"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("CRAFTY_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
}

func TestParseCLIFlagsRejectsUnknown(t *testing.T) {
	if _, err := parseCLIFlags([]string{"--bogus"}); err == nil {
		t.Fatalf("未知参数应报错")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d (stderr=%s)", code, stdErrBuffer().String())
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
}

func TestRunRejectsAliasToUnknownModule(t *testing.T) {
	path := writeConfigFile(t, `
LogLevel = "error"

[[Alias]]
Name = "ghost"
Module = "phantom"
`)
	useBufferWriters(t)
	code := run(cliOptions{configPath: path, checkOnly: true})
	if code == 0 {
		t.Fatalf("别名指向未注册模块应失败")
	}
	if !strings.Contains(stdErrBuffer().String(), "phantom") {
		t.Fatalf("错误输出应包含模块名，得到 %s", stdErrBuffer().String())
	}
}

func TestBuildRegistryAppliesAliases(t *testing.T) {
	cfg := &config.Config{Aliases: []config.AliasConfig{{Name: "dura", Module: builtin.DurabilityName}}}
	registry, err := buildRegistry(memstore.New(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("构建注册表失败: %v", err)
	}
	id, ok := registry.ModuleID("dura")
	if !ok || id != builtin.DurabilityID {
		t.Fatalf("别名应绑定到 durability，得到 %s", id)
	}

	cfg.Aliases = append(cfg.Aliases, config.AliasConfig{Name: builtin.LoreName, Module: builtin.DurabilityName})
	if _, err := buildRegistry(memstore.New(), cfg, logging.Discard()); err == nil {
		t.Fatalf("别名与已有模块名冲突时应报错")
	}
}

func TestRunVersionOutput(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(stdOutBuffer().String(), "crafty") {
		t.Fatalf("version 输出应包含 crafty 标识")
	}
}

func TestReportEvictionLogsFailuresOnce(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	report := reportEviction(logger)

	report(itemcache.Eviction{ID: uuid.New(), Cause: itemcache.CauseExpired})
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("成功的写回不应记录日志")
	}

	report(itemcache.Eviction{ID: uuid.New(), Cause: itemcache.CauseShutdown, Err: errors.New("disk full")})
	entries := hook.AllEntries()
	if len(entries) != 1 || entries[0].Level != logrus.ErrorLevel {
		t.Fatalf("写回失败应记录一条 error 日志，得到 %+v", entries)
	}
}
