package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kingdomsofarden/crafty/internal/config"
	"github.com/kingdomsofarden/crafty/internal/item"
	"github.com/kingdomsofarden/crafty/internal/item/memstore"
	"github.com/kingdomsofarden/crafty/internal/itemcache"
	"github.com/kingdomsofarden/crafty/internal/logging"
	"github.com/kingdomsofarden/crafty/internal/module"
	"github.com/kingdomsofarden/crafty/internal/module/builtin"
	"github.com/kingdomsofarden/crafty/internal/server"
	"github.com/kingdomsofarden/crafty/internal/server/routes"
	"github.com/kingdomsofarden/crafty/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	store := memstore.New()
	registry, err := buildRegistry(store, cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "构建模块注册表失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["modules"] = len(registry.List())
		fields["aliases"] = config.AliasSummary(cfg.Aliases)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 模块注册表 → 物品缓存 → 清扫协程 + Fiber 诊断服务。
	cache, err := itemcache.New(itemcache.Options{
		Registry: registry,
		Store:    store,
		IdleTTL:  cfg.Global.CacheIdleTTL.DurationValue(),
		Logger:   logger,
		OnEvict:  reportEviction(logger),
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化物品缓存失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["modules"] = len(registry.List())
	fields["aliases"] = config.AliasSummary(cfg.Aliases)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["idle_ttl"] = cfg.Global.CacheIdleTTL.DurationValue().String()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := serve(ctx, cfg, store, registry, cache, logger)

	flushed := cache.Close()
	logger.WithFields(logrus.Fields{
		"action":  "shutdown",
		"flushed": flushed,
	}).Info("物品缓存已全部写回")

	if serveErr != nil {
		fmt.Fprintf(stdErr, "诊断服务异常退出: %v\n", serveErr)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("crafty", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 CRAFTY_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("CRAFTY_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// buildRegistry 注册内置模块，并按配置追加别名。
func buildRegistry(store item.Store, cfg *config.Config, logger *logrus.Logger) (*module.Registry, error) {
	registry := module.NewRegistry(store, module.WithLogger(logging.Component(logger, "registry")))
	if err := builtin.Register(registry); err != nil {
		return nil, err
	}
	for _, alias := range cfg.Aliases {
		id, ok := registry.ModuleID(alias.Module)
		if !ok {
			return nil, fmt.Errorf("alias %s: 未注册模块 %s", alias.Name, alias.Module)
		}
		desc, _ := registry.Lookup(id)
		if err := registry.Register(alias.Name, id, desc.Factory); err != nil {
			return nil, fmt.Errorf("alias %s: %w", alias.Name, err)
		}
	}
	return registry, nil
}

// reportEviction 将写回失败上报到缓存配置方的日志中。
func reportEviction(logger *logrus.Logger) itemcache.EvictionListener {
	return func(ev itemcache.Eviction) {
		if ev.Err == nil {
			return
		}
		fields := logging.CacheFields("write_back", ev.ID, string(ev.Cause))
		fields["dirty"] = ev.Dirty
		logger.WithFields(fields).WithError(ev.Err).Error("模块状态写回失败")
	}
}

// newStack 为诊断接口构造内存物品。
func newStack(kind string) item.Item {
	return memstore.NewStack(kind)
}

// serve 并行运行缓存清扫与诊断服务，ctx 结束后关闭两者。
func serve(ctx context.Context, cfg *config.Config, store item.Store, registry *module.Registry, cache *itemcache.Cache, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterModuleRoutes(app, registry)
	routes.RegisterCacheRoutes(app, cache, registry)
	routes.RegisterItemRoutes(app, cache, registry, store, newStack)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cache.Run(gctx, cfg.Global.CacheSweepInterval.DurationValue())
	})
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"action": "listen",
			"port":   port,
		}).Info("Fiber 诊断服务启动")
		return app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.Shutdown()
	})
	return g.Wait()
}
