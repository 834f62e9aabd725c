package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/client"
	"github.com/lvdashuaibi/ledgervote/internal/logging"
	"github.com/lvdashuaibi/ledgervote/internal/service"
)

var (
	configPath string
	apiURL     string

	cfg    *config.Config
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "ledgervote",
	Short: "链上选举数据浏览与管理",
	Long: `ledgervote 从选举后端拉取候选人、选民和计票的当前状态与历史记录，
提供 GraphQL / REST 接口和命令行浏览。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if apiURL != "" {
			c.API.BaseURL = apiURL
		}
		cfg = c

		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(l)
		logger = l.Sugar()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "覆盖配置中的后端地址")
}

// loadConfig 未显式指定且默认文件不存在时使用默认配置
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
			c := config.Default()
			return &c, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return config.LoadConfig(configPath)
}

func dateFormat(c *config.Config) bignum.DateFormat {
	return bignum.DateFormat{Location: c.Display.Location(), Layout: c.Display.DateLayout}
}

// newElection 命令行一次性命令使用，不接缓存和Kafka
func newElection() (*service.ElectionService, error) {
	api, err := client.NewHTTPClient(cfg.API, logger)
	if err != nil {
		return nil, err
	}
	return service.NewElectionService(api, nil, nil, logger), nil
}
