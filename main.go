// @title Health Track 后端 API
// @version 1.0
// @description 健康项目报名、就诊准备向导、用药记录与 PDF 报告。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"fmt"
	"health_track_backend/internal/app"
	"health_track_backend/internal/config"
	"health_track_backend/pkg/database"
	"health_track_backend/pkg/logger"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "health-track",
		Short: "Health track program API server",
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "configs", "配置文件目录")

	rootCmd.AddCommand(serveCmd(&configDir))
	rootCmd.AddCommand(migrateCmd(&configDir))
	rootCmd.AddCommand(seedCmd(&configDir))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configDir *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// 启动时强制执行数据库迁移（即使是 release 模式）
			cfg.ForceMigrate = migrate

			ctx := context.Background()
			application, err := app.NewApp(ctx, cfg, *configDir)
			if err != nil {
				return err
			}
			defer logger.Log.Sync()
			return application.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "启动时强制执行数据库迁移")
	return cmd
}

func migrateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "只执行数据库迁移，完成后退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.InitDB(&cfg.Database, false)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Println("数据库迁移完成，退出程序")
			return nil
		},
	}
}

func seedCmd(configDir *string) *cobra.Command {
	var opts database.SeedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "写入默认项目内容和管理员账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.InitDB(&cfg.Database, false)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			if opts.AdminPassword == "" {
				opts.AdminPassword = os.Getenv("ADMIN_PASSWORD")
			}
			return database.Seed(db, opts)
		},
	}
	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", "", "管理员邮箱")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", "", "管理员密码，默认读取 ADMIN_PASSWORD")
	return cmd
}
