package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/schoolworks/feeledger/internal/clock"
	"github.com/schoolworks/feeledger/internal/config"
	"github.com/schoolworks/feeledger/internal/defaulter"
	"github.com/schoolworks/feeledger/internal/feecollection"
	"github.com/schoolworks/feeledger/internal/feerecord"
	"github.com/schoolworks/feeledger/internal/feestructure"
	"github.com/schoolworks/feeledger/internal/logger"
	"github.com/schoolworks/feeledger/internal/migration"
	"github.com/schoolworks/feeledger/internal/seed"
	"github.com/schoolworks/feeledger/internal/server"
	"github.com/schoolworks/feeledger/internal/student"
	"github.com/schoolworks/feeledger/internal/transaction"
	"github.com/schoolworks/feeledger/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			return seed.EnsureDefaultSchool(conn, cfg)
		}),
		student.Module,
		feestructure.Module,
		feerecord.Module,
		transaction.Module,
		feecollection.Module,
		defaulter.Module,
		server.Module,
	)
	app.Run()
}
