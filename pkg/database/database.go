package database

import (
	"fmt"
	"log"

	"flagtest_backend/internal/config"
	"flagtest_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	// TranslateError turns driver duplicate-entry errors into
	// gorm.ErrDuplicatedKey, which the session join path relies on to
	// detect attempt-key races.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Evaluation{},
		&model.EvaluationTest{},
		&model.TestDefinition{},
		&model.Invite{},
		&model.RosterEntry{},
		&model.TestSession{},
		&model.Answer{},
		&model.Score{},
		&model.CamouflageSet{},
		&model.CamouflageCharacter{},
		&model.CamouflageSlot{},
		&model.CamouflageMapping{},
		&model.CamouflageCopy{},
	)
	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}
