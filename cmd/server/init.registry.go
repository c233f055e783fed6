package main

import (
	"context"

	"meta_travel/config"
	contentmodels "meta_travel/internal/api/content/models"
	contentsvc "meta_travel/internal/api/content/service"
	"meta_travel/internal/database"
	"meta_travel/internal/global"
	"meta_travel/internal/storage"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func InitRegistry() {
	// Khởi tạo registry và đăng ký các collections
	err := InitCollections(global.MongoClient, global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")

	// Đăng ký schema của các loại nội dung
	if err := contentsvc.RegisterSchemas(); err != nil {
		logrus.Fatalf("Failed to register content schemas: %v", err)
	}
	logrus.Info("Initialized schema registry")

	// Khởi tạo asset store (S3-compatible)
	store, err := storage.NewS3AssetStore(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to initialize asset store: %v", err)
	}
	global.AssetStore = store
	logrus.Info("Initialized asset store")
}

// InitCollections khởi tạo và đăng ký các collections MongoDB
func InitCollections(client *mongo.Client, cfg *config.Configuration) error {
	db := client.Database(cfg.MongoDB_DBName)

	for _, name := range contentmodels.AllCollectionNames() {
		col := db.Collection(name)
		registered, err := global.RegistryCollections.Register(name, col)
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}

		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Errorf("Collection %s already registered", name)
		}

		if err := database.CreateContentIndexes(context.TODO(), col); err != nil {
			logrus.Warnf("Failed to create indexes for collection %s: %v", name, err)
		}
	}

	return nil
}
