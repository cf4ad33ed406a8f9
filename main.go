// @title Family Portal API
// @version 1.0
// @description Backend API for the family events wall and its admin dashboard

// @securityDefinitions.apikey AdminSession
// @in header
// @name x-admin-session
package main

import (
	_ "github.com/alex-pricope/family-portal/docs"

	"errors"
	"github.com/alex-pricope/family-portal/api"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"io/fs"
)

func main() {
	// .env is optional, real deployments inject the environment
	envErr := godotenv.Load()

	// Load env
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	api.BindEnv()

	logging.BootstrapLogger(viper.GetString("log.level"))
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logging.Log.Warnf("Failed to load .env: %v", envErr)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logging.Log.Errorf("Failed to read config file: %v", err)
			panic("Failed to read config file: " + err.Error())
		}
		logging.Log.Info("No config file found, using environment only")
	}
	logging.BootstrapLogger(viper.GetString("log.level"))

	// Read config
	config := api.ReadConfig()

	// Start the service (inside the lambda)
	service := api.NewServer(config)
	service.Start()
}
