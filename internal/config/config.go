package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config es la configuración de la aplicación.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Sheets  SheetsConfig  `mapstructure:"sheets"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type SheetsConfig struct {
	// ScriptURL es el endpoint del Apps Script que da acceso a la hoja.
	// Obligatorio: sin él el gateway no puede operar.
	ScriptURL string `mapstructure:"script_url"`
}

type WebhookConfig struct {
	// UpdateURL recibe {previousOrder, updatedOrder} al actualizar pedidos.
	UpdateURL string `mapstructure:"update_url"`
}

// Load carga la configuración desde un fichero YAML opcional más variables
// de entorno (APP_SHEETS_SCRIPT_URL, APP_SERVER_PORT, ...). El entorno gana.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "form-godoy")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("server.port", "8080")
	v.SetDefault("sheets.script_url", "")
	v.SetDefault("webhook.update_url", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			// El fichero es opcional; solo es fatal si existe y está roto.
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("read config failed: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	// PORT pelado tiene prioridad en despliegues tipo Cloud Run.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	return &cfg, nil
}

// LoadDefault carga la ruta de configuración por defecto.
func LoadDefault() (*Config, error) {
	return Load("config/config.yaml")
}

// Validate verifica la configuración obligatoria. Un fallo aquí es fatal:
// la aplicación no debe arrancar con el gateway roto.
func (c *Config) Validate() error {
	if c.Sheets.ScriptURL == "" {
		return fmt.Errorf("sheets script_url is required (APP_SHEETS_SCRIPT_URL)")
	}
	if c.Webhook.UpdateURL == "" {
		return fmt.Errorf("webhook update_url is required (APP_WEBHOOK_UPDATE_URL)")
	}
	return nil
}
