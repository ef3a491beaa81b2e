package config

import "fmt"

// PostgresConfig holds Postgres connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the Postgres connection URL.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

func (c *PostgresConfig) applyEnv() {
	c.Host = getEnv("DB_HOST", c.Host)
	c.Port = getEnvAsInt("DB_PORT", c.Port)
	c.User = getEnv("DB_USER", c.User)
	c.Password = getEnv("DB_PASSWORD", c.Password)
	c.Database = getEnv("DB_NAME", c.Database)
	c.SSLMode = getEnv("DB_SSLMODE", c.SSLMode)
}

// PostgresFromEnv returns the default Postgres settings with DB_* overrides.
func PostgresFromEnv() PostgresConfig {
	cfg := Default().Postgres
	cfg.applyEnv()
	return cfg
}
