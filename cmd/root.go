package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mailsignal/dmarclens/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dmarclens",
	Short: "DMARC aggregate report analytics and IP intelligence",
	Long: `dmarclens ingests DMARC aggregate reports (XML), derives compliance
statistics and forwarding-risk verdicts, and enriches reporting source IPs
with hostname, sending-service identity, and country via cached reverse-DNS
and geolocation lookups.

Examples:
  dmarclens serve --port 8080
  dmarclens parse report1.xml report2.xml
  dmarclens cache clear 'geo:*'
`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .dmarclens.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dmarclens")
	}

	viper.SetEnvPrefix("DMARCLENS")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")

	// 30-day TTLs; hostname and geo caches are tuned independently.
	viper.SetDefault("cache.hostname_ttl", "720h")
	viper.SetDefault("cache.geo_ttl", "720h")

	viper.SetDefault("resolver.doh_endpoint", "https://dns.google")
	viper.SetDefault("resolver.hostname_timeout", "5s")
	viper.SetDefault("resolver.geo_timeout", "3s")
	viper.SetDefault("resolver.geo_pacing", "100ms")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.enable_cors", true)
	viper.SetDefault("server.rate_limit.requests_per_second", 10)
	viper.SetDefault("server.rate_limit.burst_size", 20)
}

func loadConfig() (*config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
