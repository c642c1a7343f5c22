package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// VendorSettings is the configuration block every HMIS vendor carries.
type VendorSettings struct {
	Host               string
	AutoInput          bool
	AutoUpload         bool
	AutoUploadInterval time.Duration
}

// HXZYSettings - 成都北 华兴致远
type HXZYSettings struct {
	VendorSettings
	GD string // 股道号
}

// JTVSettings - 京天威
type JTVSettings struct {
	VendorSettings
	UnitCode   string
	DeviceIP   string
	DevicePort string
}

// JTVXZBSettings - 京天威 徐州北
type JTVXZBSettings struct {
	VendorSettings
	UsernamePrefix string
}

// KHSettings - 库检
type KHSettings struct {
	VendorSettings
	TSGZ  string // 探伤工长
	TSZJY string // 探伤质检员
	TSYSY string // 探伤验收员
}

// Config holds all configuration for the application
type Config struct {
	LedgerDBPath string // sqlite file holding the barcode ledger
	RedisURL     string
	DriverPath   string // external driver executable
	DatabasePath string // legacy inspection database file
	ListenAddr   string

	HXZY   HXZYSettings
	JTV    JTVSettings
	JTVXZB JTVXZBSettings
	KH     KHSettings
}

// LoadConfig reads configuration from environment variables (.env file)
func LoadConfig() (*Config, error) {
	// Load .env file. In production, env variables are often set directly.
	if err := godotenv.Load(); err != nil {
		// Don't fail if .env is not present, just log it
		// log.Printf("Warning: .env file not found, reading from environment")
	}

	return &Config{
		LedgerDBPath: getEnv("LEDGER_DB_PATH", "hmisync.db"),
		RedisURL:     getEnv("REDIS_URL", ""),
		DriverPath:   getEnv("DRIVER_PATH", ""),
		DatabasePath: getEnv("DATABASE_PATH", ""),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		HXZY: HXZYSettings{
			VendorSettings: vendorSettings("HXZY"),
			GD:             getEnv("HXZY_GD", ""),
		},
		JTV: JTVSettings{
			VendorSettings: vendorSettings("JTV"),
			UnitCode:       getEnv("JTV_UNIT_CODE", ""),
			DeviceIP:       getEnv("JTV_DEVICE_IP", ""),
			DevicePort:     getEnv("JTV_DEVICE_PORT", "3000"),
		},
		JTVXZB: JTVXZBSettings{
			VendorSettings: vendorSettings("JTV_XZB"),
			UsernamePrefix: getEnv("JTV_XZB_USERNAME_PREFIX", ""),
		},
		KH: KHSettings{
			VendorSettings: vendorSettings("KH"),
			TSGZ:           getEnv("KH_TSGZ", ""),
			TSZJY:          getEnv("KH_TSZJY", ""),
			TSYSY:          getEnv("KH_TSYSY", ""),
		},
	}, nil
}

func vendorSettings(prefix string) VendorSettings {
	return VendorSettings{
		Host:               getEnv(prefix+"_HOST", ""),
		AutoInput:          getEnvBool(prefix+"_AUTO_INPUT", false),
		AutoUpload:         getEnvBool(prefix+"_AUTO_UPLOAD", false),
		AutoUploadInterval: time.Duration(getEnvInt(prefix+"_AUTO_UPLOAD_INTERVAL", 30)) * time.Second,
	}
}

// Helper function to get env var or return default
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
