package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	BaseURL     string
	DatabaseDSN string

	KafkaBroker        string
	KafkaAuditTopic    string
	KafkaPresenceTopic string
	KafkaGroupID       string
	KafkaUsername      string
	KafkaPassword      string

	AccessSecret string
	// member ids with platform-level override, comma separated
	AdminAllowlist []uint

	SweepIntervalMinutes int
}

func LoadConfig() Config {
	wd, _ := os.Getwd()
	log.Println("WD =", wd)

	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Println("Warning: .env not loaded:", err)
		}
	}

	return Config{
		ServerPort:  os.Getenv("SERVER_PORT"),
		BaseURL:     os.Getenv("BASE_URL"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		KafkaAuditTopic:    os.Getenv("KAFKA_AUDIT_TOPIC"),
		KafkaPresenceTopic: os.Getenv("KAFKA_PRESENCE_TOPIC"),
		KafkaGroupID:       os.Getenv("KAFKA_GROUP_ID"),
		KafkaUsername:      os.Getenv("KAFKA_USERNAME"),
		KafkaPassword:      os.Getenv("KAFKA_PASSWORD"),

		AccessSecret:   os.Getenv("ACCESS_SECRET"),
		AdminAllowlist: parseIDList(os.Getenv("ADMIN_ALLOWLIST")),

		SweepIntervalMinutes: parseIntDefault(os.Getenv("SWEEP_INTERVAL_MINUTES"), 5),
	}
}

func parseIDList(raw string) []uint {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			log.Printf("Warning: bad admin allowlist entry %q", part)
			continue
		}
		ids = append(ids, uint(v))
	}
	return ids
}

func parseIntDefault(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
