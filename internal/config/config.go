package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/voice-intake/internal/availability"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Calendar
	CalendarBackend       string
	CalendarID            string
	GoogleCredentialsFile string

	// Clinic schedule
	ClinicTimezone      string
	BusinessDays        string
	BusinessHours       string
	SearchHorizonDays   int
	AppointmentDuration time.Duration

	// Persona
	AssistantName          string
	ClinicName             string
	EventDescriptionSuffix string
	DefaultLanguage        string

	// Session storage
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	DatabaseURL        string
	HostJWTSecret      string
	CORSAllowedOrigins []string
	SessionCreateRate  float64
	SessionCreateBurst int

	// Dialogue driver
	GeminiAPIKey  string
	GeminiModelID string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CalendarBackend:       strings.ToLower(strings.TrimSpace(getEnv("CALENDAR_BACKEND", "google"))),
		CalendarID:            getEnv("CALENDAR_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),

		ClinicTimezone:      getEnv("CLINIC_TIMEZONE", "UTC"),
		BusinessDays:        getEnv("BUSINESS_DAYS", "monday,tuesday,wednesday,thursday,friday"),
		BusinessHours:       getEnv("BUSINESS_HOURS", "9,10,11,13,14,15,16"),
		SearchHorizonDays:   getEnvAsInt("SEARCH_HORIZON_DAYS", availability.DefaultSearchHorizonDays),
		AppointmentDuration: getEnvAsDuration("APPOINTMENT_DURATION", time.Hour),

		AssistantName:          getEnv("ASSISTANT_NAME", "JARVIS"),
		ClinicName:             getEnv("CLINIC_NAME", "Very Fresh Dentals"),
		EventDescriptionSuffix: getEnv("EVENT_DESCRIPTION_SUFFIX", "(Appointment scheduled by JARVIS)"),
		DefaultLanguage:        strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_LANGUAGE", "french"))),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		DatabaseURL:        getEnv("DATABASE_URL", ""),
		HostJWTSecret:      getEnv("HOST_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		SessionCreateRate:  getEnvAsFloat("SESSION_CREATE_RATE", 1),
		SessionCreateBurst: getEnvAsInt("SESSION_CREATE_BURST", 5),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
	}
}

// Schedule parses the clinic opening pattern.
func (c *Config) Schedule() (availability.BusinessHours, error) {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return availability.BusinessHours{}, fmt.Errorf("config: CLINIC_TIMEZONE: %w", err)
	}
	days, err := availability.ParseWeekdays(c.BusinessDays)
	if err != nil {
		return availability.BusinessHours{}, fmt.Errorf("config: BUSINESS_DAYS: %w", err)
	}
	hours, err := availability.ParseHours(c.BusinessHours)
	if err != nil {
		return availability.BusinessHours{}, fmt.Errorf("config: BUSINESS_HOURS: %w", err)
	}
	return availability.BusinessHours{Days: days, StartingHours: hours, Location: loc}, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
