package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env struct {
	AppAddr string
	GinMode string

	APIBaseURL   string
	APITimeout   time.Duration
	APIRateLimit float64
	APIRateBurst int
	PageSize     int

	SessionCookie string
	SessionSecret string
	SignInPath    string
	CookieSecure  bool

	DraftStore      string
	DraftTTL        time.Duration
	DraftPassphrase string
	MySQLDSN        string
	RedisAddr       string
	RedisPassword   string
	MaxUploadBytes  int64

	CORSAllowedOrigins []string
	ClientRateLimit    float64
	ConsentCookie      string
	GeocoderURL        string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("API_RATE_LIMIT", 50)
	v.SetDefault("API_RATE_BURST", 20)
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("SESSION_COOKIE", "session_token")
	v.SetDefault("SIGNIN_PATH", "/auth/signin")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("DRAFT_STORE", "memory")
	v.SetDefault("DRAFT_TTL", "2h")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("CLIENT_RATE_LIMIT", 20)
	v.SetDefault("CONSENT_COOKIE", "cookie_consent")
}

// LoadEnv reads configuration from the process environment.
func LoadEnv() Env {
	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds Env from an already populated viper instance.
func FromViper(v *viper.Viper) Env {
	setDefaults(v)

	origins := defaultOrigins
	if raw := strings.TrimSpace(v.GetString("CORS_ALLOWED_ORIGINS")); raw != "" {
		origins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	pageSize := v.GetInt("PAGE_SIZE")
	if pageSize < 1 {
		pageSize = 10
	}

	return Env{
		AppAddr: strings.TrimSpace(v.GetString("APP_ADDR")),
		GinMode: strings.TrimSpace(v.GetString("GIN_MODE")),

		APIBaseURL:   strings.TrimRight(strings.TrimSpace(v.GetString("API_BASE_URL")), "/"),
		APITimeout:   v.GetDuration("API_TIMEOUT"),
		APIRateLimit: v.GetFloat64("API_RATE_LIMIT"),
		APIRateBurst: v.GetInt("API_RATE_BURST"),
		PageSize:     pageSize,

		SessionCookie: v.GetString("SESSION_COOKIE"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		SignInPath:    v.GetString("SIGNIN_PATH"),
		CookieSecure:  v.GetBool("COOKIE_SECURE"),

		DraftStore:      strings.ToLower(strings.TrimSpace(v.GetString("DRAFT_STORE"))),
		DraftTTL:        v.GetDuration("DRAFT_TTL"),
		DraftPassphrase: v.GetString("DRAFT_PASSPHRASE"),
		MySQLDSN:        v.GetString("MYSQL_DSN"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		MaxUploadBytes:  v.GetInt64("MAX_UPLOAD_BYTES"),

		CORSAllowedOrigins: origins,
		ClientRateLimit:    v.GetFloat64("CLIENT_RATE_LIMIT"),
		ConsentCookie:      v.GetString("CONSENT_COOKIE"),
		GeocoderURL:        strings.TrimSpace(v.GetString("GEOCODER_URL")),
	}
}
