package contact

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/muhammadghufran/portfolio/env"
)

/*
ENV CONFIG (a .env file next to the binary is honoured, see env.Load):
  Server:
    LISTEN_ADDR (default ":5000")
    APP_ENV (default "development"; "production" enables HTML caching)
    LOG_LEVEL, LOG_FORMAT ("text" or "json")
    MAX_BODY_KB (default 100)
    ALLOW_JSON, ALLOW_FORM (default "true")
    ALLOWED_ORIGINS="https://a.com,https://b.com" or "*"
    TRUST_PROXY (default "true"; right-most X-Forwarded-For hop is the client)
    SITE_URL (absolute base for sitemap.xml / robots.txt)
    STATIC_DIR (built front end, optional)

  Rate limit:
    RATE_LIMIT_MAX (default 5), RATE_LIMIT_WINDOW (default 15m)
    RATE_LIMIT_REDIS_ADDR, RATE_LIMIT_REDIS_PASSWORD, RATE_LIMIT_REDIS_DB,
    RATE_LIMIT_REDIS_PREFIX    // memory store when the address is empty

  Mail:
    EMAIL_USER, EMAIL_PASS or EMAIL_APP_PASSWORD  // no password: accept and log only
    CONTACT_TO (default EMAIL_USER)
    SMTP_HOST (default smtp.gmail.com), SMTP_PORT (465), SMTP_SSL (true)
    MAIL_PER_MINUTE (default 30)
    SUBJECT_PREFIX (default "Portfolio Contact:")
    OWNER_NAME, OWNER_TITLE, LINKEDIN_URL, GITHUB_URL  // auto-reply signature
*/

type Config struct {
	ListenAddr     string `env:"LISTEN_ADDR,default=:5000"`
	AppEnv         string `env:"APP_ENV,default=development"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	LogFormat      string `env:"LOG_FORMAT,default=text"`
	MaxBodyKB      int    `env:"MAX_BODY_KB,default=100"`
	AllowJSON      bool   `env:"ALLOW_JSON,default=true"`
	AllowForm      bool   `env:"ALLOW_FORM,default=true"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	TrustProxy     bool   `env:"TRUST_PROXY,default=true"`
	SiteURL        string `env:"SITE_URL"`
	StaticDir      string `env:"STATIC_DIR"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX,default=5"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`
	Redis           RedisCfg

	SMTP          SmtpCfg
	ContactTo     string `env:"CONTACT_TO"`
	MailPerMinute int    `env:"MAIL_PER_MINUTE,default=30"`
	SubjectPrefix string `env:"SUBJECT_PREFIX,default=Portfolio Contact:"`
	Owner         OwnerCfg
}

type RedisCfg struct {
	Addr     string `env:"RATE_LIMIT_REDIS_ADDR"`
	Password string `env:"RATE_LIMIT_REDIS_PASSWORD"`
	DB       int    `env:"RATE_LIMIT_REDIS_DB,default=0"`
	Prefix   string `env:"RATE_LIMIT_REDIS_PREFIX,default=portfolio:contact:ratelimit"`
}

type SmtpCfg struct {
	Host        string `env:"SMTP_HOST,default=smtp.gmail.com"`
	Port        int    `env:"SMTP_PORT,default=465"`
	User        string `env:"EMAIL_USER"`
	Pass        string `env:"EMAIL_PASS"`
	AppPassword string `env:"EMAIL_APP_PASSWORD"`
	SSL         bool   `env:"SMTP_SSL,default=true"`
}

type OwnerCfg struct {
	Name     string `env:"OWNER_NAME"`
	Title    string `env:"OWNER_TITLE"`
	LinkedIn string `env:"LINKEDIN_URL"`
	GitHub   string `env:"GITHUB_URL"`
}

// Password is the SMTP secret; EMAIL_PASS takes precedence over EMAIL_APP_PASSWORD.
func (c SmtpCfg) Password() string {
	return env.FirstNonEmpty(c.Pass, c.AppPassword)
}

// Enabled reports whether enough credentials are present to deliver mail.
func (c SmtpCfg) Enabled() bool {
	return c.User != "" && c.Password() != ""
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) MaxBodyBytes() int64 {
	return int64(c.MaxBodyKB) * 1024
}

func (c *Config) Origins() []string {
	return splitString(c.AllowedOrigins)
}

// LoadConfig decodes the environment and fills derived defaults.
func LoadConfig() (*Config, error) {
	var c Config
	if err := env.Load(&c); err != nil {
		return nil, err
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) normalize() error {
	if c.ContactTo == "" {
		c.ContactTo = c.SMTP.User
	}
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	c.SubjectPrefix = strings.TrimSpace(c.SubjectPrefix)

	if c.MaxBodyKB <= 0 {
		return fmt.Errorf("MAX_BODY_KB must be positive, got %d", c.MaxBodyKB)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.MailPerMinute <= 0 {
		return fmt.Errorf("MAIL_PER_MINUTE must be positive, got %d", c.MailPerMinute)
	}
	if !c.AllowJSON && !c.AllowForm {
		return fmt.Errorf("at least one of ALLOW_JSON and ALLOW_FORM must be enabled")
	}
	return nil
}

func splitString(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Compact(parts)
}
